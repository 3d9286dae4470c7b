package devmatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spigell/assessment-flow/internal/utils"
)

const maxMessageLength = 300

// ErrRequestFailed wraps transport level failures: refused connections,
// timeouts and cancelled contexts.
var ErrRequestFailed = errors.New("request failed")

// APIError is returned for any non 2xx answer from the backend.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: bad status: %s: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: bad status: %s", e.Method, e.Path, e.Status)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// serverMessage pulls a readable message out of an error body. Spring style
// bodies carry it under "message" or "error"; anything else is used verbatim.
func serverMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"message", "error", "detail"} {
			if v, ok := payload[key].(string); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}

	return utils.TruncateForLog(text, maxMessageLength)
}
