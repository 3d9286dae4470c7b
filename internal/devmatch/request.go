package devmatch

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"

	headerUserID    = "X-User-Id"
	headerRequestID = "X-Request-Id"
)

// localDateTimeLayouts covers timestamps serialized without a zone.
var localDateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type requestOption func(*http.Request)

func withActor(userID int64) requestOption {
	return func(req *http.Request) {
		req.Header.Set(headerUserID, strconv.FormatInt(userID, 10))
	}
}

// do sends the request and returns the body of a 2xx answer. Non 2xx answers
// become *APIError, transport failures wrap ErrRequestFailed.
func (c *Client) do(ctx context.Context, method, path string, body any, opts ...requestOption) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req = c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.request(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, method, path, err)
	}
	defer resp.Body.Close()

	payload, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: read body: %w", ErrRequestFailed, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    serverMessage(payload),
		}
	}

	return payload, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", req.Header.Get(headerRequestID)),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set(headerRequestID, uuid.NewString())

	return req
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}

	return io.ReadAll(reader)
}

// getJSON decodes a JSON answer into target through mapstructure so that
// loosely typed fields (numbers as strings, zone-less dates) are accepted.
func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	payload, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	return decodeJSON(payload, target)
}

func decodeJSON(payload []byte, target any) error {
	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(timeHook),
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func timeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}

	switch from.Kind() {
	case reflect.String:
		return parseTimestamp(data.(string))
	case reflect.Slice:
		// Jackson without JSR310 settings emits [y, m, d, h, min, s, nanos].
		return timeFromParts(data)
	default:
		return data, nil
	}
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range localDateTimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", value)
}

func timeFromParts(data any) (time.Time, error) {
	parts, ok := data.([]any)
	if !ok || len(parts) < 3 {
		return time.Time{}, fmt.Errorf("unsupported timestamp %v", data)
	}

	fields := make([]int, 7)
	for i := 0; i < len(parts) && i < len(fields); i++ {
		n, ok := parts[i].(float64)
		if !ok {
			return time.Time{}, fmt.Errorf("unsupported timestamp %v", data)
		}
		fields[i] = int(n)
	}

	return time.Date(fields[0], time.Month(fields[1]), fields[2], fields[3], fields[4], fields[5], fields[6], time.UTC), nil
}
