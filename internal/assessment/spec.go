// Package assessment holds the wire formats shared by the candidate and
// reviewer sides: the job assessment token, the submission envelope and the
// contract type derived from a job regime.
package assessment

import (
	"encoding/json"
	"strings"
)

// SpecPrefix marks an attachment token that carries inline questions.
const SpecPrefix = "json:testSpec:"

const questionsType = "questions"

// Kind discriminates the active variant of a Spec.
type Kind int

const (
	KindNone Kind = iota
	KindPDF
	KindQuestions
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindQuestions:
		return "questions"
	default:
		return "none"
	}
}

// Question is one inline coding question.
type Question struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	StarterCode string `json:"starterCode"`
}

// Spec is the assessment attached to a job. Exactly one of URL or Questions
// is meaningful, selected by Kind.
type Spec struct {
	Kind      Kind
	URL       string
	Questions []Question
}

type questionsDocument struct {
	Type      string     `json:"type"`
	Questions []Question `json:"questions"`
}

// PDF returns a spec pointing at an assessment document.
func PDF(link string) *Spec {
	return &Spec{Kind: KindPDF, URL: strings.TrimSpace(link)}
}

// NewQuestions returns a spec with inline questions.
func NewQuestions(questions ...Question) *Spec {
	qs := make([]Question, len(questions))
	copy(qs, questions)
	return &Spec{Kind: KindQuestions, Questions: qs}
}

func (s *Spec) IsPDF() bool { return s != nil && s.Kind == KindPDF }

func (s *Spec) HasQuestions() bool { return s != nil && s.Kind == KindQuestions }

// Document returns the assessment file when the PDF link is a data URL
// rather than a location to download from.
func (s *Spec) Document() (*EmbeddedFile, bool) {
	if !s.IsPDF() || !strings.HasPrefix(s.URL, "data:") {
		return nil, false
	}

	mime, body := splitDataURL(s.URL)
	if body == "" {
		return nil, false
	}
	return &EmbeddedFile{Filename: "assessment" + extensionFor(mime), Mime: mime, Base64: body}, true
}

func extensionFor(mime string) string {
	switch strings.ToLower(mime) {
	case "application/pdf":
		return ".pdf"
	case "application/msword":
		return ".doc"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ".docx"
	case "text/plain":
		return ".txt"
	default:
		return ""
	}
}

// Encode renders the spec into the token stored in the job attachment field.
// A nil spec, a PDF without a link and a question set without questions all
// encode to an empty token, which Decode reads back as no assessment. Strings
// must be valid UTF-8; invalid bytes are replaced with U+FFFD.
func Encode(s *Spec) string {
	if s == nil {
		return ""
	}

	switch s.Kind {
	case KindPDF:
		return strings.TrimSpace(s.URL)
	case KindQuestions:
		if len(s.Questions) == 0 {
			return ""
		}
		// Question holds only strings, marshalling cannot fail.
		data, _ := json.Marshal(questionsDocument{Type: questionsType, Questions: s.Questions})
		return SpecPrefix + string(data)
	default:
		return ""
	}
}

// Decode parses an attachment token. It never fails. A token without the
// questions prefix is an opaque document link (http URL, relative path or data
// URL); a malformed question set yields nil.
func Decode(token string) *Spec {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	if strings.HasPrefix(token, SpecPrefix) {
		return decodeQuestions(strings.TrimPrefix(token, SpecPrefix))
	}

	return PDF(token)
}

func decodeQuestions(raw string) *Spec {
	var doc questionsDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil
	}

	if doc.Type != questionsType || len(doc.Questions) == 0 {
		return nil
	}

	return &Spec{Kind: KindQuestions, Questions: doc.Questions}
}
