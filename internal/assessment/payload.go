package assessment

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// AnswersFilename is the fixed filename of a structured answers upload.
	AnswersFilename = "respostas.json"

	answersType = "code_answers"
	fileType    = "file"

	defaultMime = "application/pdf"
)

// Answer is a candidate's code for one question.
type Answer struct {
	Title    string `json:"title"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Submission is the envelope accepted by the submission store.
type Submission struct {
	JobID       int64  `json:"vagaId"`
	CandidateID int64  `json:"usuarioId"`
	Filename    string `json:"filename"`
	FileBase64  string `json:"fileBase64"`
}

type answersDocument struct {
	Type        string   `json:"type"`
	JobID       int64    `json:"vagaId"`
	CandidateID int64    `json:"usuarioId"`
	Answers     []Answer `json:"answers"`
}

// NewFileSubmission wraps raw file content. The body is plain base64 with no
// data URL prefix.
func NewFileSubmission(jobID, candidateID int64, filename string, content []byte) (*Submission, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, errors.New("filename is required")
	}
	if len(content) == 0 {
		return nil, errors.New("file is empty")
	}

	return &Submission{
		JobID:       jobID,
		CandidateID: candidateID,
		Filename:    filename,
		FileBase64:  base64.StdEncoding.EncodeToString(content),
	}, nil
}

// NewEncodedFileSubmission wraps a body that was already base64 encoded.
func NewEncodedFileSubmission(jobID, candidateID int64, filename, body string) (*Submission, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, errors.New("filename is required")
	}
	if body == "" {
		return nil, errors.New("file is empty")
	}

	return &Submission{
		JobID:       jobID,
		CandidateID: candidateID,
		Filename:    filename,
		FileBase64:  body,
	}, nil
}

// NewAnswersSubmission packs structured answers into the same envelope used for files.
func NewAnswersSubmission(jobID, candidateID int64, answers []Answer) (*Submission, error) {
	if len(answers) == 0 {
		return nil, errors.New("at least one answer is required")
	}

	data, err := json.Marshal(answersDocument{
		Type:        answersType,
		JobID:       jobID,
		CandidateID: candidateID,
		Answers:     answers,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}

	return &Submission{
		JobID:       jobID,
		CandidateID: candidateID,
		Filename:    AnswersFilename,
		FileBase64:  base64.StdEncoding.EncodeToString(data),
	}, nil
}

// DecodeAnswers extracts structured answers from an envelope body. It reports
// false when the body is not a code_answers document.
func DecodeAnswers(fileBase64 string) ([]Answer, bool) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(fileBase64))
	if err != nil {
		return nil, false
	}
	return parseAnswersDocument(data)
}

func parseAnswersDocument(data []byte) ([]Answer, bool) {
	var doc answersDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	if doc.Type != answersType || len(doc.Answers) == 0 {
		return nil, false
	}
	return doc.Answers, true
}

// ResponseKind discriminates what a stored submission contains.
type ResponseKind int

const (
	ResponseNone ResponseKind = iota
	ResponseAnswers
	ResponseFile
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseAnswers:
		return "answers"
	case ResponseFile:
		return "file"
	default:
		return "none"
	}
}

// EmbeddedFile is a document stored inline in a submission payload.
type EmbeddedFile struct {
	Filename string
	Mime     string
	// Base64 is the body without any data URL prefix.
	Base64 string
}

// Bytes decodes the file body.
func (f *EmbeddedFile) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(f.Base64)
	if err != nil {
		return nil, fmt.Errorf("decode embedded file: %w", err)
	}
	return data, nil
}

// DataURL renders the file as an openable data URL.
func (f *EmbeddedFile) DataURL() string {
	mime := f.Mime
	if mime == "" {
		mime = defaultMime
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, f.Base64)
}

// Response is the decoded content of a stored submission.
type Response struct {
	Kind    ResponseKind
	Answers []Answer
	File    *EmbeddedFile
}

type rawFile struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
	Base64   string `json:"base64"`
}

// ParseResponse picks the presentable form of a submission detail. Structured
// answers win; otherwise an embedded file object is looked up in the raw
// payload. Anything else is ResponseNone.
func ParseResponse(answers []Answer, rawPayload string) *Response {
	if len(answers) > 0 {
		out := make([]Answer, len(answers))
		copy(out, answers)
		return &Response{Kind: ResponseAnswers, Answers: out}
	}

	raw := strings.TrimSpace(rawPayload)
	if raw == "" {
		return &Response{Kind: ResponseNone}
	}

	if parsed, ok := parseAnswersDocument([]byte(raw)); ok {
		return &Response{Kind: ResponseAnswers, Answers: parsed}
	}

	var file rawFile
	if err := json.Unmarshal([]byte(raw), &file); err != nil {
		return &Response{Kind: ResponseNone}
	}

	if file.Type != fileType || strings.TrimSpace(file.Base64) == "" {
		return &Response{Kind: ResponseNone}
	}

	mime, body := splitDataURL(strings.TrimSpace(file.Base64))
	if body == "" {
		return &Response{Kind: ResponseNone}
	}

	return &Response{
		Kind: ResponseFile,
		File: &EmbeddedFile{Filename: file.Filename, Mime: mime, Base64: body},
	}
}

// splitDataURL accepts either a bare base64 body or a data URL.
func splitDataURL(value string) (string, string) {
	if !strings.HasPrefix(value, "data:") {
		return "", value
	}

	header, body, found := strings.Cut(value, ",")
	if !found {
		return "", ""
	}

	header = strings.TrimPrefix(header, "data:")
	header = strings.TrimSuffix(header, ";base64")
	return header, body
}
