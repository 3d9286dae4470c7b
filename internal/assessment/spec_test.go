package assessment

import (
	"reflect"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	specs := []*Spec{
		NewQuestions(Question{Title: "FizzBuzz", Description: "print 1..100", Language: "go", StarterCode: "package main\n"}),
		NewQuestions(
			Question{Title: "Reverse", Description: "reverse a string", Language: "python", StarterCode: "def rev(s):\n    pass"},
			Question{Title: "Quotes \"and\" unicode ção", Language: "javascript"},
		),
	}

	for _, s := range specs {
		token := Encode(s)
		if !strings.HasPrefix(token, SpecPrefix) {
			t.Fatalf("expected sentinel prefix, got %q", token)
		}

		decoded := Decode(token)
		if !reflect.DeepEqual(decoded, s) {
			t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", s, decoded)
		}
	}
}

func TestDecodePDF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token string
		want  string
	}{
		{token: "  https://cdn.example.com/tests/backend.pdf ", want: "https://cdn.example.com/tests/backend.pdf"},
		{token: "data:application/pdf;base64,JVBERi0xLjQK", want: "data:application/pdf;base64,JVBERi0xLjQK"},
		{token: "/uploads/tests/backend.pdf", want: "/uploads/tests/backend.pdf"},
		{token: "www.example.com/test.pdf", want: "www.example.com/test.pdf"},
		{token: "ftp://example.com/file.pdf", want: "ftp://example.com/file.pdf"},
		{token: "not a url", want: "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			spec := Decode(tt.token)
			if !spec.IsPDF() {
				t.Fatalf("expected pdf spec for %q, got %+v", tt.token, spec)
			}
			if spec.URL != tt.want {
				t.Fatalf("unexpected url %q", spec.URL)
			}
			if Encode(spec) != tt.want {
				t.Fatalf("pdf should encode to the bare link")
			}
			if again := Decode(Encode(PDF(tt.want))); !reflect.DeepEqual(again, spec) {
				t.Fatalf("round trip mismatch: %+v", again)
			}
		})
	}
}

func TestDocument(t *testing.T) {
	t.Parallel()

	doc, ok := Decode("data:application/pdf;base64,JVBERi0xLjQK").Document()
	if !ok {
		t.Fatalf("expected embedded document")
	}
	if doc.Mime != "application/pdf" || doc.Filename != "assessment.pdf" {
		t.Fatalf("unexpected document %+v", doc)
	}
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(data) != "%PDF-1.4\n" {
		t.Fatalf("unexpected body %q", data)
	}

	if _, ok := Decode("https://cdn.example.com/tests/backend.pdf").Document(); ok {
		t.Fatalf("a remote link is not an embedded document")
	}
	if _, ok := Decode("data:application/pdf;base64").Document(); ok {
		t.Fatalf("a data url without a body is not a document")
	}
	if _, ok := (*Spec)(nil).Document(); ok {
		t.Fatalf("nil spec has no document")
	}
}

func TestDecodeMalformedQuestionsIsNil(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"   ",
		"json:testSpec:",
		"json:testSpec:{",
		"json:testSpec:[]",
		"json:testSpec:null",
		"json:testSpec:\x00\xff\xfe",
		`json:testSpec:{"type":"questions","questions":[]}`,
		`json:testSpec:{"type":"other","questions":[{"title":"x"}]}`,
		`json:testSpec:{"type":"questions","questions":"oops"}`,
	}

	for _, token := range tests {
		t.Run(token, func(t *testing.T) {
			if got := Decode(token); got != nil {
				t.Fatalf("expected nil for %q, got %+v", token, got)
			}
		})
	}
}

func TestEncodeNil(t *testing.T) {
	t.Parallel()

	if got := Encode(nil); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
	if got := Encode(&Spec{}); got != "" {
		t.Fatalf("expected empty token for KindNone, got %q", got)
	}
	if got := Encode(NewQuestions()); got != "" {
		t.Fatalf("expected empty token for a question set without questions, got %q", got)
	}
	if got := Encode(PDF("  ")); got != "" {
		t.Fatalf("expected empty token for a pdf without a link, got %q", got)
	}
}
