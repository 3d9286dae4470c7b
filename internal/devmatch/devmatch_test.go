package devmatch

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/assessment-flow/internal/assessment"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(zap.NewNop(), "secret")
	c.APIURL = srv.URL + "/api"
	return c
}

func TestSubmitAssessment(t *testing.T) {
	var got assessment.Submission
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tests/submissions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		if r.Header.Get(headerRequestID) == "" {
			t.Errorf("missing request id")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte("17"))
	})

	sub, err := assessment.NewFileSubmission(5, 9, "answer.pdf", []byte("pdf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, err := c.SubmitAssessment(context.Background(), sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 17 {
		t.Fatalf("expected id 17, got %d", id)
	}
	if got != *sub {
		t.Fatalf("unexpected envelope %+v", got)
	}
}

func TestListSubmissionsDecodesLocalDateTime(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tests/submissions/by-user/5/9" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"id": 2, "vagaId": 5, "usuarioId": 9, "submittedAt": "2024-05-02T10:30:00.123", "status": "enviado", "score": null},
			{"id": 1, "vagaId": 5, "usuarioId": 9, "submittedAt": [2024, 5, 1, 8, 0, 0], "status": "aprovado", "score": 87.5}
		]`))
	})

	list, err := c.ListSubmissions(context.Background(), 5, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(list))
	}

	want := time.Date(2024, 5, 2, 10, 30, 0, 123000000, time.UTC)
	if !list[0].SubmittedAt.Equal(want) {
		t.Fatalf("expected %s, got %s", want, list[0].SubmittedAt)
	}
	if list[0].Score != nil {
		t.Fatalf("expected nil score")
	}
	if !list[1].SubmittedAt.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected array timestamp %s", list[1].SubmittedAt)
	}
	if list[1].Score == nil || *list[1].Score != 87.5 {
		t.Fatalf("unexpected score %v", list[1].Score)
	}
}

func TestGetSubmissionDetailNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	detail, err := c.GetSubmissionDetail(context.Background(), 404)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if detail != nil {
		t.Fatalf("expected nil detail, got %+v", detail)
	}
}

func TestGetSubmissionDetailAnswers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id": 3, "vagaId": 5, "usuarioId": 9, "rawPayload": "{}",
			"answers": [{"id": 1, "title": "first", "language": "go", "code": "a"}, {"id": 2, "title": "second", "language": "go", "code": "b"}]}`))
	})

	detail, err := c.GetSubmissionDetail(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp := detail.Response()
	if resp.Kind != assessment.ResponseAnswers || len(resp.Answers) != 2 || resp.Answers[0].Title != "first" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestApproveSubmission(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tests/submissions/3/approve" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-User-Id") != "77" {
			t.Errorf("expected approver header, got %q", r.Header.Get("X-User-Id"))
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["contractType"] != "CLT" {
			t.Errorf("unexpected contract type %q", body["contractType"])
		}
		w.Write([]byte("1001"))
	})

	contractID, err := c.ApproveSubmission(context.Background(), 3, assessment.ContractCLT, 77)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contractID != 1001 {
		t.Fatalf("expected contract 1001, got %d", contractID)
	}
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "Vaga não encontrada"}`))
	})

	_, err := c.GetCompatibility(context.Background(), 1, 2)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "Vaga não encontrada" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if IsNotFound(err) {
		t.Fatalf("400 is not a not found")
	}
}

func TestTransportFailureIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(nil, "")
	c.APIURL = url

	_, err := c.ListSubmissions(context.Background(), 1, 1)
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}

func TestGzipAndCompatibleJobs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/matching/vagas-compativeis/9" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		gz.Write([]byte(`[{"vagaId": 5, "titulo": "Go dev", "regime": "CLT", "compatibilidade": 91.5,
			"matchingDetails": {"scoreSkills": 80, "skillsEmComum": ["go"], "skillsFaltantes": ["k8s"]}}]`))
		gz.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	})

	jobs, err := c.GetCompatibleJobs(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Compatibility != 91.5 {
		t.Fatalf("unexpected jobs %+v", jobs)
	}

	details := jobs[0].Details
	if details == nil || details.SkillsScore == nil || *details.SkillsScore != 80 {
		t.Fatalf("unexpected details %+v", details)
	}
	if details.SalaryScore != nil {
		t.Fatalf("missing criterion should stay nil")
	}
	if len(details.MissingSkills) != 1 || details.MissingSkills[0] != "k8s" {
		t.Fatalf("unexpected missing skills %v", details.MissingSkills)
	}
}

func TestJobAssessmentAndApplications(t *testing.T) {
	token := assessment.Encode(assessment.NewQuestions(assessment.Question{Title: "q", Language: "go"}))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/jobs/5":
			json.NewEncoder(w).Encode(map[string]any{"id": 5, "regime": "Cooperativa", "anexo": token})
		case "/api/candidaturas/usuario/9":
			w.Write([]byte(`[{"id": 1, "vagaId": 5, "usuarioId": 9, "status": "ACEITO", "dataCandidatura": "2024-04-01T09:00:00"}]`))
		case "/api/candidaturas/verificar/9/5":
			w.Write([]byte("true"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	job, err := c.GetJob(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !job.Assessment().HasQuestions() {
		t.Fatalf("expected questions assessment")
	}
	if job.ContractType() != assessment.ContractCooperado {
		t.Fatalf("unexpected contract type %s", job.ContractType())
	}

	missing, err := c.GetJob(ctx, 6)
	if err != nil || missing != nil {
		t.Fatalf("expected nil job for 404, got %+v (%v)", missing, err)
	}

	apps, err := c.ListApplications(ctx, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(apps) != 1 || apps[0].Status() != StatusAccepted {
		t.Fatalf("unexpected applications %+v", apps)
	}

	applied, err := c.HasApplied(ctx, 9, 5)
	if err != nil || !applied {
		t.Fatalf("expected applied, got %v (%v)", applied, err)
	}
}
