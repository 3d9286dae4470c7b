package cmd

import (
	"bytes"
	"encoding/json"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/spigell/assessment-flow/internal/review"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	configureViper()
}

func TestGetConfigDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := getConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.URL != "http://localhost:8080/api" {
		t.Fatalf("unexpected api url %q", cfg.API.URL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.API.Timeout)
	}
	if cfg.Guard.Concurrency != 4 || cfg.Guard.CheckTimeout != 5*time.Second {
		t.Fatalf("unexpected guard config %+v", cfg.Guard)
	}
	if cfg.AI.Enabled || cfg.AI.Gemini.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected ai config %+v", cfg.AI)
	}
	if cfg.Log.Output != "stderr" {
		t.Fatalf("unexpected log output %q", cfg.Log.Output)
	}
}

func TestGetConfigFromEnv(t *testing.T) {
	t.Setenv("ASSESSMENT_FLOW_API_URL", "http://backend:9000/api")
	t.Setenv("ASSESSMENT_FLOW_API_TOKEN_FILE", "/run/secrets/token")
	t.Setenv("ASSESSMENT_FLOW_GUARD_CHECK_TIMEOUT", "2s")
	t.Setenv("ASSESSMENT_FLOW_ACTOR_ID", "42")
	t.Setenv("ASSESSMENT_FLOW_ACTOR_ROLE", "Company")
	resetViper(t)

	cfg, err := getConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.URL != "http://backend:9000/api" || cfg.API.TokenFile != "/run/secrets/token" {
		t.Fatalf("env not applied: %+v", cfg.API)
	}
	if cfg.Guard.CheckTimeout != 2*time.Second {
		t.Fatalf("unexpected check timeout %s", cfg.Guard.CheckTimeout)
	}

	e := &env{config: cfg}
	actor, err := e.actor()
	if err != nil {
		t.Fatalf("unexpected actor error: %v", err)
	}
	if actor.ID != 42 || actor.Role != review.RoleCompany {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestActorValidation(t *testing.T) {
	cases := []ActorConfig{
		{ID: 0, Role: "company"},
		{ID: 1, Role: "recruiter"},
	}
	for _, c := range cases {
		e := &env{config: &Config{Actor: &c}}
		if _, err := e.actor(); err == nil {
			t.Fatalf("expected error for %+v", c)
		}
	}
}

func TestPrintVersion(t *testing.T) {
	var plain bytes.Buffer
	if err := printVersion(&plain, false); err != nil {
		t.Fatalf("printVersion: %v", err)
	}
	if !strings.HasPrefix(plain.String(), "assessment-flow version: unknown (commit unknown") {
		t.Fatalf("unexpected output %q", plain.String())
	}

	var structured bytes.Buffer
	if err := printVersion(&structured, true); err != nil {
		t.Fatalf("printVersion: %v", err)
	}
	var info buildInfo
	if err := json.Unmarshal(structured.Bytes(), &info); err != nil {
		t.Fatalf("version output is not json: %v", err)
	}
	if info.App != app || info.Go != runtime.Version() {
		t.Fatalf("unexpected build info %+v", info)
	}
}
