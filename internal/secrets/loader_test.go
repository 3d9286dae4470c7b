package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "token")
	if err := os.WriteFile(file, []byte("  from-file \n"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}

	t.Setenv("ASSESSMENT_FLOW_TEST_TOKEN", "from-env")

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{name: "file wins", src: Source{File: file, Env: "ASSESSMENT_FLOW_TEST_TOKEN", Value: "inline"}, want: "from-file"},
		{name: "env before inline", src: Source{Env: "ASSESSMENT_FLOW_TEST_TOKEN", Value: "inline"}, want: "from-env"},
		{name: "inline", src: Source{Env: "ASSESSMENT_FLOW_UNSET", Value: " inline "}, want: "inline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := Load(Source{Name: "api token"}); err == nil {
		t.Fatalf("expected error when nothing configured")
	}
	if _, err := Load(Source{File: empty}); err == nil {
		t.Fatalf("expected error for empty file")
	}
	if _, err := Load(Source{File: filepath.Join(dir, "missing")}); err == nil {
		t.Fatalf("expected error for missing file")
	}

	got, err := Optional(Source{Name: "api token"})
	if err != nil || got != "" {
		t.Fatalf("optional secret should resolve empty, got %q (%v)", got, err)
	}
}
