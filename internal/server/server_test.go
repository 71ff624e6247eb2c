package server

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/notesafe/notesafe/internal/config"
	"github.com/notesafe/notesafe/internal/infra"
	"github.com/notesafe/notesafe/internal/logging"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		AppName:           "NoteSafe",
		AppEnv:            "test",
		Port:              "0",
		DataDir:           t.TempDir(),
		OTPTTL:            180 * time.Second,
		SessionTTL:        time.Hour,
		SessionCookieName: "notesafe_session",
		PasswordHasher:    "bcrypt",
	}
}

func TestNewServesHealthInFileMode(t *testing.T) {
	cfg := testConfig(t)
	srv, err := New(cfg, infra.Backends{}, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/healthz", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	var body struct {
		Status map[string]string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status["postgres"] != "disabled" || body.Status["redis"] != "disabled" {
		t.Fatalf("unexpected health body: %+v", body)
	}

	for _, name := range []string{"users.json", "notes.json", "otp_sessions.json"} {
		if _, err := os.Stat(filepath.Join(cfg.DataDir, name)); err != nil {
			t.Fatalf("expected %s to be created: %v", name, err)
		}
	}
}

func TestNewRejectsUnknownHasher(t *testing.T) {
	cfg := testConfig(t)
	cfg.PasswordHasher = "md5"
	if _, err := New(cfg, infra.Backends{}, logging.Discard()); err == nil {
		t.Fatalf("expected error for unknown hasher")
	}
}

func TestErrorsAreJSON(t *testing.T) {
	srv, err := New(testConfig(t), infra.Backends{}, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	resp, err := srv.App().Test(httptest.NewRequest("GET", "/api/v1/notes", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401 got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "Please log in first." {
		t.Fatalf("unexpected error body: %v", body)
	}
}
