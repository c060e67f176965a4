package config

import (
	"bytes"
	"strings"
	"testing"
)

func TestMailConfigured(t *testing.T) {
	t.Setenv("SMTP_HOST", "")
	t.Setenv("SMTP_FROM", "")
	if MailConfigured() {
		t.Fatalf("expected mail to be unconfigured")
	}
	if err := SendMail([]string{"a@example.org"}, "subject", "<p>hi</p>"); err == nil {
		t.Fatalf("expected an error sending without SMTP settings")
	}
	if err := SendMail(nil, "subject", "<p>hi</p>"); err != nil {
		t.Fatalf("expected no-op for empty recipients, got %v", err)
	}

	t.Setenv("SMTP_HOST", "smtp.example.org")
	t.Setenv("SMTP_FROM", "Review Desk <no-reply@example.org>")
	if !MailConfigured() {
		t.Fatalf("expected mail to be configured")
	}
	if got := loadSMTP().port; got != 587 {
		t.Fatalf("expected default port 587, got %d", got)
	}
}

func TestNewLoggerModes(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("production", &buf).Infow("hello", "k", 1)
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("expected JSON output in production, got %q", buf.String())
	}

	buf.Reset()
	NewLogger("production", &buf).Debugw("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be dropped in production, got %q", buf.String())
	}

	buf.Reset()
	NewLogger("development", &buf).Debugw("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("expected debug output in development, got %q", buf.String())
	}
}

func TestLoggerUsableBeforeInit(t *testing.T) {
	if Logger() == nil {
		t.Fatalf("expected a logger before InitLogging")
	}
	Logger().Infow("no-op before init", "k", 1)
}

func TestDialectorSelectsSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "file::memory:")
	if got := dialector().Name(); got != "sqlite" {
		t.Fatalf("expected sqlite dialector, got %q", got)
	}
	t.Setenv("DB_DRIVER", "")
	if got := dialector().Name(); got != "mysql" {
		t.Fatalf("expected mysql dialector, got %q", got)
	}
}
