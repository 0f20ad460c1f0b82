package main

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestSetupLogger(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	if err := setupLogger("debug"); err != nil {
		t.Fatalf("setupLogger(debug) failed: %v", err)
	}
	if log.GetLevel() != log.DebugLevel {
		t.Fatalf("expected debug level, got %s", log.GetLevel())
	}

	if err := setupLogger("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}
}

func TestLoadDotEnv_DoesNotOverrideEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "CRM_TEST_DOTENV_NEW=from-file\nCRM_TEST_DOTENV_SET=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("CRM_TEST_DOTENV_SET", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("CRM_TEST_DOTENV_NEW") })

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv failed: %v", err)
	}
	if got := os.Getenv("CRM_TEST_DOTENV_NEW"); got != "from-file" {
		t.Errorf("expected value from file, got %q", got)
	}
	if got := os.Getenv("CRM_TEST_DOTENV_SET"); got != "from-env" {
		t.Errorf("expected existing env to win, got %q", got)
	}
}

func TestLoadDotEnv_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("KEY-WITH-DASH=1\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := loadDotEnv(path); err == nil {
		t.Fatal("expected parse error")
	}
}
