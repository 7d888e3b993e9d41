package internal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/apperr"
)

func TestSourceConfig_EmptyModeDefaultsDrive(t *testing.T) {
	cfg := SourceConfig{Drive: DriveConfig{FolderID: "folder123"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to drive: %v", err)
	}
	if cfg.Mode != SourceModeDrive {
		t.Errorf("mode = %q, want %q", cfg.Mode, SourceModeDrive)
	}
}

func TestSourceConfig_InvalidMode(t *testing.T) {
	cfg := SourceConfig{Mode: "ftp"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestSourceConfig_LocalRequiresPath(t *testing.T) {
	cfg := SourceConfig{Mode: SourceModeLocal}
	if err := cfg.Validate(); err == nil {
		t.Fatal("local mode without path should fail")
	}
}

func TestDriveConfig_MissingFolderID(t *testing.T) {
	cfg := DriveConfig{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("missing folder_id should fail")
	}
	if !strings.Contains(err.Error(), "DRIVE_FOLDER_ID") {
		t.Errorf("error should name the env var, got: %v", err)
	}
}

func TestDriveConfig_ExclusiveCredentials(t *testing.T) {
	cfg := DriveConfig{FolderID: "f", CredentialsFile: "sa.json", CredentialsJSON: "{}"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("both credential fields should fail")
	}
	if !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestModelConfig_MissingAPIKey(t *testing.T) {
	cfg := ModelConfig{Name: "gemini-1.5-flash", BaseURL: "https://example.com", Timeout: Duration(time.Minute)}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("missing api_key should fail")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("error should name the env var, got: %v", err)
	}
}

func TestKnowledgeConfig_NonPositiveInterval(t *testing.T) {
	cfg := KnowledgeConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero refresh_interval should fail")
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("10m")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if d.Std() != 10*time.Minute {
		t.Errorf("duration = %v, want %v", d.Std(), 10*time.Minute)
	}
	if err := d.UnmarshalText([]byte("not-a-duration")); err == nil {
		t.Error("garbage duration should fail")
	}
}

func TestLoadConfig_EnvOnly(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("DRIVE_FOLDER_ID", "folder123")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig with env only: %v", err)
	}
	if cfg.Model.APIKey != "test-key" {
		t.Errorf("api key = %q, want %q", cfg.Model.APIKey, "test-key")
	}
	if cfg.Source.Drive.FolderID != "folder123" {
		t.Errorf("folder id = %q, want %q", cfg.Source.Drive.FolderID, "folder123")
	}
	if cfg.App.HTTP.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.App.HTTP.Port)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("DRIVE_FOLDER_ID", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")

	yaml := `
app:
  http:
    port: 9090
source:
  mode: local
  local:
    path: ./testdata
knowledge:
  refresh_interval: 5m
model:
  name: gemini-1.5-pro
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.App.HTTP.Port)
	}
	if cfg.Source.Mode != SourceModeLocal {
		t.Errorf("mode = %q, want %q", cfg.Source.Mode, SourceModeLocal)
	}
	if cfg.Knowledge.RefreshInterval.Std() != 5*time.Minute {
		t.Errorf("refresh_interval = %v, want 5m", cfg.Knowledge.RefreshInterval.Std())
	}
	if cfg.Model.Name != "gemini-1.5-pro" {
		t.Errorf("model name = %q, want gemini-1.5-pro", cfg.Model.Name)
	}
	if cfg.Model.APIKey != "env-key" {
		t.Errorf("api key = %q, want env-key", cfg.Model.APIKey)
	}
}

func TestLoadConfig_MissingKeyFails(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("DRIVE_FOLDER_ID", "folder123")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("missing api key should fail")
	}
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("error should wrap ErrConfiguration, got: %v", err)
	}
}
