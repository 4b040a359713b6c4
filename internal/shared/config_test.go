package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.API.BaseURL != "http://localhost:8080" {
		t.Errorf("unexpected base URL %q", config.API.BaseURL)
	}
	if config.API.MaxRetries != 2 {
		t.Errorf("expected 2 retries, got %d", config.API.MaxRetries)
	}
	if config.Database.Path != "screener.db" {
		t.Errorf("unexpected database path %q", config.Database.Path)
	}
	if config.Batch.UndoWindow() != 5*time.Second {
		t.Errorf("unexpected undo window %v", config.Batch.UndoWindow())
	}
	if config.Policy.DefaultIntervalSeconds != 30 {
		t.Errorf("unexpected poll interval %d", config.Policy.DefaultIntervalSeconds)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("parses a TOML file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[api]
base_url = "https://review.example.com"
timeout_seconds = 30
base_delay_ms = 100

[batch]
undo_window_seconds = 10
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.API.BaseURL != "https://review.example.com" {
			t.Errorf("unexpected base URL %q", config.API.BaseURL)
		}
		if config.API.Timeout() != 30*time.Second {
			t.Errorf("unexpected timeout %v", config.API.Timeout())
		}
		if config.API.BaseDelay() != 100*time.Millisecond {
			t.Errorf("unexpected base delay %v", config.API.BaseDelay())
		}
		if config.Batch.UndoWindow() != 10*time.Second {
			t.Errorf("unexpected undo window %v", config.Batch.UndoWindow())
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("malformed TOML fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		os.WriteFile(path, []byte("[api\nbase_url = "), 0644)
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected a parse error")
		}
	})
}

func TestDurationDefaults(t *testing.T) {
	var api APIConfig
	if api.Timeout() != 15*time.Second {
		t.Errorf("expected 15s default timeout, got %v", api.Timeout())
	}
	if api.BaseDelay() != 0 {
		t.Errorf("expected zero base delay when unset, got %v", api.BaseDelay())
	}

	var batch BatchConfig
	if batch.UndoWindow() != 5*time.Second {
		t.Errorf("expected 5s default undo window, got %v", batch.UndoWindow())
	}
	if batch.ReportInterval() != 2*time.Second {
		t.Errorf("expected 2s default report interval, got %v", batch.ReportInterval())
	}

	var policy PolicyConfig
	if policy.DefaultInterval() != 30*time.Second {
		t.Errorf("expected 30s default poll interval, got %v", policy.DefaultInterval())
	}
	policy.DefaultIntervalSeconds = 45
	if policy.DefaultInterval() != 45*time.Second {
		t.Errorf("expected 45s poll interval, got %v", policy.DefaultInterval())
	}
}

func TestCreateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("generated file must parse: %v", err)
	}
	if config.API.BaseURL == "" {
		t.Error("expected the example defaults written")
	}

	if err := CreateConfigFile(path); err == nil {
		t.Error("expected an error when the file already exists")
	}
}
