package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "API_BASE_URL", "PAGE_DELAY_MS", "CACHE_TTL_MINUTES", "TABLE_BATCH_SIZE", "CONFIG_FILE", "DATABASE_URL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "5007" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.APIBaseURL != "https://data.snappdown.com" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.PageDelay != time.Second {
		t.Errorf("PageDelay = %v", cfg.PageDelay)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.TableBatchSize != 100 {
		t.Errorf("TableBatchSize = %d", cfg.TableBatchSize)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "8080")
	t.Setenv("PAGE_DELAY_MS", "0")
	t.Setenv("TABLE_BATCH_SIZE", "abc")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.PageDelay != 0 {
		t.Errorf("PageDelay = %v", cfg.PageDelay)
	}
	if cfg.TableBatchSize != 100 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.TableBatchSize)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: \"9000\"\napi_base_url: http://127.0.0.1:1234\ntable_batch_size: 20\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{Port: "5007", Env: "development", TableBatchSize: 100}
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Port != "9000" || cfg.APIBaseURL != "http://127.0.0.1:1234" || cfg.TableBatchSize != 20 {
		t.Errorf("overlay not applied: %+v", cfg)
	}
	if cfg.Env != "development" {
		t.Errorf("missing key should keep old value, Env = %q", cfg.Env)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg := &Config{}
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
