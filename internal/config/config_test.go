package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate cleanly: %v", err)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if cfg.Transport.MinDelay != 3*time.Second {
		t.Errorf("expected default min_delay, got %v", cfg.Transport.MinDelay)
	}
}

func TestLoadOverridesAndEnvExpansion(t *testing.T) {
	t.Setenv("HLTV_DATA_DIR", "/tmp/hltv-data")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
batch:
  overview_batch_size: 25
paths:
  data_dir: "$HLTV_DATA_DIR"
  db_path: "/tmp/hltv-data/hltv.db"
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Batch.OverviewBatchSize != 25 {
		t.Errorf("expected overview_batch_size=25, got %d", cfg.Batch.OverviewBatchSize)
	}
	if cfg.Paths.DataDir != "/tmp/hltv-data" {
		t.Errorf("expected env-expanded data dir, got %q", cfg.Paths.DataDir)
	}
	// Unset knobs should still carry their defaults.
	if cfg.Transport.MaxRetries != 5 {
		t.Errorf("expected default max_retries to survive partial override, got %d", cfg.Transport.MaxRetries)
	}
}

func TestValidateRejectsBadKnobs(t *testing.T) {
	cfg := Default()
	cfg.Transport.MaxDelay = cfg.Transport.MinDelay - time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for max_delay < min_delay")
	}
}
