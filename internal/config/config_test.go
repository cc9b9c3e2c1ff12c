package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "PROFILE_DIR", "TUNING_FILE", "SESSION_TTL_MINUTES", "RECOMMENDATION_COOLDOWN_SECONDS"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DatabaseURL != "" || cfg.ProfileDir != "" || cfg.TuningFile != "" {
		t.Errorf("unexpected optional values: %+v", cfg)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, want %v", cfg.SessionTTL, time.Hour)
	}
	if cfg.RecommendationCooldown != 5*time.Minute {
		t.Errorf("RecommendationCooldown = %v, want %v", cfg.RecommendationCooldown, 5*time.Minute)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("DATABASE_URL", "postgres://localhost/flicktrainer")
	t.Setenv("PROFILE_DIR", "/var/lib/flicktrainer")
	t.Setenv("TUNING_FILE", "tuning.yaml")
	t.Setenv("SESSION_TTL_MINUTES", "15")
	t.Setenv("RECOMMENDATION_COOLDOWN_SECONDS", "30")

	cfg := Load()

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "3000")
	}
	if cfg.DatabaseURL != "postgres://localhost/flicktrainer" {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, "postgres://localhost/flicktrainer")
	}
	if cfg.ProfileDir != "/var/lib/flicktrainer" || cfg.TuningFile != "tuning.yaml" {
		t.Errorf("paths = %q %q", cfg.ProfileDir, cfg.TuningFile)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Errorf("SessionTTL = %v, want 15m", cfg.SessionTTL)
	}
	if cfg.RecommendationCooldown != 30*time.Second {
		t.Errorf("RecommendationCooldown = %v, want 30s", cfg.RecommendationCooldown)
	}
}

func TestLoad_InvalidDurations(t *testing.T) {
	t.Setenv("SESSION_TTL_MINUTES", "abc")
	t.Setenv("RECOMMENDATION_COOLDOWN_SECONDS", "-5")

	cfg := Load()

	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, want %v (fallback)", cfg.SessionTTL, time.Hour)
	}
	if cfg.RecommendationCooldown != 5*time.Minute {
		t.Errorf("RecommendationCooldown = %v, want %v (fallback)", cfg.RecommendationCooldown, 5*time.Minute)
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing tuning file: %v", err)
	}
	return path
}

func TestLoadTuning_EmptyPath(t *testing.T) {
	tn, err := LoadTuning("")
	if err != nil {
		t.Fatalf("LoadTuning(\"\") error: %v", err)
	}
	if tn != DefaultTuning() {
		t.Errorf("LoadTuning(\"\") = %+v, want defaults", tn)
	}
}

func TestLoadTuning_PartialOverride(t *testing.T) {
	path := writeFile(t, `
analysis:
  gap_threshold: 20
  smoothing_factor: 0.3
recommend:
  max_gap_shift: 6
  target_size:
    at_easy: 1.2
    at_hard: 0.8
    min: 0.6
    max: 1.4
`)
	tn, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning() error: %v", err)
	}
	if tn.Analysis.GapThreshold != 20 || tn.Analysis.SmoothingFactor != 0.3 {
		t.Errorf("analysis = %+v", tn.Analysis)
	}
	if tn.Analysis.StabilityWindow != 10 {
		t.Errorf("StabilityWindow = %d, want default 10", tn.Analysis.StabilityWindow)
	}
	if tn.Recommend.MaxGapShift != 6 || tn.Recommend.TargetSize.Min != 0.6 {
		t.Errorf("recommend = %+v", tn.Recommend)
	}
	if tn.Recommend.SpawnRate.AtHard != 1.5 {
		t.Errorf("SpawnRate.AtHard = %v, want default 1.5", tn.Recommend.SpawnRate.AtHard)
	}
}

func TestLoadTuning_Invalid(t *testing.T) {
	path := writeFile(t, "analysis:\n  smoothing_factor: 2\n")
	if _, err := LoadTuning(path); err == nil || !strings.Contains(err.Error(), "smoothing_factor") {
		t.Errorf("LoadTuning() error = %v, want smoothing_factor validation error", err)
	}

	path = writeFile(t, "analysis:\n  smoothing: 0.3\n")
	if _, err := LoadTuning(path); err == nil {
		t.Error("LoadTuning() should reject unknown keys")
	}

	if _, err := LoadTuning(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadTuning() should fail for a missing file")
	}
}
