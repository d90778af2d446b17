package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.RequirementsFile != "requirements.txt" {
		t.Errorf("RequirementsFile = %q, want requirements.txt", cfg.RequirementsFile)
	}
	if cfg.MaxRunPasses != 5 {
		t.Errorf("MaxRunPasses = %d, want 5", cfg.MaxRunPasses)
	}
	if cfg.Validation.Type != ValidationPytest {
		t.Errorf("Validation.Type = %q, want pytest", cfg.Validation.Type)
	}
	if cfg.GithubActionsLogging {
		t.Errorf("GithubActionsLogging = true, want false with no GITHUB_ACTIONS env")
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := []byte("max_run_passes: 9\nvalidation_config:\n  type: script\n  smoke_test_script: smoke.py\n")
	if err := os.WriteFile(filepath.Join(dir, "depagent.yaml"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir, "true")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxRunPasses != 9 {
		t.Errorf("MaxRunPasses = %d, want 9", cfg.MaxRunPasses)
	}
	if cfg.Validation.Type != ValidationScript {
		t.Errorf("Validation.Type = %q, want script", cfg.Validation.Type)
	}
	if cfg.Validation.SmokeTestScript != "smoke.py" {
		t.Errorf("SmokeTestScript = %q, want smoke.py", cfg.Validation.SmokeTestScript)
	}
	if !cfg.GithubActionsLogging {
		t.Errorf("GithubActionsLogging = false, want true when githubActionsEnv is non-empty")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("DEPAGENT_MAX_RUN_PASSES", "2")
	defer os.Unsetenv("DEPAGENT_MAX_RUN_PASSES")

	cfg, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxRunPasses != 2 {
		t.Errorf("MaxRunPasses = %d, want 2 from env override", cfg.MaxRunPasses)
	}
}
