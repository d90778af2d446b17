// Package validator implements engine.Validator against the three
// VALIDATION_CONFIG shapes spec.md §6 enumerates, with the exact
// smoke-test/pytest-threshold semantics SPEC_FULL.md §3 (Supplemented
// Features) and §7 describe: a direct Go port of the Python prototype's
// agent_utils.py validate_changes/_run_smoke_test/_run_pytest_suite
// dispatcher. Every subprocess invocation goes through
// internal/procrun.Monitored so a hung validator degrades to a timeout
// failure rather than hanging the run, per spec.md §5.
package validator

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Bhargavvvv2912/depagent/internal/config"
	"github.com/Bhargavvvv2912/depagent/internal/engine"
	"github.com/Bhargavvvv2912/depagent/internal/environment"
	"github.com/Bhargavvvv2912/depagent/internal/procrun"
)

// Validator drives a configured VALIDATION_CONFIG against an environment.
type Validator struct {
	Config      config.ValidationConfig
	Threshold   int
	IdleTimeout time.Duration
}

// New returns a Validator for the given validation config and acceptable
// pytest failure threshold.
func New(cfg config.ValidationConfig, threshold int) *Validator {
	return &Validator{Config: cfg, Threshold: threshold}
}

// Validate implements engine.Validator.
func (v *Validator) Validate(ctx context.Context, env engine.Env) (engine.ValidationOutcome, error) {
	python := filepath.Join(env.Path(), environment.BinDir, "python")

	switch v.Config.Type {
	case config.ValidationScript:
		ok, reason, output, err := v.runSmokeTest(ctx, python)
		return engine.ValidationOutcome{OK: ok, Reason: reason, Output: output}, err

	case config.ValidationSmokeThenPytest:
		smokeOK, smokeReason, smokeOutput, err := v.runSmokeTest(ctx, python)
		if err != nil {
			return engine.ValidationOutcome{}, err
		}
		if !smokeOK {
			return engine.ValidationOutcome{OK: false, Reason: smokeReason, Output: smokeOutput}, nil
		}

		_, pytestMetrics, pytestOutput, err := v.runPytestSuite(ctx, python)
		if err != nil {
			return engine.ValidationOutcome{}, err
		}
		return engine.ValidationOutcome{
			OK:     true,
			Reason: smokeReason + "\n\n" + pytestMetrics,
			Output: smokeOutput + "\n\n" + pytestOutput,
		}, nil

	case config.ValidationPytest:
		ok, reason, output, err := v.runPytestSuite(ctx, python)
		return engine.ValidationOutcome{OK: ok, Reason: reason, Output: output}, err

	default:
		return engine.ValidationOutcome{OK: false, Reason: "No validation configured."}, nil
	}
}

func (v *Validator) runSmokeTest(ctx context.Context, python string) (ok bool, reason, output string, err error) {
	if v.Config.SmokeTestScript == "" {
		return false, "Smoke test failed: 'smoke_test_script' not defined in config.", "", nil
	}

	scriptPath, absErr := filepath.Abs(v.Config.SmokeTestScript)
	if absErr != nil {
		scriptPath = v.Config.SmokeTestScript
	}

	res, runErr := procrun.Run(ctx, v.IdleTimeout, python, scriptPath)
	if runErr != nil {
		return false, "", "", runErr
	}

	full := res.Stdout + res.Stderr
	if res.ExitCode != 0 {
		return false, fmt.Sprintf("Smoke test failed with exit code %d", res.ExitCode), full, nil
	}

	if m := smokeMetricsPattern.FindStringSubmatch(res.Stdout); m != nil {
		return true, m[1], full, nil
	}
	return true, "Smoke test passed.", full, nil
}

var smokeMetricsPattern = regexp.MustCompile(`Smoke Test: (.+)`)

func (v *Validator) runPytestSuite(ctx context.Context, python string) (ok bool, reason, output string, err error) {
	if v.Config.PytestTarget == "" {
		return false, "Pytest failed: 'pytest_target' not defined in config.", "", nil
	}

	args := []string{"-m", "pytest", v.Config.PytestTarget}
	res, runErr := procrunInDir(ctx, v.IdleTimeout, v.Config.ProjectDir, python, args...)
	if runErr != nil {
		return false, "", "", runErr
	}

	full := res.Stdout + res.Stderr
	if res.ExitCode > 1 {
		return false, fmt.Sprintf("Critical pytest error (exit code %d)", res.ExitCode), full, nil
	}

	summary := parsePytestSummary(full)
	totalFailures := summary.Failed + summary.Errors
	if totalFailures > v.Threshold {
		reason = fmt.Sprintf("%d real failures/errors, which exceeds the threshold of %d.", totalFailures, v.Threshold)
		return false, reason, full, nil
	}

	metrics := fmt.Sprintf(
		"Pytest Run Summary:\n"+
			"- Passed: %d\n"+
			"- Failed: %d (Threshold: %d)\n"+
			"- Errors: %d\n"+
			"- Skipped: %d\n"+
			"- Expected Failures (xfail): %d\n"+
			"- Unexpected Passes (xpass): %d",
		summary.Passed, summary.Failed, v.Threshold, summary.Errors,
		summary.Skipped, summary.XFailed, summary.XPassed,
	)
	return true, metrics, full, nil
}

// procrunInDir runs python with args in dir (or the current directory if
// dir is empty), the Go analogue of run_command(..., cwd=project_dir).
func procrunInDir(ctx context.Context, idleTimeout time.Duration, dir, python string, args ...string) (procrun.Result, error) {
	cmd := exec.CommandContext(ctx, python, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	return procrun.New(ctx, cmd, idleTimeout).Run()
}

// pytestSummary is the parsed form of pytest's trailing "=== N passed, M
// failed ===" summary line.
type pytestSummary struct {
	Passed, Failed, Errors, Skipped, XFailed, XPassed int
}

var summaryLinePattern = regexp.MustCompile(`(\d+)\s+(passed|failed|skipped|xfailed|xpassed|errors)`)

// parsePytestSummary finds the last line in output that looks like
// pytest's rich summary and extracts each named count, mirroring
// agent_utils.py's _parse_pytest_summary exactly (including its forgiving
// "default everything to zero" behavior when no summary line is found).
func parsePytestSummary(output string) pytestSummary {
	var summary pytestSummary

	lines := strings.Split(output, "\n")
	var summaryLine string
	for i := len(lines) - 1; i >= 0; i-- {
		l := lines[i]
		if strings.Contains(l, "=") && (strings.Contains(l, "passed") || strings.Contains(l, "failed") || strings.Contains(l, "skipped")) {
			summaryLine = l
			break
		}
	}
	if summaryLine == "" {
		return summary
	}

	for _, m := range summaryLinePattern.FindAllStringSubmatch(summaryLine, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch m[2] {
		case "passed":
			summary.Passed = n
		case "failed":
			summary.Failed = n
		case "errors":
			summary.Errors = n
		case "skipped":
			summary.Skipped = n
		case "xfailed":
			summary.XFailed = n
		case "xpassed":
			summary.XPassed = n
		}
	}
	return summary
}
