package engine

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// conflictPattern matches the installer's verbose dependency-conflict
// diagnostic and captures the offending package list.
var conflictPattern = regexp.MustCompile(`(?s)Cannot install(.+?)because`)

// AttemptResult is what Try (and, transitively, the healing controller)
// reports for one (package, candidate-version) mutation of a baseline.
type AttemptResult struct {
	OK     bool
	Result string // metrics or "Validation skipped (no change)" on success; reason on failure
	Output string // raw stderr/validator output, for diagnostics/logging
}

// AttemptEngine synthesizes a trial manifest from the pass baseline,
// installs it in a fresh environment, validates, and reports the outcome.
// It never touches the authoritative manifest; all side effects are
// confined to the environment directory the EnvironmentFactory hands back.
type AttemptEngine struct {
	Envs      EnvironmentFactory
	Installer Installer
	Validator Validator
	Oracle    Oracle // nil disables oracle-backed conflict summaries entirely
	EnvPath   string // directory the attempt engine recreates on every call

	// OracleAvailable is the run's circuit breaker; when it reports false
	// the engine never asks the oracle for an error summary. nil means
	// always available.
	OracleAvailable func() bool
}

// Try performs one attempt: install baselineLines with pkg pinned to
// version, then validate, in a freshly (re)created environment at
// e.EnvPath. anyChangedThisPass must be true if some other package already
// changed in the current pass, which disables the "skip validation, no
// change" optimisation.
func (e *AttemptEngine) Try(ctx context.Context, pkg, version string, baselineLines []string, anyChangedThisPass bool) (AttemptResult, error) {
	env, err := e.Envs.Fresh(ctx, e.EnvPath)
	if err != nil {
		return AttemptResult{}, errors.Wrap(err, "preparing attempt environment")
	}

	trialLines := SubstitutePin(baselineLines, pkg, version)
	trialPath, err := env.WriteManifest(trialLines)
	if err != nil {
		return AttemptResult{}, errors.Wrap(err, "writing trial manifest")
	}

	install, err := e.Installer.Install(ctx, env, trialPath)
	if err != nil {
		return AttemptResult{}, errors.Wrap(err, "running installer")
	}

	if !install.Ok() {
		reason := e.diagnoseInstallFailure(ctx, env, trialLines, install)
		return AttemptResult{OK: false, Result: reason, Output: install.Stderr}, nil
	}

	oldVersion, hadOld := baselineVersion(baselineLines, pkg)
	if hadOld && oldVersion == version && !anyChangedThisPass {
		return AttemptResult{OK: true, Result: "Validation skipped (no change)"}, nil
	}

	outcome, err := e.Validator.Validate(ctx, env)
	if err != nil {
		return AttemptResult{}, errors.Wrap(err, "running validator")
	}
	if !outcome.OK {
		return AttemptResult{OK: false, Result: "Validation script failed", Output: outcome.Output}, nil
	}
	return AttemptResult{OK: true, Result: outcome.Reason}, nil
}

// diagnoseInstallFailure re-invokes the installer with the trial lines
// passed explicitly (to coax a verbose conflict diagnostic), then falls
// back to an oracle summary, then to a bare "Installation conflict."
// reason.
func (e *AttemptEngine) diagnoseInstallFailure(ctx context.Context, env Env, trialLines []string, quiet InstallResult) string {
	verbose, err := e.Installer.InstallVerbose(ctx, env, trialLines)
	verboseStderr := quiet.Stderr
	if err == nil {
		verboseStderr = verbose.Stderr
	}

	if m := conflictPattern.FindStringSubmatch(verboseStderr); m != nil {
		packages := strings.Join(strings.Fields(m[1]), " ")
		packages = strings.ReplaceAll(packages, " and ", ", ")
		return "Conflict between packages: " + packages
	}

	if e.Oracle != nil && (e.OracleAvailable == nil || e.OracleAvailable()) {
		reply := e.Oracle.SummarizeError(ctx, quiet.Stderr)
		if reply.Kind == OracleSummary {
			return "Installation conflict. Summary: " + reply.Summary
		}
	}
	return "Installation conflict."
}

// baselineVersion returns the pinned version of pkg within baselineLines,
// if present.
func baselineVersion(baselineLines []string, pkg string) (version string, ok bool) {
	norm := Normalize(pkg)
	for _, l := range baselineLines {
		if LineName(l) != norm {
			continue
		}
		if v, isPin := PinVersion(l); isPin {
			return v, true
		}
	}
	return "", false
}
