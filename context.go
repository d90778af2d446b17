// This file holds RunContext, the agent's supporting context: the
// external collaborators wired up for a run, plus the oracle
// availability latch. It is the direct analogue of golang-dep's
// context.go Ctx — "the supporting context of the tool" — generalized
// from a GOPATH lookup to the set of engine.Registry/Installer/
// Validator/Oracle/EnvironmentFactory collaborators this spec names.
package depagent

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Bhargavvvv2912/depagent/internal/config"
	"github.com/Bhargavvvv2912/depagent/internal/engine"
	"github.com/Bhargavvvv2912/depagent/internal/environment"
	"github.com/Bhargavvvv2912/depagent/internal/fsutil"
	"github.com/Bhargavvvv2912/depagent/internal/scanner"
)

// RunContext owns every external collaborator the engine package depends
// on as an interface, plus the working-directory layout and the oracle
// circuit breaker. Per §9 Design Notes ("model as an owned field of the
// run context, not a process-wide mutable"), OracleAvailable/
// LatchOracleUnavailable are RunContext methods, not package-level state.
type RunContext struct {
	Config config.Config

	Registry  engine.Registry
	Installer engine.Installer
	Validator engine.Validator
	Oracle    engine.Oracle // nil disables healing's Stage 1 entirely
	Envs      engine.EnvironmentFactory

	// WorkDir houses every transient directory/file the run creates:
	// attempt/bootstrap/commit/health-check environments and the
	// per-pass baseline snapshot. It is this agent's single well-known
	// temporary subdirectory (§9: "Filesystem as mutable global").
	WorkDir string

	// Primary is the normalized set of direct-dependency names loaded
	// from PRIMARY_REQUIREMENTS_FILE.
	Primary map[string]bool

	// ManifestPath is the authoritative manifest file. When set, each
	// pass's baseline snapshot is a copy of this file and every committed
	// baseline is written back to it, keeping the on-disk manifest equal
	// to the current baseline between passes. Empty disables both (the
	// baseline then lives purely in memory, which tests rely on).
	ManifestPath string

	oracleAvailable bool
}

// NewRunContext wires collaborators into a RunContext. envs/registry/
// installer/validator/oracle may be swapped by callers (tests, the CLI's
// production wiring); passing a nil oracle is explicitly supported (it
// simply disables healing's Stage 1).
func NewRunContext(cfg config.Config, workDir string, envs engine.EnvironmentFactory, registry engine.Registry, installer engine.Installer, validator engine.Validator, oracle engine.Oracle) *RunContext {
	return &RunContext{
		Config:          cfg,
		Registry:        registry,
		Installer:       installer,
		Validator:       validator,
		Oracle:          oracle,
		Envs:            envs,
		WorkDir:         workDir,
		Primary:         map[string]bool{},
		oracleAvailable: oracle != nil,
	}
}

// OracleAvailable reports whether the oracle circuit breaker is still
// closed. Once latched unavailable it never reopens within a run.
func (c *RunContext) OracleAvailable() bool { return c.oracleAvailable }

// LatchOracleUnavailable opens the oracle circuit breaker permanently for
// the remainder of the run (spec.md §5: "latched... from then on oracle
// calls return empty without I/O").
func (c *RunContext) LatchOracleUnavailable() { c.oracleAvailable = false }

func (c *RunContext) path(name string) string {
	return filepath.Join(c.WorkDir, name)
}

// BootstrapEnvPath, AttemptEnvPath, CommitEnvPath, and HealthEnvPath are
// the fixed, well-known environment directories this agent owns
// exclusively, matching the Python prototype's bootstrap_venv/temp_venv/
// final_venv naming.
func (c *RunContext) BootstrapEnvPath() string { return c.path("bootstrap_venv") }
func (c *RunContext) AttemptEnvPath() string   { return c.path("attempt_venv") }
func (c *RunContext) CommitEnvPath() string    { return c.path("temp_venv") }
func (c *RunContext) HealthEnvPath() string    { return c.path("final_venv") }

// PassBaselineSnapshotPath is the per-pass baseline snapshot file spec.md
// §3 describes; it is created at pass entry and deleted at pass exit.
func (c *RunContext) PassBaselineSnapshotPath(passNum int) string {
	return filepath.Join(c.WorkDir, filepath.Base(passBaselineName(passNum)))
}

func passBaselineName(passNum int) string {
	return "pass_" + strconv.Itoa(passNum) + "_baseline_reqs.txt"
}

// SnapshotPass implements engine.SnapshotPassFunc: it copies the
// authoritative manifest aside as the pass's immutable baseline snapshot
// (falling back to writing baselineLines directly when no manifest path is
// set) and returns the cleanup that deletes the snapshot at pass exit.
func (c *RunContext) SnapshotPass(pass int, baselineLines []string) (func(), error) {
	snap := c.PassBaselineSnapshotPath(pass)
	if c.ManifestPath != "" {
		if err := fsutil.SnapshotFile(c.ManifestPath, snap); err != nil {
			return nil, err
		}
	} else if err := fsutil.WriteManifest(snap, baselineLines); err != nil {
		return nil, err
	}
	return func() { os.Remove(snap) }, nil
}

// PersistBaseline implements engine.PersistBaselineFunc: an atomic write of
// a freshly committed baseline back to the authoritative manifest.
func (c *RunContext) PersistBaseline(lines []string) error {
	if c.ManifestPath == "" {
		return nil
	}
	return fsutil.WriteManifest(c.ManifestPath, lines)
}

// Plan implements engine.PlanFunc: it re-derives usage counts from the
// configured project directory on every call (cheap relative to a pass,
// and it means a file touched mid-run is picked up by the next pass),
// looks up each pinned package's latest release, and hands the engine
// package's risk scorer the result via engine.BuildPlan.
func (c *RunContext) Plan(ctx context.Context, baselineLines []string) (engine.PassPlan, error) {
	usage, err := scanner.Count(c.Config.ProjectDir)
	if err != nil {
		usage = map[string]int{}
	}

	var pkgs []engine.Package
	for _, line := range baselineLines {
		if engine.IsEditable(line) {
			continue
		}
		version, ok := engine.PinVersion(line)
		if !ok {
			continue
		}
		name := engine.LineName(line)
		latest, hasLatest := c.Registry.Latest(ctx, name)
		pkgs = append(pkgs, engine.Package{
			Name:      name,
			Current:   engine.ParseVersion(version),
			Latest:    latest,
			HasLatest: hasLatest,
			Usage:     usage[name],
			Primary:   c.Primary[name],
		})
	}
	return engine.BuildPlan(pkgs), nil
}

// Commit implements engine.CommitFunc: a single fresh install+freeze of
// the combined (every accepted upgrade applied) manifest, spec.md §4.H
// step 6.
func (c *RunContext) Commit(ctx context.Context, combinedLines []string) ([]string, bool, error) {
	env, err := c.Envs.Fresh(ctx, c.CommitEnvPath())
	if err != nil {
		return nil, false, err
	}
	path, err := env.WriteManifest(combinedLines)
	if err != nil {
		return nil, false, err
	}
	install, err := c.Installer.Install(ctx, env, path)
	if err != nil {
		return nil, false, err
	}
	if !install.Ok() {
		return nil, false, nil
	}
	raw, err := c.Installer.Freeze(ctx, env)
	if err != nil {
		return nil, false, err
	}
	return engine.PruneFreezeOutput(raw), true, nil
}

// HealthCheck implements engine.HealthCheckFunc: a fresh install and
// validate of manifestLines, writing METRICS_OUTPUT_FILE on success
// (unless the validator reports metrics as "not available", per spec.md
// §6). This same method backs both the entry health check and the final
// one the run loop runs on completion.
func (c *RunContext) HealthCheck(ctx context.Context, manifestLines []string) (engine.ValidationOutcome, error) {
	env, err := c.Envs.Fresh(ctx, c.HealthEnvPath())
	if err != nil {
		return engine.ValidationOutcome{}, err
	}
	path, err := env.WriteManifest(manifestLines)
	if err != nil {
		return engine.ValidationOutcome{}, err
	}
	install, err := c.Installer.Install(ctx, env, path)
	if err != nil {
		return engine.ValidationOutcome{}, err
	}
	if !install.Ok() {
		return engine.ValidationOutcome{OK: false, Reason: "install failed", Output: install.Stderr}, nil
	}

	outcome, err := c.Validator.Validate(ctx, env)
	if err != nil {
		return engine.ValidationOutcome{}, err
	}

	if outcome.OK && c.Config.MetricsOutputFile != "" && !strings.Contains(outcome.Reason, "not available") {
		_ = os.WriteFile(c.Config.MetricsOutputFile, []byte(outcome.Reason), 0o644)
	}
	return outcome, nil
}

// NewAttemptEngine builds the attempt engine over c's collaborators.
func (c *RunContext) NewAttemptEngine() *engine.AttemptEngine {
	return &engine.AttemptEngine{
		Envs:            c.Envs,
		Installer:       c.Installer,
		Validator:       c.Validator,
		Oracle:          c.Oracle,
		EnvPath:         c.AttemptEnvPath(),
		OracleAvailable: c.OracleAvailable,
	}
}

// NewHealer builds the healing controller over c's collaborators and
// oracle circuit breaker, driving attempt through try.
func (c *RunContext) NewHealer(try engine.HealAttempt) *engine.Healer {
	return &engine.Healer{
		Try:              try,
		Oracle:           c.Oracle,
		Registry:         c.Registry,
		MaxOracleTries:   c.Config.MaxLLMBacktrackAttempts,
		OracleAvailable:  c.OracleAvailable,
		LatchUnavailable: c.LatchOracleUnavailable,
	}
}

// NewRunLoop assembles the full run loop (pass orchestrator, healer,
// attempt engine, plan/commit/health-check functions) over c.
func (c *RunContext) NewRunLoop() *engine.RunLoop {
	attempt := c.NewAttemptEngine()
	healer := c.NewHealer(attempt.Try)

	orchestrator := &engine.PassOrchestrator{
		Attempt: *attempt,
		Heal:    *healer,
		Commit:  c.Commit,
	}

	return &engine.RunLoop{
		Orchestrator:    orchestrator,
		Plan:            c.Plan,
		HealthCheck:     c.HealthCheck,
		SnapshotPass:    c.SnapshotPass,
		PersistBaseline: c.PersistBaseline,
		MaxPasses:       c.Config.MaxRunPasses,
	}
}

// EnsureWorkDir creates the working directory if it doesn't already
// exist.
func (c *RunContext) EnsureWorkDir() error {
	return os.MkdirAll(c.WorkDir, 0o755)
}

// NewEnvironmentFactory returns the default engine.EnvironmentFactory.
func NewEnvironmentFactory() engine.EnvironmentFactory {
	return environment.Factory{}
}
