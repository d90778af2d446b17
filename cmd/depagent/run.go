package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Bhargavvvv2912/depagent"
	"github.com/Bhargavvvv2912/depagent/internal/alog"
	"github.com/Bhargavvvv2912/depagent/internal/config"
	"github.com/Bhargavvvv2912/depagent/internal/engine"
	"github.com/Bhargavvvv2912/depagent/internal/installer"
	"github.com/Bhargavvvv2912/depagent/internal/oracleclient"
	"github.com/Bhargavvvv2912/depagent/internal/registrycache"
	"github.com/Bhargavvvv2912/depagent/internal/registryclient"
	"github.com/Bhargavvvv2912/depagent/internal/validator"
)

const runShortHelp = `Bootstrap (if needed) and run the dependency-update agent`
const runLongHelp = `
Reads the configured requirements file, bootstraps a fully pinned baseline
if it isn't already pinned, then runs up to max_run_passes risk-ordered
upgrade passes, healing failed attempts by backtracking, and writes a
final summary.
`

type runCommand struct {
	dir string
}

func (cmd *runCommand) Name() string      { return "run" }
func (cmd *runCommand) Args() string      { return "" }
func (cmd *runCommand) ShortHelp() string { return runShortHelp }
func (cmd *runCommand) LongHelp() string  { return runLongHelp }

func (cmd *runCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.dir, "dir", ".", "project directory containing depagent's config file")
}

func (cmd *runCommand) Run(args []string) error {
	ctx := context.Background()
	log := alog.New(os.Stderr)
	log.SetVerbose(*verbose)

	cfg, err := config.Load(cmd.dir, os.Getenv("GITHUB_ACTIONS"))
	if err != nil {
		return err
	}

	reqPath := filepath.Join(cmd.dir, cfg.RequirementsFile)
	if _, statErr := os.Stat(reqPath); statErr != nil {
		return depagent.ErrRequirementsFileMissing
	}
	log.Vlogf("using %s, up to %d pass(es)\n", reqPath, cfg.MaxRunPasses)

	rc, err := newRunContext(cfg, cmd.dir)
	if err != nil {
		return err
	}
	defer rc.Close()
	rc.ManifestPath = reqPath

	f, err := os.Open(reqPath)
	if err != nil {
		return err
	}
	manifest, err := depagent.ReadManifest(f)
	f.Close()
	if err != nil {
		return err
	}

	primaryPath := filepath.Join(cmd.dir, cfg.PrimaryRequirementsFile)
	if pf, openErr := os.Open(primaryPath); openErr == nil {
		primary, loadErr := depagent.LoadPrimaryPackages(pf)
		pf.Close()
		if loadErr == nil {
			rc.Primary = primary
		}
	}

	baseline := manifest.Lines
	if !manifest.IsFullyPinned() {
		log.LogAgentfln("manifest is not fully pinned; bootstrapping")
		bootstrap := &engine.Bootstrap{
			Envs:      rc.Envs,
			Installer: rc.Installer,
			Validator: rc.Validator,
			EnvPath:   rc.BootstrapEnvPath(),
		}
		result, bootstrapErr := bootstrap.Run(ctx, manifest.Lines)
		if bootstrapErr != nil {
			return depagent.WrapFatal(depagent.ErrBootstrapFailed, "bootstrapping baseline", bootstrapErr)
		}
		baseline = result.FrozenLines
		if writeErr := (depagent.Manifest{Lines: baseline}).Write(reqPath); writeErr != nil {
			return writeErr
		}
		if cfg.MetricsOutputFile != "" && !strings.Contains(result.Metrics, "not available") {
			_ = os.WriteFile(cfg.MetricsOutputFile, []byte(result.Metrics), 0o644)
		}
		if !(depagent.Manifest{Lines: baseline}).IsFullyPinned() {
			return depagent.ErrNotFullyPinned
		}
	}

	loop := rc.NewRunLoop()
	result, err := loop.Run(ctx, baseline)
	if err != nil {
		return err
	}

	if writeErr := (depagent.Manifest{Lines: result.FinalLines}).Write(reqPath); writeErr != nil {
		return writeErr
	}

	printSummary(log, result)
	return nil
}

func printSummary(log *alog.Logger, result engine.RunResult) {
	end := alog.Group(log, "depagent summary")
	defer end()

	log.LogAgentfln("ran %d pass(es)", result.PassesExecuted)
	for pkg, s := range result.Record.Successful {
		log.Logf("  %s: %s -> %s\n", pkg, s.Target, s.Accepted)
	}
	for pkg, f := range result.Record.Failed {
		log.Logf("  %s: failed to reach %s (%s)\n", pkg, f.Target, f.Reason)
	}
	if !result.FinalHealth.OK {
		log.LogAgentfln("final health check failed: %s", result.FinalHealth.Reason)
	}
}

// newRunContext wires depagent.RunContext's collaborators for live use:
// the pip installer, the configured validator, a PyPI registry client
// (optionally bolt-cached), and an oracle client if an endpoint is
// configured.
func newRunContext(cfg config.Config, dir string) (*liveRunContext, error) {
	workDir := filepath.Join(dir, ".depagent")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, err
	}

	var oracle engine.Oracle
	if cfg.OracleEndpoint != "" {
		oracle = oracleclient.New(cfg.OracleEndpoint, cfg.OracleAPIKey)
	}

	client := registryclient.New()
	if cfg.RegistryIndexURL != "" {
		client.IndexURL = cfg.RegistryIndexURL
	}
	registry := engine.Registry(client)
	var cache *registrycache.Cache
	cachePath := filepath.Join(workDir, "registry-cache.db")
	if c, err := registrycache.Open(cachePath, registry, time.Now().Unix()); err == nil {
		cache = c
		registry = c
	}

	v := validator.New(cfg.Validation, cfg.AcceptableFailureThreshold)

	rc := depagent.NewRunContext(cfg, workDir, depagent.NewEnvironmentFactory(), registry, installer.New(), v, oracle)
	if err := rc.EnsureWorkDir(); err != nil {
		return nil, err
	}
	return &liveRunContext{RunContext: rc, cache: cache}, nil
}

type liveRunContext struct {
	*depagent.RunContext
	cache *registrycache.Cache
}

func (l *liveRunContext) Close() error {
	if l.cache != nil {
		return l.cache.Close()
	}
	return nil
}
