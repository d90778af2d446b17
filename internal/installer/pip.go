// Package installer implements engine.Installer against a pip-managed
// Python virtual environment, the direct Go port of the Python
// prototype's repeated `venv.create(...)` + `pip install` / `pip freeze`
// subprocess dance in agent_logic.py. It is the one external collaborator
// spec.md §1 names as deliberately out of core scope ("the package
// installer subprocess... resolves and installs a manifest... reports
// conflicts textually"); this is simply a default, concrete realization
// of the engine.Installer interface so the CLI has something real to run
// against.
package installer

import (
	"context"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/Bhargavvvv2912/depagent/internal/engine"
	"github.com/Bhargavvvv2912/depagent/internal/environment"
	"github.com/Bhargavvvv2912/depagent/internal/procrun"
)

// Pip is the default engine.Installer: a pip-driven virtual environment
// per attempt.
type Pip struct {
	// BasePython is the interpreter used to create a fresh venv; "python3"
	// if unset.
	BasePython string

	IdleTimeout time.Duration
}

// New returns a Pip installer using python3 to create venvs.
func New() *Pip {
	return &Pip{BasePython: "python3"}
}

func (p *Pip) basePython() string {
	if p.BasePython != "" {
		return p.BasePython
	}
	return "python3"
}

func (p *Pip) pythonPath(env engine.Env) string {
	return filepath.Join(env.Path(), environment.BinDir, "python")
}

// ensureVenv creates a virtual environment at env.Path() if one doesn't
// already exist there. environment.Factory.Fresh only guarantees the
// directory (and its bin/ subdirectory) exists; the venv itself is this
// package's job, since "environment factory" (core, spec.md §4.C) and
// "installer" (external, §1) are deliberately separate collaborators.
func (p *Pip) ensureVenv(ctx context.Context, env engine.Env) error {
	python := p.pythonPath(env)
	if _, err := exec.LookPath(python); err == nil {
		return nil
	}

	cmd := exec.CommandContext(ctx, p.basePython(), "-m", "venv", env.Path())
	res, err := procrun.New(ctx, cmd, p.IdleTimeout).Run()
	if err != nil {
		return errors.Wrap(err, "creating virtual environment")
	}
	if res.ExitCode != 0 {
		return errors.Errorf("venv creation failed: %s", res.Stderr)
	}
	return nil
}

// Install implements engine.Installer: quiet `pip install -r manifestPath`.
func (p *Pip) Install(ctx context.Context, env engine.Env, manifestPath string) (engine.InstallResult, error) {
	if err := p.ensureVenv(ctx, env); err != nil {
		return engine.InstallResult{}, err
	}

	cmd := exec.CommandContext(ctx, p.pythonPath(env), "-m", "pip", "install", "-r", manifestPath)
	res, err := procrun.New(ctx, cmd, p.IdleTimeout).Run()
	if err != nil {
		return engine.InstallResult{}, errors.Wrap(err, "running pip install")
	}
	return engine.InstallResult{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}, nil
}

// InstallVerbose implements engine.Installer: the same install, but with
// every manifest line passed as an explicit CLI argument instead of
// `-r <file>`, to coax pip's verbose dependency-resolver conflict
// diagnostic out (SPEC_FULL.md §3, Supplemented Feature 2).
func (p *Pip) InstallVerbose(ctx context.Context, env engine.Env, lines []string) (engine.InstallResult, error) {
	if err := p.ensureVenv(ctx, env); err != nil {
		return engine.InstallResult{}, err
	}

	args := append([]string{"-m", "pip", "install"}, lines...)
	cmd := exec.CommandContext(ctx, p.pythonPath(env), args...)
	res, err := procrun.New(ctx, cmd, p.IdleTimeout).Run()
	if err != nil {
		return engine.InstallResult{}, errors.Wrap(err, "running verbose pip install")
	}
	return engine.InstallResult{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}, nil
}

// Freeze implements engine.Installer: `pip freeze` raw output, ready for
// engine.PruneFreezeOutput.
func (p *Pip) Freeze(ctx context.Context, env engine.Env) (string, error) {
	cmd := exec.CommandContext(ctx, p.pythonPath(env), "-m", "pip", "freeze")
	res, err := procrun.New(ctx, cmd, p.IdleTimeout).Run()
	if err != nil {
		return "", errors.Wrap(err, "running pip freeze")
	}
	if res.ExitCode != 0 {
		return "", errors.Errorf("pip freeze failed: %s", res.Stderr)
	}
	return res.Stdout, nil
}
