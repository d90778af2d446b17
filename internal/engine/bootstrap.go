package engine

import "context"

// BootstrapResult is what Bootstrap reports: the frozen, fully pinned
// manifest lines to persist as the starting baseline, or an error when the
// initial install or validation failed (spec.md §4.I: "a bootstrap failure
// is fatal").
type BootstrapResult struct {
	FrozenLines []string
	Metrics     string
}

// Bootstrap installs an unpinned (or partially pinned) manifest verbatim,
// validates it, and freezes the result. It exists because the risk-ordered
// upgrade cycle has nothing to mutate until a fully pinned baseline exists.
type Bootstrap struct {
	Envs      EnvironmentFactory
	Installer Installer
	Validator Validator
	EnvPath   string
}

// Run installs manifestLines as-is in a fresh environment, validates, and
// freezes. Any failure here is fatal to the run (the caller should wrap the
// returned error with ErrBootstrapFailed and abort).
func (b *Bootstrap) Run(ctx context.Context, manifestLines []string) (BootstrapResult, error) {
	env, err := b.Envs.Fresh(ctx, b.EnvPath)
	if err != nil {
		return BootstrapResult{}, err
	}

	path, err := env.WriteManifest(manifestLines)
	if err != nil {
		return BootstrapResult{}, err
	}

	install, err := b.Installer.Install(ctx, env, path)
	if err != nil {
		return BootstrapResult{}, err
	}
	if !install.Ok() {
		return BootstrapResult{}, &bootstrapFailure{stage: "install", detail: install.Stderr}
	}

	outcome, err := b.Validator.Validate(ctx, env)
	if err != nil {
		return BootstrapResult{}, err
	}
	if !outcome.OK {
		return BootstrapResult{}, &bootstrapFailure{stage: "validate", detail: outcome.Reason}
	}

	raw, err := b.Installer.Freeze(ctx, env)
	if err != nil {
		return BootstrapResult{}, err
	}

	return BootstrapResult{FrozenLines: PruneFreezeOutput(raw), Metrics: outcome.Reason}, nil
}

// bootstrapFailure is the fatal error Bootstrap.Run returns on the initial
// install or validate failing; the CLI's run command wraps it further with
// the root package's ErrBootstrapFailed sentinel so callers can errors.Is it.
type bootstrapFailure struct {
	stage  string
	detail string
}

func (e *bootstrapFailure) Error() string {
	return "bootstrap " + e.stage + " failed: " + e.detail
}
