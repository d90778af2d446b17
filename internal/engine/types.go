package engine

import "context"

// Registry is the package-registry lookup collaborator. The engine only
// ever depends on this interface, never on a concrete HTTP client; the
// default implementation lives in internal/registryclient.
type Registry interface {
	// Latest returns the greatest stable release, or the greatest release
	// overall if no stable release exists. ok is false on network failure
	// or an unknown package; callers treat that as "already up to date",
	// never as a hard error.
	Latest(ctx context.Context, name string) (v Version, ok bool)

	// Range returns the sorted non-prerelease versions v with lo <= v < hi.
	Range(ctx context.Context, name string, lo, hi Version) []Version
}

// Env is one isolated install target: a disposable directory the attempt
// engine owns exclusively for the duration of one attempt.
type Env interface {
	// Path is the environment's root directory, for collaborators that
	// need it (installer, validator).
	Path() string

	// WriteManifest writes the trial manifest's lines inside the
	// environment, never touching the authoritative manifest file.
	WriteManifest(lines []string) (path string, err error)
}

// EnvironmentFactory creates a fresh Env, destroying whatever was
// previously at path.
type EnvironmentFactory interface {
	Fresh(ctx context.Context, path string) (Env, error)
}

// InstallResult is what Installer.Install reports back.
type InstallResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Ok reports whether the install succeeded.
func (r InstallResult) Ok() bool { return r.ExitCode == 0 }

// Installer resolves and installs a manifest into an environment. The
// quiet/verbose distinction is captured as two separate calls rather than a
// flag, since the verbose retry uses a completely different argv shape
// (explicit package lines, not -r <file>).
type Installer interface {
	// Install installs manifestPath (a requirements-style file) quietly.
	Install(ctx context.Context, env Env, manifestPath string) (InstallResult, error)

	// InstallVerbose re-attempts installation of the same lines passed
	// directly as arguments, to coax a verbose conflict diagnostic out of
	// the installer.
	InstallVerbose(ctx context.Context, env Env, lines []string) (InstallResult, error)

	// Freeze enumerates every installed package with its resolved
	// version, the raw input to the manifest store's prune step.
	Freeze(ctx context.Context, env Env) (string, error)
}

// ValidationOutcome is what Validator.Validate reports back.
type ValidationOutcome struct {
	OK      bool
	Reason  string // metrics on success, failure reason on failure
	Output  string
}

// Validator runs the user-supplied validation procedure against an
// environment.
type Validator interface {
	Validate(ctx context.Context, env Env) (ValidationOutcome, error)
}

// OracleReply is a tagged-variant result for the oracle's text-in/text-out
// replies. Parsers return Empty on any structural deviation, never an error
// a caller has to remember to check.
type OracleReply struct {
	Versions []string // non-nil only when Kind == OracleVersionList
	Summary  string   // non-empty only when Kind == OracleSummary
	Kind     OracleReplyKind
}

// OracleReplyKind discriminates an OracleReply.
type OracleReplyKind int

const (
	OracleEmpty OracleReplyKind = iota
	OracleVersionList
	OracleSummary
	// OracleQuotaExhausted is returned only by BacktrackVersions implementations
	// that can distinguish "the provider rejected this call for quota reasons"
	// from an ordinary empty/malformed reply. The healing controller latches
	// its circuit breaker on this kind and never on a plain OracleEmpty,
	// mirroring the Python prototype's narrower `except ResourceExhausted`
	// catch in _ask_llm_for_version_candidates (agent_logic.py) — a
	// malformed response degrades just that one call, not the whole run.
	OracleQuotaExhausted
)

// Oracle is the natural-language advisor consulted opportunistically during
// healing. The agent must keep functioning when it is unavailable.
// RootCause is carried for completeness but is not invoked by the core
// healing controller.
type Oracle interface {
	// BacktrackVersions asks for up to k prior releases of name strictly
	// older than failedVersion, in descending order.
	BacktrackVersions(ctx context.Context, name, failedVersion string, k int) OracleReply

	// SummarizeError asks for a one-sentence root-cause summary of an
	// install error log.
	SummarizeError(ctx context.Context, errorLog string) OracleReply

	// RootCause asks whether a failure looks self-inflicted or traces to
	// a named incompatible package with a suggested constraint. Not wired
	// into the core healing flow.
	RootCause(ctx context.Context, pkg, errorLog, manifest string) OracleReply
}
