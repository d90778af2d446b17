package depagent

import "github.com/pkg/errors"

// ErrBootstrapFailed is the sentinel a run aborts with when bootstrap's
// initial install or validate fails (spec.md §4.I: "a bootstrap failure is
// fatal"). Wrap the underlying *engine.bootstrapFailure-carrying error with
// it so callers can errors.Is against a single stable value regardless of
// which stage (install vs. validate) actually failed.
var ErrBootstrapFailed = errors.New("bootstrap failed")

// ErrNotFullyPinned is the sentinel a run aborts with when, after a
// successful bootstrap, the manifest is still not fully pinned (spec.md
// §4.I: "After bootstrap, the manifest must be fully pinned; otherwise
// the run aborts with an invariant-violation error").
var ErrNotFullyPinned = errors.New("manifest is not fully pinned after bootstrap")

// ErrRequirementsFileMissing is returned when the configured
// REQUIREMENTS_FILE does not exist; this is checked before bootstrap or
// the run loop ever start, the Go analogue of the prototype's
// `sys.exit(f"CRITICAL ERROR: Requirements file not found...")`.
var ErrRequirementsFileMissing = errors.New("requirements file not found")

// WrapFatal tags a fatal failure with msg and ErrBootstrapFailed (or any
// other sentinel) so a caller further up the stack (the CLI's run command)
// can both print a readable diagnostic and errors.Is against the sentinel.
func WrapFatal(sentinel error, msg string, cause error) error {
	if cause == nil {
		return errors.Wrap(sentinel, msg)
	}
	return errors.Wrapf(sentinel, "%s: %v", msg, cause)
}
