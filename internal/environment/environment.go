// Package environment implements engine.EnvironmentFactory: the isolated,
// exclusively-owned directory each attempt installs into. Recreation is
// adapted from the Python prototype's repeated shutil.rmtree(venv_dir)
// dance.
package environment

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/Bhargavvvv2912/depagent/internal/engine"
)

// TrialManifestName is the filename the attempt engine's trial manifest is
// written under, inside an environment's directory.
const TrialManifestName = "trial-requirements.txt"

// BinDir is the subdirectory an installed environment's executables live
// under; the installer/validator collaborators resolve their interpreter
// relative to this.
const BinDir = "bin"

// Factory creates Envs rooted at a caller-chosen path, destroying and
// recreating that directory on every call.
type Factory struct{}

// Fresh destroys whatever is at path and recreates it holding only an
// empty BinDir subdirectory, matching
// spec.md §4.F step 1 and §5's "destroyed and recreated at attempt entry."
func (Factory) Fresh(ctx context.Context, path string) (engine.Env, error) {
	if err := os.RemoveAll(path); err != nil {
		return nil, errors.Wrapf(err, "removing prior environment at %s", path)
	}

	if err := os.MkdirAll(filepath.Join(path, BinDir), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating environment at %s", path)
	}

	return &env{root: path}, nil
}

type env struct {
	root string
}

func (e *env) Path() string { return e.root }

func (e *env) WriteManifest(lines []string) (string, error) {
	path := filepath.Join(e.root, TrialManifestName)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "creating trial manifest at %s", path)
	}
	defer f.Close()

	for _, l := range lines {
		if _, err := f.WriteString(l + "\n"); err != nil {
			return "", errors.Wrap(err, "writing trial manifest")
		}
	}
	return path, nil
}
