// Package depagent is the autonomous dependency-update agent: it loads a
// pinned manifest, plans risk-ordered upgrades, installs and validates
// each candidate in an isolated environment, heals failed attempts by
// backtracking, and converges over a bounded number of passes. This file
// holds the manifest store, spec.md §4.A and SPEC_FULL.md §4, adapted
// from golang-dep's manifest.go read/write shape but for the pin-list
// format (`name==version` lines) this spec describes instead of
// golang-dep's JSON dependency map.
package depagent

import (
	"bufio"
	"io"
	"strings"

	"github.com/Bhargavvvv2912/depagent/internal/engine"
	"github.com/Bhargavvvv2912/depagent/internal/fsutil"
)

// Manifest is a loaded, in-memory dependency manifest: an ordered list of
// non-comment, non-blank lines, exactly as spec.md §6 describes ("blank
// lines and lines whose first non-space character is # are ignored").
type Manifest struct {
	Lines []string
}

// ReadManifest loads r's non-comment, non-blank lines, trimmed.
func ReadManifest(r io.Reader) (Manifest, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return Manifest{}, err
	}
	return Manifest{Lines: lines}, nil
}

// IsFullyPinned reports whether every line in m is an exact pin or an
// editable reference, spec.md §4.A's classify operation.
func (m Manifest) IsFullyPinned() bool {
	for _, l := range m.Lines {
		if engine.IsEditable(l) {
			continue
		}
		if !engine.IsExactPin(l) {
			return false
		}
	}
	return true
}

// Rewrite returns a new Manifest with the line whose normalized name
// equals name replaced by "name==version". Lines with no matching name
// are left untouched. This is spec.md §4.A's "rewrite one" operation, a
// thin wrapper over engine.SubstitutePin, which the attempt engine and the
// pass orchestrator call directly to build trial and combined manifests.
func (m Manifest) Rewrite(name, version string) Manifest {
	return Manifest{Lines: engine.SubstitutePin(m.Lines, name, version)}
}

// Freeze applies spec.md §4.A's prune-to-pins-and-editables rule to raw
// freeze output (e.g. `pip freeze`), producing the manifest lines to
// persist as the new baseline.
func Freeze(rawFreezeOutput string) Manifest {
	return Manifest{Lines: engine.PruneFreezeOutput(rawFreezeOutput)}
}

// Write atomically persists m to path via internal/fsutil's
// lock-write-temp-rename dance, the single choke point spec.md §5 reserves
// for bootstrap, pass commit, and recovery-restore.
func (m Manifest) Write(path string) error {
	return fsutil.WriteManifest(path, m.Lines)
}

// LoadPrimaryPackages reads a PRIMARY_REQUIREMENTS_FILE: one package name
// per line, `#`-comments and blank lines ignored, returning the set of
// normalized names spec.md §3's "primary flag" consults.
func LoadPrimaryPackages(r io.Reader) (map[string]bool, error) {
	primary := map[string]bool{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name := engine.LineName(line)
		if name == "" {
			continue
		}
		primary[name] = true
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return primary, nil
}
