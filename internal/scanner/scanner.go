// Package scanner computes per-package import-usage counts across a
// project's Python source tree. It is the Go rewrite of
// DependencyAgent._calculate_risk_scores in agent_logic.py: walk every
// *.py file under a root, tally "import x" / "from x import y" statements
// by their top-level module name, and fold the tally into the normalized
// package identity the risk scorer expects. It deliberately stops short of
// a real AST walk (the Python prototype's ast.walk, explicitly named in
// spec.md §1 as a trivial, out-of-core collaborator) in favor of a regex
// over import lines, which is adequate for a usage signal rather than a
// correctness-critical parse.
package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/karrick/godirwalk"

	"github.com/Bhargavvvv2912/depagent/internal/engine"
)

// skipDirs names directories the scanner never descends into: depagent's
// working directory, where the attempt engine and bootstrap create their
// temporary environments, and those environments' directory names, whose
// installed packages would otherwise dwarf the real usage signal.
var skipDirs = map[string]bool{
	".depagent":      true,
	"bootstrap_venv": true,
	"attempt_venv":   true,
	"temp_venv":      true,
	"final_venv":     true,
	".git":           true,
}

var (
	importPattern     = regexp.MustCompile(`^\s*import\s+([A-Za-z0-9_.]+)`)
	fromImportPattern = regexp.MustCompile(`^\s*from\s+([A-Za-z0-9_.]+)\s+import\b`)
)

// Count walks root and returns, per normalized package name, the number of
// import statements across the tree that refer to it (by top-level module
// name, same as the prototype's alias.name.split('.')[0]).
func Count(root string) (map[string]int, error) {
	counts := map[string]int{}

	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if skipDirs[de.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(osPathname, ".py") {
				return nil
			}
			tallyFile(osPathname, counts)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// tallyFile scans one Python source file line by line, adding to counts.
// Read errors on an individual file are swallowed (mirroring the
// prototype's bare `except Exception: continue`): a single unreadable or
// binary-garbage file should never abort the whole scan.
func tallyFile(path string, counts map[string]int) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if m := importPattern.FindStringSubmatch(line); m != nil {
			add(counts, m[1])
			continue
		}
		if m := fromImportPattern.FindStringSubmatch(line); m != nil {
			add(counts, m[1])
		}
	}
}

func add(counts map[string]int, spec string) {
	top := strings.SplitN(spec, ".", 2)[0]
	if top == "" {
		return
	}
	counts[engine.Normalize(top)]++
}
