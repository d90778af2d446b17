package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Bhargavvvv2912/depagent"
	"github.com/Bhargavvvv2912/depagent/internal/config"
	"github.com/Bhargavvvv2912/depagent/internal/engine"
)

const reconcileShortHelp = `Merge a freshly resolved ideal-state file into the requirements file`
const reconcileLongHelp = `
Merges an "ideal state" manifest (e.g. produced by a separate dependency
compile step run outside depagent) into the requirements file: packages
the requirements file doesn't already name (matched case/hyphen
insensitively) are appended, each with any trailing environment marker
("; ...") stripped. Editable ("-e ...") lines carry no package name and are
not merged. This is a convenience wrapper around the manifest store;
it is never invoked by "depagent run" and performs no validation of its
own.
`

type reconcileCommand struct {
	dir string
}

func (cmd *reconcileCommand) Name() string      { return "reconcile" }
func (cmd *reconcileCommand) Args() string      { return "<ideal-state-file>" }
func (cmd *reconcileCommand) ShortHelp() string { return reconcileShortHelp }
func (cmd *reconcileCommand) LongHelp() string  { return reconcileLongHelp }

func (cmd *reconcileCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.dir, "dir", ".", "project directory containing depagent's config file")
}

func (cmd *reconcileCommand) Run(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("reconcile: expected exactly one ideal-state-file argument, got %d", len(args))
	}
	idealPath := args[0]

	idealFile, err := os.Open(idealPath)
	if err != nil {
		return fmt.Errorf("reconcile: ideal state file %q not found", idealPath)
	}
	ideal, err := depagent.ReadManifest(idealFile)
	idealFile.Close()
	if err != nil {
		return err
	}
	cleanedIdeal := cleanLines(ideal.Lines)

	cfg, err := config.Load(cmd.dir, os.Getenv("GITHUB_ACTIONS"))
	if err != nil {
		return err
	}
	reqPath := filepath.Join(cmd.dir, cfg.RequirementsFile)

	existing, err := os.Open(reqPath)
	if os.IsNotExist(err) {
		sort.Strings(cleanedIdeal)
		fmt.Printf("requirements file missing; creating a clean golden record with %d package(s)\n", len(cleanedIdeal))
		return depagent.Manifest{Lines: cleanedIdeal}.Write(reqPath)
	}
	if err != nil {
		return err
	}
	golden, err := depagent.ReadManifest(existing)
	existing.Close()
	if err != nil {
		return err
	}

	known := map[string]bool{}
	for _, l := range golden.Lines {
		if name := engine.LineName(l); name != "" {
			known[name] = true
		}
	}

	var additions []string
	for _, line := range cleanedIdeal {
		name := engine.LineName(line)
		if name == "" || known[name] {
			continue
		}
		additions = append(additions, line)
		fmt.Printf("new dependency %q discovered; adding %q to the golden record\n", name, line)
	}

	if len(additions) == 0 {
		fmt.Println("golden record is in sync with the ideal state; no new dependencies found")
		return nil
	}

	sort.Strings(additions)
	merged := append(append([]string{}, golden.Lines...), additions...)
	return depagent.Manifest{Lines: merged}.Write(reqPath)
}

// cleanLines strips any trailing environment-marker segment from every
// non-editable ideal-state line, so a pin comes out in its bare
// "name==version" form; editable lines and any other constraint lines are
// otherwise kept as they are. The direct port of reconcile.py's
// clean_line_for_golden_record.
func cleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if engine.IsEditable(l) {
			out = append(out, l)
			continue
		}
		if i := strings.IndexByte(l, ';'); i >= 0 {
			l = strings.TrimSpace(l[:i])
		}
		out = append(out, l)
	}
	return out
}
