package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/Bhargavvvv2912/depagent"
	"github.com/Bhargavvvv2912/depagent/internal/config"
	"github.com/Bhargavvvv2912/depagent/internal/engine"
)

const statusShortHelp = `Report which pinned packages are behind the latest release`
const statusLongHelp = `
Reads the requirements file and, for every exact pin, reports its current
version against the registry's latest release and the risk score a run
would assign it. For a fully up to date manifest it prints only
"everything up to date" and exits zero.
`

type statusCommand struct {
	dir string
}

func (cmd *statusCommand) Name() string      { return "status" }
func (cmd *statusCommand) Args() string      { return "" }
func (cmd *statusCommand) ShortHelp() string { return statusShortHelp }
func (cmd *statusCommand) LongHelp() string  { return statusLongHelp }

func (cmd *statusCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.dir, "dir", ".", "project directory containing depagent's config file")
}

func (cmd *statusCommand) Run(args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(cmd.dir, os.Getenv("GITHUB_ACTIONS"))
	if err != nil {
		return err
	}

	reqPath := filepath.Join(cmd.dir, cfg.RequirementsFile)
	f, err := os.Open(reqPath)
	if err != nil {
		return depagent.ErrRequirementsFileMissing
	}
	manifest, err := depagent.ReadManifest(f)
	f.Close()
	if err != nil {
		return err
	}

	rc, err := newRunContext(cfg, cmd.dir)
	if err != nil {
		return err
	}
	defer rc.Close()

	if pf, openErr := os.Open(filepath.Join(cmd.dir, cfg.PrimaryRequirementsFile)); openErr == nil {
		if primary, loadErr := depagent.LoadPrimaryPackages(pf); loadErr == nil {
			rc.Primary = primary
		}
		pf.Close()
	}

	plan, err := rc.Plan(ctx, manifest.Lines)
	if err != nil {
		return err
	}
	if len(plan) == 0 {
		fmt.Println("everything up to date")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PACKAGE\tCURRENT\tLATEST\tRISK\tPRIMARY")
	for _, u := range plan {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\n", u.Package, u.Current.String(), u.Target.String(), engine.RiskScore(u), u.Primary)
	}
	return w.Flush()
}
