// Command depagent runs the autonomous dependency-update agent: it reads
// a pinned requirements file, tries each candidate upgrade in risk order,
// heals failed attempts with an oracle-assisted or plain version backtrack,
// and reports a final summary. Grounded in golang-dep's main.go command
// dispatcher: a small, explicit command table rather than a third-party
// CLI framework, since golang-dep itself carries none.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

var verbose = flag.Bool("v", false, "enable verbose logging")

type command interface {
	Name() string
	Args() string
	ShortHelp() string
	LongHelp() string
	Register(*flag.FlagSet)
	Run([]string) error
}

func main() {
	commands := []command{
		&runCommand{},
		&statusCommand{},
		&reconcileCommand{},
	}

	usage := func() {
		fmt.Fprintln(os.Stderr, "Usage: depagent <command>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr)
		w := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
		for _, c := range commands {
			fmt.Fprintf(w, "\t%s\t%s\n", c.Name(), c.ShortHelp())
		}
		w.Flush()
		fmt.Fprintln(os.Stderr)
	}

	if len(os.Args) <= 1 || strings.ToLower(os.Args[1]) == "-h" || strings.ToLower(os.Args[1]) == "help" {
		usage()
		os.Exit(1)
	}

	for _, c := range commands {
		if c.Name() != os.Args[1] {
			continue
		}

		fs := flag.NewFlagSet(c.Name(), flag.ExitOnError)
		fs.BoolVar(verbose, "v", false, "enable verbose logging")
		c.Register(fs)
		resetUsage(fs, c.Name(), c.Args(), c.LongHelp())

		if err := fs.Parse(os.Args[2:]); err != nil {
			fs.Usage()
			os.Exit(1)
		}

		if err := c.Run(fs.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "depagent %s: %v\n", c.Name(), err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "depagent: %q is not a depagent command. See 'depagent help'.\n", os.Args[1])
	os.Exit(1)
}

// resetUsage installs a nicer usage message on fs than the flag package's
// default, the same formatting golang-dep's main.go uses for every
// subcommand.
func resetUsage(fs *flag.FlagSet, name, args, longHelp string) {
	var usage string
	if args != "" {
		usage = fmt.Sprintf("Usage: depagent %s [flags] %s\n", name, args)
	} else {
		usage = fmt.Sprintf("Usage: depagent %s [flags]\n", name)
	}
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		fmt.Fprintln(os.Stderr, strings.TrimSpace(longHelp))
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
}
