package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/AndrewConway/ConcreteSTV/cmds"
)

type mainFlags struct {
	cmds.LogFlags

	Count   cmds.CountCommand   `cmd:"" default:"withargs" help:"count an election and write the transcript"`
	Rules   cmds.RulesCommand   `cmd:"" help:"list the supported rule sets"`
	Summary cmds.SummaryCommand `cmd:"" help:"print ballot file statistics"`

	Version kong.VersionFlag `help:"print version"`
}

func main() {
	flags := mainFlags{
		Count:   cmds.NewCountCommand(),
		Rules:   cmds.NewRulesCommand(),
		Summary: cmds.NewSummaryCommand(),
	}

	ctx, err := cmds.Context(os.Args[1:], &flags, kong.Vars{"version": cmds.Version})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := ctx.Run(&flags.LogFlags); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
