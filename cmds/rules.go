package cmds

import (
	"fmt"
	"os"

	"github.com/AndrewConway/ConcreteSTV/rules"
)

// RulesCommand lists the supported rule sets.
type RulesCommand struct {
	*BaseCommand `kong:"-"`
}

func NewRulesCommand() RulesCommand {
	return RulesCommand{BaseCommand: NewBaseCommand("rules")}
}

func (cmd *RulesCommand) Run(flags *LogFlags) error {
	if err := cmd.Initialize(flags); err != nil {
		return err
	}

	for _, name := range rules.Names() {
		fmt.Fprintln(os.Stdout, name)
	}
	return nil
}
