package cmds

import (
	"fmt"
	"os"

	"github.com/AndrewConway/ConcreteSTV/base"
)

// SummaryCommand prints statistics about a ballot file.
type SummaryCommand struct {
	*BaseCommand `kong:"-"`

	Votes string `arg:"" type:"existingfile" help:"the .stv file to summarise"`
}

func NewSummaryCommand() SummaryCommand {
	return SummaryCommand{BaseCommand: NewBaseCommand("summary")}
}

func (cmd *SummaryCommand) Run(flags *LogFlags) error {
	if err := cmd.Initialize(flags); err != nil {
		return err
	}

	data, err := base.LoadElectionData(cmd.Votes)
	if err != nil {
		return err
	}

	out := os.Stdout
	fmt.Fprintf(out, "Summary for %s\n", data.Metadata.Name.HumanReadable())
	fmt.Fprintf(out, "%d formal votes, %d informal\n", data.NumVotes(), data.Informal)
	fmt.Fprintf(out, "%d ATL formal votes, %d unique preference lists\n", data.NumATL(), len(data.ATL))
	fmt.Fprintf(out, "%d BTL formal votes, %d unique preference lists\n", data.NumBTL(), len(data.BTL))
	for _, voteType := range data.AllVoteTypes() {
		atl, btl := data.NumVotesOfType(voteType)
		fmt.Fprintf(out, "  Vote type %s : %d ATL, %d BTL, %d total\n", voteType, atl, btl, atl+btl)
	}

	return nil
}
