package cmds

import (
	"strings"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/count"
	"github.com/AndrewConway/ConcreteSTV/rules"
	"github.com/AndrewConway/ConcreteSTV/tiebreak"
)

// CountCommand counts an election and writes the transcript.
type CountCommand struct {
	*BaseCommand `kong:"-"`

	Rules string `arg:"" help:"the counting rules to use; see the rules command for the list"`
	Votes string `arg:"" type:"existingfile" help:"the .stv file to get votes from"`

	Vacancies  int    `help:"the number of people to elect, overriding the ballot file"`
	Exclude    []int  `help:"candidates to exclude before counting starts, e.g. ruled ineligible" sep:","`
	Tie        []int  `help:"resolve a tie: candidate indices, least favoured first" sep:","`
	Seed       *int64 `help:"break undecidable ties with a deterministically seeded shuffle"`
	StrictTies bool   `help:"fail on a tie no decision or count-back resolves"`
	VoteTypes  []string `help:"count only votes of these types" sep:","`
	BulkExclusion bool `help:"apply the federal bulk exclusion where the rules leave it to the operator"`
	Design     string `help:"YAML file of per-election overrides" type:"existingfile"`
	Transcript string `help:"the .transcript file to write; defaults to <votes>_<rules>.transcript"`
}

func NewCountCommand() CountCommand {
	return CountCommand{BaseCommand: NewBaseCommand("count")}
}

func (cmd *CountCommand) Run(flags *LogFlags) error {
	if err := cmd.Initialize(flags); err != nil {
		return err
	}

	profile, err := rules.FromString(cmd.Rules)
	if err != nil {
		return err
	}

	data, err := base.LoadElectionData(cmd.Votes)
	if err != nil {
		return err
	}

	opts := count.Options{
		Vacancies: base.NumberOfCandidates(cmd.Vacancies),
		VoteTypes: cmd.VoteTypes,
		Log:       cmd.LoggingOrNop(),
	}

	for _, c := range cmd.Exclude {
		opts.Excluded = append(opts.Excluded, base.CandidateIndex(c))
	}

	if len(cmd.Tie) > 1 {
		decision := base.TieResolutionExplicitDecision{
			Disfavoured: []base.CandidateIndex{base.CandidateIndex(cmd.Tie[0])},
		}
		for _, c := range cmd.Tie[1:] {
			decision.Favoured = append(decision.Favoured, base.CandidateIndex(c))
		}
		opts.TieResolutions = append(opts.TieResolutions, decision)
	}

	switch {
	case cmd.Seed != nil:
		opts.TieFallback = tiebreak.FallbackRandom
		opts.Seed = *cmd.Seed
	case cmd.StrictTies:
		opts.TieFallback = tiebreak.FallbackNone
	}

	opts.EnableManualBulkExclusion = cmd.BulkExclusion

	if cmd.Design != "" {
		design, err := LoadDesign(cmd.Design)
		if err != nil {
			return err
		}
		if design.Vacancies > 0 && opts.Vacancies == 0 {
			opts.Vacancies = base.NumberOfCandidates(design.Vacancies)
		}
		opts.Excluded = append(opts.Excluded, design.ExcludedCandidates()...)
		opts.TieResolutions = append(opts.TieResolutions, design.Resolutions()...)
	}

	result, err := count.DistributePreferences(data, profile, opts)
	if err != nil {
		return err
	}

	out := cmd.Transcript
	if out == "" {
		out = strings.TrimSuffix(cmd.Votes, ".stv") + "_" + cmd.Rules + ".transcript"
	}
	if err := result.Save(out); err != nil {
		return err
	}

	cmd.Log().Info().
		Str("transcript", out).
		Int("counts", result.Transcript.NumCounts()).
		Str("elected", data.Metadata.CandidateListToString(result.Transcript.Elected)).
		Msg("count finished")

	return nil
}
