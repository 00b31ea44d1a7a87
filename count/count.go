package count

import (
	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/tiebreak"
	"github.com/AndrewConway/ConcreteSTV/transcript"
	"github.com/AndrewConway/ConcreteSTV/util"
	"github.com/AndrewConway/ConcreteSTV/util/isvalid"
	"github.com/AndrewConway/ConcreteSTV/util/logging"
)

var MissingVacanciesError = util.NewError("number of vacancies not specified")

// Options adjusts a count beyond what the ballot file's metadata says.
type Options struct {
	// the number of people to elect. Zero means use the metadata.
	Vacancies base.NumberOfCandidates
	// candidates excluded before counting starts, in addition to the
	// metadata's excluded list.
	Excluded []base.CandidateIndex
	// tie decisions to replay, in addition to the metadata's.
	TieResolutions []base.TieResolutionExplicitDecision
	// what the oracle does for a tie no decision covers.
	TieFallback tiebreak.Fallback
	// seed for the FallbackRandom generator.
	Seed int64
	// restrict counting to these vote types. Empty means all votes.
	VoteTypes []string
	// apply the federal bulk exclusion when the profile allows it only
	// on request.
	EnableManualBulkExclusion bool

	Log *logging.Logging
}

// DistributePreferences runs a full distribution of preferences and
// returns the transcript. This is the engine's only entry point: a pure
// function of the ballots, the profile and the tie oracle.
func DistributePreferences(data *base.ElectionData, profile *Profile, opts Options) (*transcript.TranscriptWithMetadata, error) {
	if err := isvalid.Check(nil, false, profile, data); err != nil {
		return nil, err
	}

	vacancies := opts.Vacancies
	if vacancies == 0 {
		if data.Metadata.Vacancies == nil {
			return nil, MissingVacanciesError.Errorf("election %s", data.Metadata.Name.HumanReadable())
		}
		vacancies = *data.Metadata.Vacancies
	}

	excluded := map[base.CandidateIndex]struct{}{}
	for _, c := range data.Metadata.Excluded {
		excluded[c] = struct{}{}
	}
	for _, c := range opts.Excluded {
		excluded[c] = struct{}{}
	}

	decisions := append([]base.TieResolutionExplicitDecision{}, data.Metadata.TieResolutions...)
	decisions = append(decisions, opts.TieResolutions...)
	resolutions := tiebreak.NewECResolutions(decisions, opts.TieFallback, opts.Seed)

	votes := ResolveVotes(data, opts.VoteTypes, profile.UseGroupVotingTickets)

	d := NewDistributor(data, profile, votes, vacancies, excluded, resolutions)
	d.manualBulkExclusion = opts.EnableManualBulkExclusion
	if opts.Log != nil {
		d.SetLogging(opts.Log)
	}

	if err := d.Go(); err != nil {
		return nil, err
	}

	return &transcript.TranscriptWithMetadata{
		Metadata:   data.Metadata,
		Transcript: d.Transcript(),
	}, nil
}
