package count

import (
	"math/big"

	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/pile"
	"github.com/AndrewConway/ConcreteSTV/tally"
	"github.com/AndrewConway/ConcreteSTV/transcript"
)

func (d *Distributor) distributeSurplus(candidate base.CandidateIndex) error {
	d.Log().Debug().Int("candidate", int(candidate)).Msg("distributing surplus")

	switch d.profile.SurplusMethod {
	case JustOneTransferValue:
		portion, err := d.distributeSurplusSingleTransferValue(candidate)
		if err != nil {
			return err
		}
		return d.endOfCountStep(transcript.ExcessDistribution(candidate), portion, true)
	case ScaleTransferValues:
		return d.distributeSurplusByScalingIncomingTransferValues(candidate, false)
	default:
		return d.distributeSurplusByScalingIncomingTransferValues(candidate, true)
	}
}

// distributeSurplusSingleTransferValue transfers all votes (or the last
// parcel) with a single new transfer value. Federal s273(9), ACT
// schedule 4.
func (d *Distributor) distributeSurplusSingleTransferValue(candidate base.CandidateIndex) (transcript.Portion, error) {
	votes := d.tally(candidate)
	surplus := votes.Sub(d.quota)
	d.tallys[candidate] = d.quota

	var ballots pile.VotesWithSameTransferValue
	var portion transcript.Portion
	if d.profile.UseLastParcelForSurplus {
		var err error
		ballots, portion, err = d.papers[candidate].ExtractLastParcel()
		if err != nil {
			return transcript.Portion{}, err
		}
	} else {
		extracted := d.papers[candidate].ExtractAllIgnoringTransferValue()
		ballots = extracted.Votes
		portion = extracted.Portion
	}

	ballotsConsidered := ballots.NumBallots
	distributed := pile.Distribute(ballots.Votes, d.continuing, d.numCandidates)
	continuingBallots := ballotsConsidered - distributed.Exhausted

	tvDenom := ballots.NumBallots
	if d.profile.TransferValueMethod.DenomIsJustContinuing() {
		tvDenom = continuingBallots
	}

	transferValue := tally.TransferValueOne()
	if tvDenom != 0 {
		transferValue = tally.TransferValueFromSurplus(surplus, tvDenom)
	}

	originalWorth := surplus
	if d.profile.TransferValueMethod.LimitToIncomingTransferValue() {
		if portion.TransferValue == nil {
			return transcript.Portion{}, NoLastParcelTVError.Call()
		}
		oldTV := *portion.TransferValue
		if d.profile.LimitTVRoundedToSixDecimals {
			oldTV = oldTV.RoundDownSixDecimals()
		}
		if oldTV.Cmp(transferValue) < 0 {
			if !d.profile.CountSetAsideAsRounding {
				// work out how many votes are set aside by the limit.
				setAside := surplus.Sub(oldTV.Apply(d.profile.Kind, d.profile.VoteRounding, tvDenom))
				originalWorth = originalWorth.Sub(setAside)
				d.addSetAside(setAside)
			}
			transferValue = oldTV
		}
	}

	whenCreated := d.currentCount
	d.parcelOutVotes(transferValue, distributed, &whenCreated, originalWorth,
		!d.profile.TransferValueMethod.DenomIsJustContinuing(), false, nil)

	d.inThisCount.createdTransferValue = &transcript.TransferValueCreation{
		Surplus:               surplus,
		Votes:                 votes,
		OriginalTransferValue: portion.TransferValue,
		BallotsConsidered:     ballotsConsidered,
		ContinuingBallots:     continuingBallots,
		TransferValue:         transferValue,
		Source:                d.profile.TransferValueMethod,
	}

	return portion, nil
}

// distributeSurplusByScalingIncomingTransferValues distributes a
// surplus as multiple parcels. A general ratio (typically
// surplus/votes, possibly with exhausted votes removed from the
// denominator) multiplies each parcel's incoming transfer value. NSW
// 2021 schedule 5 clause 7.
func (d *Distributor) distributeSurplusByScalingIncomingTransferValues(candidate base.CandidateIndex, mergeSameTV bool) error {
	votes := d.tally(candidate)
	surplus := votes.Sub(d.quota)

	var parcels []pile.ExtractedParcel
	if mergeSameTV {
		parcels = d.papers[candidate].ExtractAllByTransferValue() // sorted highest TV first
	} else {
		var less func(a, b pile.Key) bool
		if d.profile.SortSubcountsByCountName {
			less = d.countNameLess
		}
		parcels = d.papers[candidate].ExtractAllByKey(less) // sorted by key
	}

	if len(parcels) == 0 {
		// no papers at all; record a vacuous count so the surplus is done.
		return d.endOfCountStep(transcript.ExcessDistribution(candidate), transcript.Portion{}, true)
	}

	type partial struct {
		parcel      pile.ExtractedParcel
		distributed *pile.DistributedVotes
	}

	totalExhaustedValue := new(big.Rat)
	continuingWhenDistributionDone := len(d.sortedByTally)
	partials := make([]partial, 0, len(parcels))
	for _, p := range parcels {
		distributed := pile.Distribute(p.Votes.Votes, d.continuing, d.numCandidates)
		exhaustedValue := new(big.Rat).Mul(p.TV.Rat(), new(big.Rat).SetInt64(int64(distributed.Exhausted)))
		totalExhaustedValue.Add(totalExhaustedValue, exhaustedValue)
		partials = append(partials, partial{parcel: p, distributed: distributed})
	}

	votesRat := votes.Rat()
	quotaRat := d.quota.Rat()
	surplusRat := surplus.Rat()

	generalTVDenom := new(big.Rat).Set(votesRat)
	if d.profile.TransferValueMethod.DenomIsJustContinuing() {
		generalTVDenom.Sub(generalTVDenom, totalExhaustedValue)
	}

	// (AV-Q)/AV: when exhausted votes exceed the quota, only the excess
	// of their value transfers to the exhausted tally.
	var specialFactorExcluded *big.Rat
	if !d.profile.TransferValueMethod.DenomIsJustContinuing() &&
		totalExhaustedValue.Cmp(quotaRat) > 0 &&
		!d.profile.CountSetAsideAsRounding {
		excess := new(big.Rat).Sub(totalExhaustedValue, quotaRat)
		specialFactorExcluded = new(big.Rat).Quo(excess, totalExhaustedValue)
	}

	originalWorthRatio := new(big.Rat).Quo(surplusRat, votesRat)

	generalTV := tally.TransferValueOne()
	switch {
	case d.profile.CapSurplusFractionAtOne:
		if generalTVDenom.Cmp(surplusRat) > 0 {
			generalTV = tally.TransferValueFromRat(new(big.Rat).Quo(surplusRat, generalTVDenom))
		}
	case generalTVDenom.Sign() == 0:
		// every ballot exhausted; the literal fraction is undefined, so
		// the sub-transfers move nothing.
		generalTV = tally.NewTransferValue(0, 1)
	default:
		// the literal reading: use the resulting fraction even when it
		// exceeds one or is negative.
		generalTV = tally.TransferValueFromRat(new(big.Rat).Quo(surplusRat, generalTVDenom))
	}

	currentRemaining := new(big.Rat).Set(votesRat)
	for i := range partials {
		part := &partials[i]
		isFinalStep := i == len(partials)-1

		stepWorth := new(big.Rat).Mul(part.parcel.Tally.Rat(), originalWorthRatio)
		currentRemaining.Sub(currentRemaining, stepWorth)

		before := d.tally(candidate)
		after := tally.FromRat(d.profile.Kind, currentRemaining, d.profile.VoteRounding)
		d.tallys[candidate] = after
		originalWorth := before.Sub(after)

		distributed := part.distributed
		if len(d.sortedByTally) != continuingWhenDistributionDone {
			// the continuing candidates changed mid distribution.
			distributed = pile.Distribute(part.parcel.Votes.Votes, d.continuing, d.numCandidates)
		}

		transferValue := part.parcel.TV.Mul(generalTV)
		continuingBallots := part.parcel.Votes.NumBallots - distributed.Exhausted

		whenCreated := d.currentCount
		d.parcelOutVotes(transferValue, distributed, &whenCreated, originalWorth,
			specialFactorExcluded != nil || !d.profile.TransferValueMethod.DenomIsJustContinuing(),
			false, specialFactorExcluded)

		exhaustedTally := tally.FromRat(tally.Rational, totalExhaustedValue, tally.RoundNone)
		multiplied := generalTV
		d.inThisCount.createdTransferValue = &transcript.TransferValueCreation{
			Surplus:                 surplus,
			Votes:                   votes,
			ExcludedExhaustedTally:  &exhaustedTally,
			OriginalTransferValue:   part.parcel.Portion.TransferValue,
			MultipliedTransferValue: &multiplied,
			BallotsConsidered:       part.parcel.Votes.NumBallots,
			ContinuingBallots:       continuingBallots,
			TransferValue:           transferValue,
			Source:                  d.profile.TransferValueMethod,
		}

		// parcels not yet transferred are still the candidate's papers
		// until their own sub-transfer.
		for _, later := range partials[i+1:] {
			d.papers[candidate].Add(&later.parcel.Votes, later.parcel.TV, d.currentCount, nil, later.parcel.Tally)
		}
		if err := d.endOfCountStep(transcript.ExcessDistribution(candidate), part.parcel.Portion, isFinalStep); err != nil {
			return err
		}
		d.papers[candidate] = pile.NewPile(d.profile.SplitBy, d.profile.Kind)
	}

	return nil
}
