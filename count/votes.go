package count

import (
	"github.com/AndrewConway/ConcreteSTV/base"
	"github.com/AndrewConway/ConcreteSTV/pile"
)

// ResolveVotes converts the election's votes into a flat list with
// above the line votes expanded to their below the line equivalent.
//
// An above the line vote expands by concatenating the candidate lists
// of the named parties in the order of party preferences. When group
// voting tickets are in use and the first preferenced party lodged
// tickets, the vote follows the tickets instead, split as evenly as
// possible with earlier tickets taking the remainder.
//
// If voteTypes is non-empty, only votes of the named types are
// included.
func ResolveVotes(data *base.ElectionData, voteTypes []string, useGroupVotingTickets bool) []pile.Vote {
	var votes []pile.Vote

	for i := range data.ATL {
		a := &data.ATL[i]
		if !includeVote(voteTypes, data.ATLTypes, i) {
			continue
		}

		if useGroupVotingTickets && len(a.Parties) > 0 {
			if tickets := data.Metadata.Party(a.Parties[0]).Tickets; len(tickets) > 0 {
				votes = append(votes, ticketVotes(a.N, tickets)...)
				continue
			}
		}

		var prefs []base.CandidateIndex
		for _, p := range a.Parties {
			prefs = append(prefs, data.Metadata.Party(p).Candidates...)
		}
		votes = append(votes, pile.NewVote(a.N, prefs, true))
	}

	for i := range data.BTL {
		b := &data.BTL[i]
		if !includeVote(voteTypes, data.BTLTypes, i) {
			continue
		}
		votes = append(votes, pile.NewVote(b.N, b.Candidates, false))
	}

	return votes
}

// ticketVotes splits n voters over a party's group voting tickets, n/k
// per ticket with the remainder going one each to the earliest tickets.
func ticketVotes(n int, tickets [][]base.CandidateIndex) []pile.Vote {
	k := len(tickets)
	each := n / k
	remainder := n % k

	var votes []pile.Vote
	for i, ticket := range tickets {
		m := each
		if i < remainder {
			m++
		}
		if m > 0 {
			votes = append(votes, pile.NewVote(m, ticket, true))
		}
	}
	return votes
}

func includeVote(voteTypes []string, specs []base.VoteTypeSpecification, index int) bool {
	if len(voteTypes) == 0 {
		return true
	}
	for _, t := range specs {
		if t.FirstIndexInclusive <= index && index < t.LastIndexExclusive {
			for _, wanted := range voteTypes {
				if t.VoteType == wanted {
					return true
				}
			}
		}
	}
	return false
}
