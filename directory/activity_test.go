package directory_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestActivityAggregation tests the votes+proposals fan-in partition
func TestActivityAggregation(t *testing.T) {
	t.Parallel()

	t.Run("it partitions the combined feed per delegate", func(t *testing.T) {
		t.Parallel()

		// Arrange - one vote from A, one proposal from B
		querier := querierWithPages(activityPayload(
			[]feedVote{{Voter: "0xA", Timestamp: 1700000000, Power: "10"}},
			[]feedProposal{{Proposer: "0xB", Timestamp: 1700000100, Title: "raise quorum"}},
		))
		svc := newService(t, querier, resolverReturning(""))

		// Act
		svc.FetchDelegateVotesAndProposals(context.Background(), []string{"0xA", "0xB"}, "governance")

		// Assert - exactly two keys, each side of the partition in its bucket
		activity := svc.Activity()
		require.Len(t, activity, 2)

		a := activity["0xa"]
		assert.Len(t, a.Votes, 1)
		assert.Empty(t, a.Proposals)
		assert.Equal(t, "0xA", a.Votes[0].Voter)
		assert.Equal(t, 10.0, a.Votes[0].VotingPower)

		b := activity["0xb"]
		assert.Empty(t, b.Votes)
		assert.Len(t, b.Proposals, 1)
		assert.Equal(t, "raise quorum", b.Proposals[0].Title)
	})

	t.Run("it creates a bucket for every requested delegate even with zero activity", func(t *testing.T) {
		t.Parallel()

		// Arrange - the feed never mentions 0xc
		querier := querierWithPages(activityPayload(nil, nil))
		svc := newService(t, querier, resolverReturning(""))

		// Act
		svc.FetchDelegateVotesAndProposals(context.Background(), []string{"0xC"}, "governance")

		// Assert - present with empty sequences, never absent
		activity := svc.Activity()
		require.Contains(t, activity, "0xc")
		assert.NotNil(t, activity["0xc"].Votes)
		assert.NotNil(t, activity["0xc"].Proposals)
		assert.Empty(t, activity["0xc"].Votes)
		assert.Empty(t, activity["0xc"].Proposals)
	})

	t.Run("it preserves feed order within each bucket", func(t *testing.T) {
		t.Parallel()

		// Arrange - feed order is not chronological
		querier := querierWithPages(activityPayload(
			[]feedVote{
				{Voter: "0xa", Timestamp: 1700000300, Power: "3"},
				{Voter: "0xa", Timestamp: 1700000100, Power: "1"},
				{Voter: "0xa", Timestamp: 1700000200, Power: "2"},
			},
			nil,
		))
		svc := newService(t, querier, resolverReturning(""))

		// Act
		svc.FetchDelegateVotesAndProposals(context.Background(), []string{"0xa"}, "governance")

		// Assert - not re-sorted
		votes := svc.Activity()["0xa"].Votes
		require.Len(t, votes, 3)
		assert.Equal(t, []float64{3, 1, 2}, []float64{votes[0].VotingPower, votes[1].VotingPower, votes[2].VotingPower})
	})

	t.Run("it leaves the prior mapping untouched when the query fails", func(t *testing.T) {
		t.Parallel()

		// Arrange - first aggregation succeeds, second fails
		querier := querierWithPages(activityPayload(
			[]feedVote{{Voter: "0xa", Timestamp: 1700000000, Power: "5"}},
			nil,
		))
		svc := newService(t, querier, resolverReturning(""))
		svc.FetchDelegateVotesAndProposals(context.Background(), []string{"0xa"}, "governance")
		require.Len(t, svc.Activity()["0xa"].Votes, 1)

		querier.failFrom(querier.callCount())

		// Act
		svc.FetchDelegateVotesAndProposals(context.Background(), []string{"0xa", "0xb"}, "governance")

		// Assert
		activity := svc.Activity()
		assert.Len(t, activity, 1, "failed aggregation must not replace the mapping")
		assert.Len(t, activity["0xa"].Votes, 1)
	})

	t.Run("it leaves the prior mapping untouched on an empty response", func(t *testing.T) {
		t.Parallel()

		// Arrange
		querier := querierWithPages(
			activityPayload([]feedVote{{Voter: "0xa", Timestamp: 1700000000, Power: "5"}}, nil),
			json.RawMessage(nil),
		)
		svc := newService(t, querier, resolverReturning(""))
		svc.FetchDelegateVotesAndProposals(context.Background(), []string{"0xa"}, "governance")

		// Act
		svc.FetchDelegateVotesAndProposals(context.Background(), []string{"0xb"}, "governance")

		// Assert
		assert.Contains(t, svc.Activity(), "0xa")
		assert.NotContains(t, svc.Activity(), "0xb")
	})

	t.Run("it skips feed entries outside the requested address set", func(t *testing.T) {
		t.Parallel()

		// Arrange - a voter the caller never asked about
		querier := querierWithPages(activityPayload(
			[]feedVote{{Voter: "0xEE", Timestamp: 1700000000, Power: "7"}},
			nil,
		))
		svc := newService(t, querier, resolverReturning(""))

		// Act
		svc.FetchDelegateVotesAndProposals(context.Background(), []string{"0xa"}, "governance")

		// Assert
		activity := svc.Activity()
		require.Len(t, activity, 1)
		assert.Empty(t, activity["0xa"].Votes)
	})
}

// Activity feed builders
// ----------------------

type feedVote struct {
	Voter     string
	Timestamp int64
	Power     string
}

type feedProposal struct {
	Proposer  string
	Timestamp int64
	Title     string
}

// activityPayload builds a combined votes+proposals subgraph payload.
func activityPayload(votes []feedVote, proposals []feedProposal) json.RawMessage {
	wireVotes := make([]map[string]any, len(votes))
	for i, v := range votes {
		wireVotes[i] = map[string]any{
			"timestamp": fmt.Sprintf("%d", v.Timestamp),
			"voter":     map[string]any{"id": v.Voter},
			"choice":    "for",
			"votesRaw":  v.Power,
		}
	}

	wireProposals := make([]map[string]any, len(proposals))
	for i, p := range proposals {
		wireProposals[i] = map[string]any{
			"timestamp": fmt.Sprintf("%d", p.Timestamp),
			"proposer":  map[string]any{"id": p.Proposer},
			"title":     p.Title,
		}
	}

	payload, err := json.Marshal(map[string]any{
		"votes":     wireVotes,
		"proposals": wireProposals,
	})
	if err != nil {
		panic(err)
	}
	return payload
}
