package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// activityQuery requests every vote cast by and every proposal authored by
// the given addresses within one governance scope, as a single combined feed.
const activityQuery = `query ($delegates: [String!]!, $scope: String!) {
  votes(where: {voter_in: $delegates, governance: $scope}, first: 1000) {
    timestamp
    voter { id }
    choice
    votesRaw
  }
  proposals(where: {proposer_in: $delegates, governance: $scope}, first: 1000) {
    timestamp
    proposer { id }
    title
  }
}`

type activityFeed struct {
	Votes []struct {
		Timestamp string `json:"timestamp"`
		Voter     struct {
			ID string `json:"id"`
		} `json:"voter"`
		Choice   json.RawMessage `json:"choice"`
		VotesRaw string          `json:"votesRaw"`
	} `json:"votes"`
	Proposals []struct {
		Timestamp string `json:"timestamp"`
		Proposer  struct {
			ID string `json:"id"`
		} `json:"proposer"`
		Title string `json:"title"`
	} `json:"proposals"`
}

// FetchDelegateVotesAndProposals aggregates per-delegate activity
// ---------------------------------------------------------------
// It runs one combined votes+proposals query for the given addresses within
// scope and replaces the activity mapping atomically: one bucket per
// requested address (lower-cased), empty sequences when the feed never
// mentions it, feed order preserved within each bucket. A failed or empty
// query leaves the prior mapping untouched. Feed entries whose address is
// outside the requested set violate the caller contract and are skipped.
// No reentrancy guard protects this operation; callers serialize it.
func (s *Service) FetchDelegateVotesAndProposals(ctx context.Context, delegateAddresses []string, scope string) {
	lowered := make([]string, len(delegateAddresses))
	for i, addr := range delegateAddresses {
		lowered[i] = strings.ToLower(addr)
	}

	vars := map[string]any{"delegates": lowered, "scope": scope}
	data, err := s.querier.Query(ctx, s.scheme.Endpoint(), activityQuery, vars)
	if err != nil {
		s.log.ErrorContext(ctx, "Activity fetch failed",
			slog.String("scope", scope),
			slog.Any("error", err),
		)
		return
	}
	if len(data) == 0 {
		return
	}

	feed, err := parseActivityFeed(data)
	if err != nil {
		s.log.ErrorContext(ctx, "Activity feed formatting failed",
			slog.String("scope", scope),
			slog.Any("error", err),
		)
		return
	}

	buckets := partitionActivity(lowered, feed)

	s.mu.Lock()
	s.activity = buckets
	s.mu.Unlock()

	s.emit(ActivityUpdated{
		Delegates: len(buckets),
		Votes:     len(feed.votes),
		Proposals: len(feed.proposals),
	})
}

type combinedFeed struct {
	votes     []Vote
	proposals []Proposal
}

func parseActivityFeed(data []byte) (combinedFeed, error) {
	var raw activityFeed
	if err := json.Unmarshal(data, &raw); err != nil {
		return combinedFeed{}, fmt.Errorf("%w: %w", ErrFormatFailed, err)
	}

	feed := combinedFeed{
		votes:     make([]Vote, 0, len(raw.Votes)),
		proposals: make([]Proposal, 0, len(raw.Proposals)),
	}

	for _, v := range raw.Votes {
		created, err := parseFeedTimestamp(v.Timestamp)
		if err != nil {
			return combinedFeed{}, fmt.Errorf("%w: vote timestamp: %w", ErrFormatFailed, err)
		}
		power, err := strconv.ParseFloat(v.VotesRaw, 64)
		if err != nil {
			return combinedFeed{}, fmt.Errorf("%w: vote power: %w", ErrFormatFailed, err)
		}
		feed.votes = append(feed.votes, Vote{
			Created:     created,
			Voter:       v.Voter.ID,
			Choice:      v.Choice,
			VotingPower: power,
		})
	}

	for _, p := range raw.Proposals {
		created, err := parseFeedTimestamp(p.Timestamp)
		if err != nil {
			return combinedFeed{}, fmt.Errorf("%w: proposal timestamp: %w", ErrFormatFailed, err)
		}
		feed.proposals = append(feed.proposals, Proposal{
			Created: created,
			Author:  p.Proposer.ID,
			Title:   p.Title,
		})
	}

	return feed, nil
}

// parseFeedTimestamp converts a subgraph unix-seconds string to time.Time.
func parseFeedTimestamp(s string) (time.Time, error) {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}

// partitionActivity buckets an unordered combined feed per delegate.
// Every requested address gets a bucket even with zero activity.
func partitionActivity(delegateAddresses []string, feed combinedFeed) map[string]Activity {
	buckets := make(map[string]Activity, len(delegateAddresses))
	for _, addr := range delegateAddresses {
		buckets[addr] = Activity{
			Votes:     []Vote{},
			Proposals: []Proposal{},
		}
	}

	for _, vote := range feed.votes {
		key := strings.ToLower(vote.Voter)
		bucket, ok := buckets[key]
		if !ok {
			continue
		}
		bucket.Votes = append(bucket.Votes, vote)
		buckets[key] = bucket
	}

	for _, proposal := range feed.proposals {
		key := strings.ToLower(proposal.Author)
		bucket, ok := buckets[key]
		if !ok {
			continue
		}
		bucket.Proposals = append(bucket.Proposals, proposal)
		buckets[key] = bucket
	}

	return buckets
}
