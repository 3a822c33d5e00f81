package directory

import (
	"encoding/json"
	"strings"
	"time"
)

// Delegate represents a delegate in the directory domain model.
// This is the canonical representation produced by scheme formatters.
type Delegate struct {
	Address        string
	DelegatedVotes float64
	TokenHolders   int64
	VoteCount      int64
	ProposalCount  int64
}

// Key returns the stable map identity of the delegate (lower-cased address).
func (d Delegate) Key() string {
	return strings.ToLower(d.Address)
}

// Balance is a formatted token balance for a single address.
type Balance struct {
	Address string
	Amount  float64
}

// Vote is a single cast vote from the combined activity feed.
// Choice is scheme-defined and kept opaque.
type Vote struct {
	Created     time.Time
	Voter       string
	Choice      json.RawMessage
	VotingPower float64
}

// Proposal is a single authored proposal from the combined activity feed.
type Proposal struct {
	Created time.Time
	Author  string
	Title   string
}

// Activity holds one delegate's partition of the combined feed.
// Both slices keep feed order and are non-nil once the bucket exists.
type Activity struct {
	Votes     []Vote
	Proposals []Proposal
}
