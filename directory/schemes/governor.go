package schemes

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"delegatedir/directory"
)

const (
	governorEndpoint = "https://api.thegraph.com/subgraphs/name/governance/governor-bravo"
	governorContract = "0x1f9840a85d5af5bf1d1762f925bdaddc4201f984"
)

// governor is the Governor-Bravo-style delegation scheme: delegates carry
// delegatedVotes and represented token holders, and voting power is
// delegated through the token's delegate(address) call.
type governor struct {
	endpoint string
	contract string
}

func newGovernor(cfg Config) *governor {
	g := &governor{
		endpoint: governorEndpoint,
		contract: governorContract,
	}
	if cfg.Endpoint != "" {
		g.endpoint = cfg.Endpoint
	}
	if cfg.Contract != "" {
		g.contract = cfg.Contract
	}
	return g
}

func (g *governor) ID() string       { return Governor }
func (g *governor) Endpoint() string { return g.endpoint }

func (g *governor) DelegatesQuery(limit, offset int, orderBy string) (string, map[string]any) {
	query := `query ($first: Int!, $skip: Int!, $orderBy: String!) {
  delegates(first: $first, skip: $skip, orderBy: $orderBy, orderDirection: desc) {
    id
    delegatedVotes
    tokenHoldersRepresentedAmount
    votes { id }
    proposals { id }
  }
}`
	return query, map[string]any{
		"first":   limit,
		"skip":    offset,
		"orderBy": orderBy,
	}
}

func (g *governor) DelegateQuery(addr string) (string, map[string]any) {
	query := `query ($id: ID!) {
  delegate(id: $id) {
    id
    delegatedVotes
    tokenHoldersRepresentedAmount
    votes { id }
    proposals { id }
  }
}`
	return query, map[string]any{"id": strings.ToLower(addr)}
}

func (g *governor) BalanceQuery(addr string) (string, map[string]any) {
	query := `query ($id: ID!) {
  tokenHolder(id: $id) {
    id
    tokenBalance
  }
}`
	return query, map[string]any{"id": strings.ToLower(addr)}
}

// governorDelegate is the subgraph wire shape of a delegate entity.
type governorDelegate struct {
	ID                            string `json:"id"`
	DelegatedVotes                string `json:"delegatedVotes"`
	TokenHoldersRepresentedAmount int64  `json:"tokenHoldersRepresentedAmount"`
	Votes                         []struct {
		ID string `json:"id"`
	} `json:"votes"`
	Proposals []struct {
		ID string `json:"id"`
	} `json:"proposals"`
}

func (g *governor) ParseDelegates(data json.RawMessage) ([]directory.Delegate, error) {
	var body struct {
		Delegates []governorDelegate `json:"delegates"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decoding delegates: %w", err)
	}

	delegates := make([]directory.Delegate, len(body.Delegates))
	for i, raw := range body.Delegates {
		d, err := g.convertDelegate(raw)
		if err != nil {
			return nil, err
		}
		delegates[i] = d
	}
	return delegates, nil
}

func (g *governor) ParseDelegate(data json.RawMessage) (*directory.Delegate, error) {
	var body struct {
		Delegate *governorDelegate `json:"delegate"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decoding delegate: %w", err)
	}
	if body.Delegate == nil {
		return nil, nil
	}

	d, err := g.convertDelegate(*body.Delegate)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (g *governor) convertDelegate(raw governorDelegate) (directory.Delegate, error) {
	votes, err := strconv.ParseFloat(raw.DelegatedVotes, 64)
	if err != nil {
		return directory.Delegate{}, fmt.Errorf("parsing delegatedVotes %q: %w", raw.DelegatedVotes, err)
	}
	return directory.Delegate{
		Address:        raw.ID,
		DelegatedVotes: votes,
		TokenHolders:   raw.TokenHoldersRepresentedAmount,
		VoteCount:      int64(len(raw.Votes)),
		ProposalCount:  int64(len(raw.Proposals)),
	}, nil
}

func (g *governor) ParseBalance(data json.RawMessage) (directory.Balance, error) {
	var body struct {
		TokenHolder *struct {
			ID           string `json:"id"`
			TokenBalance string `json:"tokenBalance"`
		} `json:"tokenHolder"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return directory.Balance{}, fmt.Errorf("decoding tokenHolder: %w", err)
	}
	if body.TokenHolder == nil {
		return directory.Balance{}, nil
	}

	amount, err := strconv.ParseFloat(body.TokenHolder.TokenBalance, 64)
	if err != nil {
		return directory.Balance{}, fmt.Errorf("parsing tokenBalance %q: %w", body.TokenHolder.TokenBalance, err)
	}
	return directory.Balance{
		Address: body.TokenHolder.ID,
		Amount:  amount,
	}, nil
}

func (g *governor) EmptyDelegate(addr string) directory.Delegate {
	return directory.Delegate{Address: strings.ToLower(addr)}
}

func (g *governor) DelegationCall(delegate string) directory.ContractCall {
	return directory.ContractCall{
		Target: g.contract,
		Method: "delegate(address)",
		Args:   []any{delegate},
	}
}
