package schemes

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"delegatedir/directory"
)

const (
	aaveEndpoint = "https://api.thegraph.com/subgraphs/name/governance/aave-governance-v2"
	aaveContract = "0x7fc66500c84a76ad7e9c93437bba4029e63a4efa"

	// voting power, as opposed to proposition power
	aaveVotingPowerType = 0
)

// aave is the Aave-style delegation scheme: voting and proposition power are
// delegated separately through delegateByType, and the subgraph models
// delegates as users with an explicit voting-power field.
type aave struct {
	endpoint string
	contract string
}

func newAave(cfg Config) *aave {
	a := &aave{
		endpoint: aaveEndpoint,
		contract: aaveContract,
	}
	if cfg.Endpoint != "" {
		a.endpoint = cfg.Endpoint
	}
	if cfg.Contract != "" {
		a.contract = cfg.Contract
	}
	return a
}

func (a *aave) ID() string       { return Aave }
func (a *aave) Endpoint() string { return a.endpoint }

func (a *aave) DelegatesQuery(limit, offset int, orderBy string) (string, map[string]any) {
	query := `query ($first: Int!, $skip: Int!, $orderBy: String!) {
  users(first: $first, skip: $skip, orderBy: $orderBy, orderDirection: desc) {
    id
    aaveDelegatedVotingPower
    numberVotingRepresentatives
    numberVotes
    numberProposals
  }
}`
	return query, map[string]any{
		"first":   limit,
		"skip":    offset,
		"orderBy": orderBy,
	}
}

func (a *aave) DelegateQuery(addr string) (string, map[string]any) {
	query := `query ($id: ID!) {
  user(id: $id) {
    id
    aaveDelegatedVotingPower
    numberVotingRepresentatives
    numberVotes
    numberProposals
  }
}`
	return query, map[string]any{"id": strings.ToLower(addr)}
}

func (a *aave) BalanceQuery(addr string) (string, map[string]any) {
	query := `query ($id: ID!) {
  user(id: $id) {
    id
    aaveBalance
  }
}`
	return query, map[string]any{"id": strings.ToLower(addr)}
}

// aaveUser is the subgraph wire shape of a delegate entity.
type aaveUser struct {
	ID                          string `json:"id"`
	AaveDelegatedVotingPower    string `json:"aaveDelegatedVotingPower"`
	NumberVotingRepresentatives int64  `json:"numberVotingRepresentatives"`
	NumberVotes                 int64  `json:"numberVotes"`
	NumberProposals             int64  `json:"numberProposals"`
}

func (a *aave) ParseDelegates(data json.RawMessage) ([]directory.Delegate, error) {
	var body struct {
		Users []aaveUser `json:"users"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decoding users: %w", err)
	}

	delegates := make([]directory.Delegate, len(body.Users))
	for i, raw := range body.Users {
		d, err := a.convertUser(raw)
		if err != nil {
			return nil, err
		}
		delegates[i] = d
	}
	return delegates, nil
}

func (a *aave) ParseDelegate(data json.RawMessage) (*directory.Delegate, error) {
	var body struct {
		User *aaveUser `json:"user"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	if body.User == nil {
		return nil, nil
	}

	d, err := a.convertUser(*body.User)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (a *aave) convertUser(raw aaveUser) (directory.Delegate, error) {
	power, err := strconv.ParseFloat(raw.AaveDelegatedVotingPower, 64)
	if err != nil {
		return directory.Delegate{}, fmt.Errorf("parsing aaveDelegatedVotingPower %q: %w", raw.AaveDelegatedVotingPower, err)
	}
	return directory.Delegate{
		Address:        raw.ID,
		DelegatedVotes: power,
		TokenHolders:   raw.NumberVotingRepresentatives,
		VoteCount:      raw.NumberVotes,
		ProposalCount:  raw.NumberProposals,
	}, nil
}

func (a *aave) ParseBalance(data json.RawMessage) (directory.Balance, error) {
	var body struct {
		User *struct {
			ID          string `json:"id"`
			AaveBalance string `json:"aaveBalance"`
		} `json:"user"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return directory.Balance{}, fmt.Errorf("decoding user: %w", err)
	}
	if body.User == nil {
		return directory.Balance{}, nil
	}

	amount, err := strconv.ParseFloat(body.User.AaveBalance, 64)
	if err != nil {
		return directory.Balance{}, fmt.Errorf("parsing aaveBalance %q: %w", body.User.AaveBalance, err)
	}
	return directory.Balance{
		Address: body.User.ID,
		Amount:  amount,
	}, nil
}

func (a *aave) EmptyDelegate(addr string) directory.Delegate {
	return directory.Delegate{Address: strings.ToLower(addr)}
}

func (a *aave) DelegationCall(delegate string) directory.ContractCall {
	return directory.ContractCall{
		Target: a.contract,
		Method: "delegateByType(address,uint8)",
		Args:   []any{delegate, aaveVotingPowerType},
	}
}
