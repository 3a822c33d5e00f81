// Package directory orchestrates a delegate-voting directory: paginated
// delegate listing, single-delegate resolution, per-delegate activity
// aggregation and delegation submission over a governance subgraph.
package directory

import (
	"context"
	"encoding/json"
	"errors"
)

// Sentinel errors for failure cases
var (
	ErrQueryFailed  = errors.New("subgraph query failed")
	ErrFormatFailed = errors.New("response formatting failed")
	ErrNoTxSender   = errors.New("no transaction sender configured")
)

// DefaultPageSize is the number of delegates fetched per page.
const DefaultPageSize = 18

// Querier executes a structured query against a named endpoint
// ------------------------------------------------------------
type Querier interface {
	Query(ctx context.Context, endpoint, query string, vars map[string]any) (json.RawMessage, error)
}

// NameResolver maps a human identifier to a canonical address.
// ok=false means the name did not resolve; that is a valid empty
// outcome, not an error.
type NameResolver interface {
	Resolve(ctx context.Context, name string) (addr string, ok bool, err error)
}

// ContractCall describes a delegation call to submit on chain.
type ContractCall struct {
	Target string
	Method string
	Args   []any
}

// TxHandle identifies a submitted transaction.
type TxHandle string

// TxSender signs and submits a contract call.
type TxSender interface {
	Send(ctx context.Context, call ContractCall) (TxHandle, error)
}

// Scheme is the per-delegation-scheme capability set: query builders,
// response formatters, placeholder synthesis and the delegation call
// descriptor. The core never branches on which variant is active.
type Scheme interface {
	// ID returns the scheme identifier the variant was registered under.
	ID() string
	// Endpoint returns the subgraph endpoint queried by this scheme.
	Endpoint() string

	DelegatesQuery(limit, offset int, orderBy string) (query string, vars map[string]any)
	DelegateQuery(addr string) (query string, vars map[string]any)
	BalanceQuery(addr string) (query string, vars map[string]any)

	ParseDelegates(data json.RawMessage) ([]Delegate, error)
	// ParseDelegate returns (nil, nil) when the response carries no
	// delegate entity; callers synthesize a placeholder in that case.
	ParseDelegate(data json.RawMessage) (*Delegate, error)
	ParseBalance(data json.RawMessage) (Balance, error)

	// EmptyDelegate synthesizes a zero-valued record anchored to addr,
	// so a never-delegated address still yields a displayable delegate.
	EmptyDelegate(addr string) Delegate

	// DelegationCall returns the contract call that delegates voting
	// power to the given delegate.
	DelegationCall(delegate string) ContractCall
}
