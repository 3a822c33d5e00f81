package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// Option configures the Service
// ------------------------------------------------
type Option func(*Service)

// WithLogger injects a custom logger (defaults to slog.Default).
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithPageSize overrides the delegate page size (e.g. for testing).
func WithPageSize(n int) Option {
	return func(s *Service) { s.pageSize = n }
}

// WithTxSender injects the transaction submission boundary, enabling SetDelegate.
func WithTxSender(sender TxSender) Option {
	return func(s *Service) { s.sender = sender }
}

// guard is a reentrancy flag: an operation family is skipped entirely while
// a previous invocation of the same family is still in flight.
type guard struct {
	busy atomic.Bool
}

func (g *guard) tryAcquire() bool { return g.busy.CompareAndSwap(false, true) }
func (g *guard) release()         { g.busy.Store(false) }
func (g *guard) isBusy() bool     { return g.busy.Load() }

// Service owns the directory state surface and drives all fetch operations
// -------------------------------------------------------------------------
// Three independent reentrancy guards protect the list-fetch, list-fetch-more
// and single-delegate-fetch families; a busy family silently ignores new
// calls. The fresh-fetch and fetch-more guards are deliberately separate
// state machines: a fresh fetch and an append fetch may interleave, and the
// ordering of that race is left to the caller (see FetchMoreDelegates).
type Service struct {
	scheme   Scheme
	querier  Querier
	resolver NameResolver
	sender   TxSender
	log      *slog.Logger
	pageSize int
	events   chan Event
	closed   atomic.Bool

	listGuard guard
	moreGuard guard
	oneGuard  guard

	mu           sync.Mutex
	delegates    []Delegate
	delegate     *Delegate
	activity     map[string]Activity
	hasMore      bool
	listFailed   bool
	lastResolved string
}

// NewService constructs a Service with required dependencies and options
// ----------------------------------------------------------------------
// By default it uses slog.Default and an 18-delegate page size.
func NewService(scheme Scheme, querier Querier, resolver NameResolver, opts ...Option) *Service {
	s := &Service{
		scheme:   scheme,
		querier:  querier,
		resolver: resolver,
		log:      slog.Default(),
		pageSize: DefaultPageSize,
		events:   make(chan Event, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the state-change event stream consumed by the presentation
// layer, typically through a Subscriber. Emission is best-effort: events are
// dropped when nothing drains the channel.
func (s *Service) Events() <-chan Event {
	return s.events
}

// Close closes the event stream. No operation may be started after Close.
func (s *Service) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.events)
	}
}

func (s *Service) emit(ev Event) {
	if s.closed.Load() {
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}

// FetchDelegates replaces the delegate list with the first page
// -------------------------------------------------------------
// A call while the list-fetch guard is busy is a silent no-op. On success the
// collection is replaced, the sticky failure flag cleared and hasMore set
// optimistically (a full page claims more, corrected only by the next short
// page). On failure the prior collection stays visible and the sticky
// failure flag is set.
func (s *Service) FetchDelegates(ctx context.Context, orderBy string) {
	if !s.listGuard.tryAcquire() {
		return
	}
	defer s.listGuard.release()

	page, err := s.fetchPage(ctx, 0, orderBy)
	if err != nil {
		s.log.ErrorContext(ctx, "Delegate list fetch failed", slog.Any("error", err))
		s.setListFailed()
		return
	}

	s.mu.Lock()
	s.delegates = page
	s.hasMore = len(page) == s.pageSize
	s.listFailed = false
	s.mu.Unlock()

	s.emit(DelegatesUpdated{Count: len(page), HasMore: len(page) == s.pageSize})
}

// FetchMoreDelegates appends the next page to the delegate list
// -------------------------------------------------------------
// A call while the list is empty or the fetch-more guard is busy is a silent
// no-op. The next page starts at the current collection length; appended
// pages are never deduplicated. The pager does not record which orderBy
// produced the current collection; keeping it consistent across calls is the
// caller's contract.
func (s *Service) FetchMoreDelegates(ctx context.Context, orderBy string) {
	s.mu.Lock()
	offset := len(s.delegates)
	s.mu.Unlock()
	if offset == 0 {
		return
	}

	if !s.moreGuard.tryAcquire() {
		return
	}
	defer s.moreGuard.release()

	page, err := s.fetchPage(ctx, offset, orderBy)
	if err != nil {
		s.log.ErrorContext(ctx, "Delegate list fetch-more failed",
			slog.Int("offset", offset),
			slog.Any("error", err),
		)
		s.setListFailed()
		return
	}

	s.mu.Lock()
	s.delegates = append(s.delegates, page...)
	s.hasMore = len(page) == s.pageSize
	s.listFailed = false
	total := len(s.delegates)
	s.mu.Unlock()

	s.emit(DelegatesUpdated{Count: total, HasMore: len(page) == s.pageSize, Appended: true})
}

func (s *Service) fetchPage(ctx context.Context, offset int, orderBy string) ([]Delegate, error) {
	query, vars := s.scheme.DelegatesQuery(s.pageSize, offset, orderBy)
	data, err := s.querier.Query(ctx, s.scheme.Endpoint(), query, vars)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	page, err := s.scheme.ParseDelegates(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormatFailed, err)
	}
	return page, nil
}

func (s *Service) setListFailed() {
	s.mu.Lock()
	s.listFailed = true
	s.mu.Unlock()
	s.emit(ListFetchFailed{})
}

// FetchDelegate resolves an identifier and loads that delegate's record
// ---------------------------------------------------------------------
// A call while the single-fetch guard is busy is a silent no-op. The current
// record is cleared up front. An identifier that does not resolve is a valid
// empty outcome: the record stays nil and no failure is flagged. An address
// with no delegate entity yields the scheme's synthesized placeholder.
// Resolver or transport failures are logged and swallowed; unlike the pager
// this operation sets no failure flag.
func (s *Service) FetchDelegate(ctx context.Context, identifier string) {
	if !s.oneGuard.tryAcquire() {
		return
	}
	defer s.oneGuard.release()

	s.mu.Lock()
	s.delegate = nil
	s.mu.Unlock()

	addr, ok, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		s.log.ErrorContext(ctx, "Name resolution failed",
			slog.String("identifier", identifier),
			slog.Any("error", err),
		)
		return
	}
	if !ok {
		return
	}
	addr = strings.ToLower(addr)

	s.mu.Lock()
	s.lastResolved = addr
	s.mu.Unlock()

	query, vars := s.scheme.DelegateQuery(addr)
	data, err := s.querier.Query(ctx, s.scheme.Endpoint(), query, vars)
	if err != nil {
		s.log.ErrorContext(ctx, "Delegate fetch failed",
			slog.String("address", addr),
			slog.Any("error", err),
		)
		return
	}

	record, err := s.scheme.ParseDelegate(data)
	if err != nil {
		s.log.ErrorContext(ctx, "Delegate formatting failed",
			slog.String("address", addr),
			slog.Any("error", err),
		)
		return
	}
	if record == nil {
		empty := s.scheme.EmptyDelegate(addr)
		record = &empty
	}

	s.mu.Lock()
	s.delegate = record
	s.mu.Unlock()

	s.emit(DelegateLoaded{Address: record.Address})
}

// FetchDelegateBalance is a stateless pass-through: it builds, executes and
// formats a balance query for the lower-cased id and returns the result
// directly. No guard, no state mutation; the caller owns error handling.
func (s *Service) FetchDelegateBalance(ctx context.Context, id string) (Balance, error) {
	id = strings.ToLower(id)

	query, vars := s.scheme.BalanceQuery(id)
	data, err := s.querier.Query(ctx, s.scheme.Endpoint(), query, vars)
	if err != nil {
		return Balance{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	balance, err := s.scheme.ParseBalance(data)
	if err != nil {
		return Balance{}, fmt.Errorf("%w: %w", ErrFormatFailed, err)
	}
	return balance, nil
}

// SetDelegate submits the scheme's delegation call for the given delegate.
// This is the only operation whose failure propagates to the caller.
func (s *Service) SetDelegate(ctx context.Context, delegate string) (TxHandle, error) {
	if s.sender == nil {
		return "", ErrNoTxSender
	}
	return s.sender.Send(ctx, s.scheme.DelegationCall(delegate))
}

// State surface accessors
// -----------------------

// Delegates returns a copy of the current delegate list.
func (s *Service) Delegates() []Delegate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Delegate, len(s.delegates))
	copy(out, s.delegates)
	return out
}

// Delegate returns a copy of the currently loaded delegate, or nil.
func (s *Service) Delegate() *Delegate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delegate == nil {
		return nil
	}
	d := *s.delegate
	return &d
}

// Activity returns a copy of the per-delegate activity mapping.
func (s *Service) Activity() map[string]Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Activity, len(s.activity))
	for k, v := range s.activity {
		out[k] = v
	}
	return out
}

// HasMore reports whether the last fetched page claimed further pages exist.
func (s *Service) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// ListFailed reports the sticky list-failure flag. It stays set until the
// next successful fetch of the list family.
func (s *Service) ListFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listFailed
}

// LastResolvedAddress returns the address of the most recent successful name
// resolution.
func (s *Service) LastResolvedAddress() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResolved
}

// IsFetching reports whether a fresh list fetch is in flight.
func (s *Service) IsFetching() bool { return s.listGuard.isBusy() }

// IsFetchingMore reports whether a fetch-more is in flight.
func (s *Service) IsFetchingMore() bool { return s.moreGuard.isBusy() }

// IsFetchingDelegate reports whether a single-delegate fetch is in flight.
func (s *Service) IsFetchingDelegate() bool { return s.oneGuard.isBusy() }
