package directory

// Event represents a state-surface change notification
// ----------------------------------------------------
// The presentation layer's reactivity hangs off these; the core itself never
// depends on anyone listening.
type Event any

// DelegatesUpdated is emitted after the delegate list is replaced or grown.
type DelegatesUpdated struct {
	Count    int
	HasMore  bool
	Appended bool
}

// ListFetchFailed is emitted when a list fetch or fetch-more fails and the
// sticky failure flag is set.
type ListFetchFailed struct{}

// DelegateLoaded is emitted after a single delegate record is stored,
// including a synthesized placeholder.
type DelegateLoaded struct {
	Address string
}

// ActivityUpdated is emitted after the activity mapping is replaced.
type ActivityUpdated struct {
	Delegates int
	Votes     int
	Proposals int
}
