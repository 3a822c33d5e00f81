package directory

// Subscriber handles event subscriptions.
type Subscriber struct {
	done                   chan struct{}
	delegatesHandler       func(DelegatesUpdated)
	listFetchFailedHandler func(ListFetchFailed)
	delegateHandler        func(DelegateLoaded)
	activityHandler        func(ActivityUpdated)
}

// OnDelegatesUpdated sets the handler for DelegatesUpdated events
func OnDelegatesUpdated(fn func(DelegatesUpdated)) func(*Subscriber) {
	return func(s *Subscriber) { s.delegatesHandler = fn }
}

// OnListFetchFailed sets the handler for ListFetchFailed events
func OnListFetchFailed(fn func(ListFetchFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.listFetchFailedHandler = fn }
}

// OnDelegateLoaded sets the handler for DelegateLoaded events
func OnDelegateLoaded(fn func(DelegateLoaded)) func(*Subscriber) {
	return func(s *Subscriber) { s.delegateHandler = fn }
}

// OnActivityUpdated sets the handler for ActivityUpdated events
func OnActivityUpdated(fn func(ActivityUpdated)) func(*Subscriber) {
	return func(s *Subscriber) { s.activityHandler = fn }
}

// NewSubscriber creates a Subscriber with the given options and starts the
// dispatch loop. It returns a closer function that waits for all events to be
// processed.
//
// Example:
//
//	closer := directory.NewSubscriber(svc.Events(),
//	  directory.OnDelegatesUpdated(func(e DelegatesUpdated) { ... }),
//	)
//	defer closer() // Ensures all events processed before exit
//
// The subscriber processes events until the events channel closes
// (Service.Close), then the closer function confirms completion.
func NewSubscriber(events <-chan Event, opts ...func(*Subscriber)) func() {
	s := &Subscriber{
		done:                   make(chan struct{}),
		delegatesHandler:       func(DelegatesUpdated) {}, // nop by default
		listFetchFailedHandler: func(ListFetchFailed) {},  // nop by default
		delegateHandler:        func(DelegateLoaded) {},   // nop by default
		activityHandler:        func(ActivityUpdated) {},  // nop by default
	}

	for _, opt := range opts {
		opt(s)
	}

	// Start the dispatch loop immediately
	go func() {
		defer close(s.done)
		for ev := range events {
			switch e := ev.(type) {
			case DelegatesUpdated:
				s.delegatesHandler(e)
			case ListFetchFailed:
				s.listFetchFailedHandler(e)
			case DelegateLoaded:
				s.delegateHandler(e)
			case ActivityUpdated:
				s.activityHandler(e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}
