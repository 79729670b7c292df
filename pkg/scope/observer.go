package scope

// EventKind identifies a scope lifecycle event.
type EventKind uint8

const (
	EventStarted EventKind = iota + 1
	EventFolded
	EventFinished
	EventNotified
	EventUnsubscribed
	EventReaped
	EventDisposed
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventFolded:
		return "folded"
	case EventFinished:
		return "finished"
	case EventNotified:
		return "notified"
	case EventUnsubscribed:
		return "unsubscribed"
	case EventReaped:
		return "reaped"
	case EventDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Event describes one transition of a scope.
type Event struct {
	Kind    EventKind
	ScopeID uint64
	Mode    UsageMode

	// Version is the scope's snapshot after the event.
	Version int32

	// Action is set for EventStarted and EventFolded.
	Action Action

	// Restored is the scope reinstated by EventFinished, or 0.
	Restored uint64
}

// Observer receives scope events. Notify events may arrive on whichever
// goroutine wrote the signal, so implementations must be safe for
// concurrent use.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f.
func (f ObserverFunc) Observe(ev Event) { f(ev) }

type multiObserver []Observer

func (m multiObserver) Observe(ev Event) {
	for _, o := range m {
		o.Observe(ev)
	}
}

// Observers fans events out to every non-nil observer.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return nopObserver{}
	case 1:
		return m[0]
	}
	return m
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
