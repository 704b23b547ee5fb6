package update

import "sync"

// EventType is the kind of a DownloadEvent.
type EventType int

const (
	EventStart EventType = iota
	EventProgress
	EventEnd
)

func (t EventType) String() string {
	switch t {
	case EventStart:
		return "START"
	case EventProgress:
		return "PROGRESS"
	case EventEnd:
		return "END"
	}
	return "UNKNOWN"
}

// DownloadEvent reports the progress of an artifact download.
type DownloadEvent struct {
	Type EventType
	// Percent is 0-100 for EventProgress, 100 for a successful EventEnd.
	Percent float64
	Message string
	Detail  string
}

// DownloadListener receives download events.
type DownloadListener func(DownloadEvent)

// ListenerID identifies a registered listener for removal.
type ListenerID uint64

// Listeners is a registry of download listeners safe for concurrent use.
// The zero value is ready to use.
type Listeners struct {
	mu      sync.Mutex
	nextID  ListenerID
	entries []listenerEntry
}

type listenerEntry struct {
	id ListenerID
	fn DownloadListener
}

// Add registers fn and returns the id to remove it with.
func (l *Listeners) Add(fn DownloadListener) ListenerID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.entries = append(l.entries, listenerEntry{id: l.nextID, fn: fn})
	return l.nextID
}

// Remove unregisters the listener with the given id. Unknown ids are ignored.
func (l *Listeners) Remove(id ListenerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered listeners.
func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Fire delivers ev to every listener, most recently added first. Listeners
// run on the calling goroutine without the registry lock held.
func (l *Listeners) Fire(ev DownloadEvent) {
	l.mu.Lock()
	snapshot := make([]DownloadListener, len(l.entries))
	for i, e := range l.entries {
		snapshot[len(l.entries)-1-i] = e.fn
	}
	l.mu.Unlock()

	for _, fn := range snapshot {
		fn(ev)
	}
}
