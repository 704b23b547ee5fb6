// Package telemetry keeps a local journal of application lifecycle events
// (registration, update checks, updates) for later collection.
package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/fsutil"
	"github.com/google/uuid"
)

// JournalFile is the journal's name inside its directory.
const JournalFile = "telemetry.jsonl"

// EventType classifies an event.
type EventType string

const (
	EventLaunch      EventType = "LAUNCH"
	EventShutdown    EventType = "SHUTDOWN"
	EventUpdateCheck EventType = "UPDATE_CHECK"
	EventUpdate      EventType = "UPDATE"
	EventRegister    EventType = "REGISTER"
	EventDeregister  EventType = "DEREGISTER"
	EventCustom      EventType = "CUSTOM"
)

// Event is one journal entry.
type Event struct {
	Type        EventType `json:"type"`
	Description string    `json:"description,omitempty"`
	AppID       string    `json:"appId"`
	Scope       string    `json:"scope"`
	Packaging   string    `json:"packaging,omitempty"`
	RunID       string    `json:"runId"`
	UserID      string    `json:"userId,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// Journal appends events as JSON lines to a file. Every Journal has its own
// run id, stamped on each event it records.
type Journal struct {
	path   string
	runID  string
	userID string
	now    func() time.Time

	mu sync.Mutex
}

// NewJournal creates a journal in dir for the given user id.
func NewJournal(dir, userID string) *Journal {
	return &Journal{
		path:   filepath.Join(dir, JournalFile),
		runID:  NewID(),
		userID: userID,
		now:    time.Now,
	}
}

// RunID returns the id stamped on events recorded by this journal.
func (j *Journal) RunID() string { return j.runID }

// UserID returns the user id stamped on events.
func (j *Journal) UserID() string { return j.userID }

// Path returns the journal file.
func (j *Journal) Path() string { return j.path }

// Record appends ev to the journal. AppID and Scope are required.
func (j *Journal) Record(ev Event) error {
	if ev.AppID == "" {
		return errors.Wrap(errors.ErrInvalidEvent, "app id must be set")
	}
	if ev.Scope == "" {
		return errors.Wrap(errors.ErrInvalidEvent, "app scope must be set")
	}
	if ev.Type == "" {
		ev.Type = EventCustom
	}
	ev.RunID = j.runID
	ev.UserID = j.userID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = j.now().UTC()
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "failed to encode telemetry event")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(err, "failed to create telemetry directory")
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, fsutil.FileModeSecure)
	if err != nil {
		return errors.Wrap(err, "failed to open telemetry journal")
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return errors.Wrap(err, "failed to write telemetry event")
	}
	return nil
}

// Drain moves the journal aside and returns its events. Lines that do not
// decode are skipped. A missing journal yields no events.
func (j *Journal) Drain() ([]Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	aside := j.path + "." + NewID() + ".tmp"
	if err := os.Rename(j.path, aside); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to move telemetry journal")
	}
	defer os.Remove(aside)

	f, err := os.Open(aside)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open drained journal")
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			logger.Debug("Skipping unreadable telemetry line", logger.Fields{"error": err})
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, errors.Wrap(err, "failed to read drained journal")
	}
	return events, nil
}
