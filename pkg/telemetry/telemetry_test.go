package telemetry

import (
	"os"
	"testing"
	"time"

	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_RecordAndDrain(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir, "user-1")
	fixed := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	j.now = func() time.Time { return fixed }

	_, err := uuid.Parse(j.RunID())
	require.NoError(t, err)

	require.NoError(t, j.Record(Event{Type: EventRegister, AppID: "com.example.app", Scope: "USER", Description: "registered"}))
	require.NoError(t, j.Record(Event{AppID: "com.example.app", Scope: "USER"}))

	events, err := j.Drain()
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, EventRegister, events[0].Type)
	assert.Equal(t, "registered", events[0].Description)
	assert.Equal(t, j.RunID(), events[0].RunID)
	assert.Equal(t, "user-1", events[0].UserID)
	assert.True(t, events[0].Timestamp.Equal(fixed))
	assert.Equal(t, EventCustom, events[1].Type)

	_, err = os.Stat(j.Path())
	assert.True(t, os.IsNotExist(err))

	events, err = j.Drain()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestJournal_RecordValidation(t *testing.T) {
	j := NewJournal(t.TempDir(), "")

	assert.ErrorIs(t, j.Record(Event{Scope: "USER"}), errors.ErrInvalidEvent)
	assert.ErrorIs(t, j.Record(Event{AppID: "a"}), errors.ErrInvalidEvent)
}

func TestJournal_DrainSkipsGarbage(t *testing.T) {
	j := NewJournal(t.TempDir(), "")
	require.NoError(t, j.Record(Event{AppID: "a", Scope: "SYSTEM"}))

	f, err := os.OpenFile(j.Path(), os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	events, err := j.Drain()
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestNewIDIsUnique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
}
