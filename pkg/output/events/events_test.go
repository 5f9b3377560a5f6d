package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficsieve/trafficsieve/pkg/jsonutil"
)

func TestNewBase(t *testing.T) {
	before := time.Now()
	b := NewBase(EventTypeMatch, "run-1")

	assert.Equal(t, EventTypeMatch, b.EventType())
	assert.Equal(t, "run-1", b.RunID())
	assert.False(t, b.Timestamp().Before(before))
}

func TestEventsImplementInterface(t *testing.T) {
	all := []Event{
		&StartEvent{BaseEvent: NewBase(EventTypeStart, "r")},
		&MatchEvent{BaseEvent: NewBase(EventTypeMatch, "r")},
		&SummaryEvent{BaseEvent: NewBase(EventTypeSummary, "r")},
		&ErrorEvent{BaseEvent: NewBase(EventTypeError, "r")},
		&CompleteEvent{BaseEvent: NewBase(EventTypeComplete, "r")},
	}
	for _, e := range all {
		assert.Equal(t, "r", e.RunID())
	}
}

func TestMatchEventJSON(t *testing.T) {
	e := &MatchEvent{
		BaseEvent:  NewBase(EventTypeMatch, "abc"),
		Index:      2,
		StatusLine: "HTTP/1.1 200 OK",
		Valid:      1,
	}
	data, err := jsonutil.Marshal(e)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"type":"match"`)
	assert.Contains(t, s, `"run_id":"abc"`)
	assert.Contains(t, s, `"status_line":"HTTP/1.1 200 OK"`)
	assert.NotContains(t, s, "request_line", "empty request line is omitted")
}
