package stream

import "github.com/jrsteele09/go-smartfaq/client"

// State is the connection lifecycle of a stream client.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// EventKind discriminates the Event union.
type EventKind int

const (
	// EventQA delivers one generated question/answer pair.
	EventQA EventKind = iota
	// EventCompleted ends a generation successfully; FAQ holds the final record.
	EventCompleted
	// EventStopped ends a generation that was cancelled.
	EventStopped
	// EventFailed reports a generation or protocol failure.
	EventFailed
	// EventConnState reports a connection state change.
	EventConnState
)

func (k EventKind) String() string {
	switch k {
	case EventQA:
		return "qa"
	case EventCompleted:
		return "completed"
	case EventStopped:
		return "stopped"
	case EventFailed:
		return "failed"
	case EventConnState:
		return "conn_state"
	default:
		return "unknown"
	}
}

// Event is one occurrence on the stream. Generation is zero for events not
// tied to a generation (connection state changes, protocol errors).
type Event struct {
	Kind       EventKind
	Generation uint64

	// QA events
	QA client.QuestionAnswer

	// Completed/Stopped events: the accumulated pairs of the generation,
	// update mode already applied. FAQ is the backend's final record when the
	// terminal status carried one.
	Pairs []client.QuestionAnswer
	FAQ   *client.FAQ

	// Failed events
	Err error

	// ConnState events
	State State
}
