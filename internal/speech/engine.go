// Package speech wraps a host speech-to-text capability in a small
// state machine with interim/final transcript tracking and auto-stop.
package speech

// Segment is one piece of a recognition result batch.
type Segment struct {
	Text  string
	Final bool
}

// EventKind identifies the type of an engine event.
type EventKind int

const (
	// EventStarted signals that the engine session began consuming audio.
	EventStarted EventKind = iota
	// EventResults carries a batch of interim/final segments.
	EventResults
	// EventError signals an engine failure; Code is set.
	EventError
	// EventEnded signals that the engine session ended naturally.
	EventEnded
)

// Event is a single message from the engine to the controller.
type Event struct {
	Kind     EventKind
	Segments []Segment
	Code     ErrorCode
}

// Options configures a recognition session.
type Options struct {
	Language        string
	Continuous      bool
	InterimResults  bool
	MaxAlternatives int
}

// DefaultOptions returns session options suitable for dictated queries.
func DefaultOptions(language string) Options {
	return Options{
		Language:        language,
		Continuous:      true,
		InterimResults:  true,
		MaxAlternatives: 1,
	}
}

// Engine is the host speech-to-text capability. Implementations deliver
// events through the emit callback registered at Start. After Stop returns,
// no further events may be emitted for that session.
type Engine interface {
	// Start begins consuming microphone input. An error here means the
	// session never became active.
	Start(opts Options, emit func(Event)) error

	// Stop cancels the active session, if any. Safe to call repeatedly.
	Stop()
}
