package speech

import (
	"sync"
	"time"
)

// ScriptedEvent is one step of a scripted session.
type ScriptedEvent struct {
	After time.Duration
	Event Event
}

// ScriptedEngine replays a fixed event sequence. It stands in for a real
// speech engine in tests and demo runs where no microphone is available.
type ScriptedEngine struct {
	Script []ScriptedEvent

	mu     sync.Mutex
	cancel chan struct{}
}

// Start begins replaying the script on a background goroutine.
func (e *ScriptedEngine) Start(opts Options, emit func(Event)) error {
	e.mu.Lock()
	if e.cancel != nil {
		close(e.cancel)
	}
	cancel := make(chan struct{})
	e.cancel = cancel
	script := e.Script
	e.mu.Unlock()

	go func() {
		emit(Event{Kind: EventStarted})
		for _, step := range script {
			if step.After > 0 {
				select {
				case <-cancel:
					return
				case <-time.After(step.After):
				}
			} else {
				select {
				case <-cancel:
					return
				default:
				}
			}
			emit(step.Event)
		}
	}()
	return nil
}

// Stop cancels the replay goroutine.
func (e *ScriptedEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		close(e.cancel)
		e.cancel = nil
	}
}

// DictationScript builds a script that dictates the given phrase as an
// interim revision followed by a final segment, then ends the session.
func DictationScript(phrase string, pace time.Duration) []ScriptedEvent {
	return []ScriptedEvent{
		{After: pace, Event: Event{Kind: EventResults, Segments: []Segment{{Text: phrase, Final: false}}}},
		{After: pace, Event: Event{Kind: EventResults, Segments: []Segment{{Text: phrase, Final: true}}}},
		{After: pace, Event: Event{Kind: EventEnded}},
	}
}
