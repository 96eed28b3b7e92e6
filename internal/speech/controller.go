package speech

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a recognition controller state.
type State int

const (
	// StateIdle means no session is active.
	StateIdle State = iota
	// StateListening means a session is active, no final segment yet.
	StateListening
	// StateRecognizing means at least one final segment arrived.
	StateRecognizing
	// StateError means the last session failed; Reset returns to idle.
	StateError
	// StateUnsupported means no engine is available. Terminal.
	StateUnsupported
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateRecognizing:
		return "recognizing"
	case StateError:
		return "error"
	case StateUnsupported:
		return "unsupported"
	}
	return "unknown"
}

// ErrNotSupported is returned by Start when no engine is available.
var ErrNotSupported = errors.New("speech recognition not supported")

// Snapshot is an immutable view of the controller state.
type Snapshot struct {
	SessionID    string
	State        State
	InterimText  string
	FinalText    string
	ErrorMessage string
}

// Transcript returns the combined final and interim text.
func (s Snapshot) Transcript() string {
	return s.FinalText + s.InterimText
}

// Controller drives a recognition engine through a small state machine.
// At most one session is active at a time; starting a new session first
// terminates the old one. All event handling funnels through handle, so
// transitions are testable without a real engine.
type Controller struct {
	mu       sync.Mutex
	engine   Engine
	autoStop time.Duration

	state     State
	session   uint64
	sessionID string
	interim   string
	final     string
	errMsg    string

	timer    *time.Timer
	onChange func(Snapshot)

	// afterFunc is replaced in tests to control the auto-stop clock.
	afterFunc func(time.Duration, func()) *time.Timer
}

// NewController creates a controller over the given engine. A nil engine
// puts the controller in the unsupported state, which blocks all starts.
// autoStop is the quiet period after the last final segment before the
// session is stopped automatically; zero disables auto-stop.
func NewController(engine Engine, autoStop time.Duration) *Controller {
	c := &Controller{
		engine:    engine,
		autoStop:  autoStop,
		afterFunc: time.AfterFunc,
	}
	if engine == nil {
		c.state = StateUnsupported
	}
	return c
}

// SetOnChange registers a callback invoked after every state transition.
// The callback runs outside the controller lock.
func (c *Controller) SetOnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Start begins a new recognition session, terminating any active one.
func (c *Controller) Start(opts Options) error {
	c.mu.Lock()
	if c.state == StateUnsupported {
		c.errMsg = Message(ErrUnsupported)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return ErrNotSupported
	}

	// Terminate the previous session: cancel its timer and invalidate
	// its events before the engine restarts.
	c.cancelTimerLocked()
	wasActive := c.state == StateListening || c.state == StateRecognizing || c.state == StateError
	c.session++
	id := c.session
	c.sessionID = uuid.New().String()
	c.interim, c.final, c.errMsg = "", "", ""
	c.state = StateListening
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if wasActive {
		c.engine.Stop()
	}
	c.notify(snap)

	if err := c.engine.Start(opts, func(ev Event) { c.handle(id, ev) }); err != nil {
		c.mu.Lock()
		if c.session == id {
			c.state = StateError
			c.errMsg = Message(ErrStartFailed)
		}
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return fmt.Errorf("%s: %w", Message(ErrStartFailed), err)
	}
	return nil
}

// handle applies one engine event to the state machine. Events from
// superseded sessions are dropped.
func (c *Controller) handle(id uint64, ev Event) {
	c.mu.Lock()
	if id != c.session || (c.state != StateListening && c.state != StateRecognizing) {
		c.mu.Unlock()
		return
	}

	switch ev.Kind {
	case EventStarted:
		// already listening

	case EventResults:
		var interim, final strings.Builder
		for _, seg := range ev.Segments {
			if seg.Final {
				final.WriteString(seg.Text)
			} else {
				interim.WriteString(seg.Text)
			}
		}
		// Interim text is a revision, final text accumulates.
		c.interim = interim.String()
		if final.Len() > 0 {
			c.final += final.String()
			c.state = StateRecognizing
			c.armTimerLocked(id)
		}

	case EventError:
		c.cancelTimerLocked()
		c.state = StateError
		c.errMsg = Message(ev.Code)

	case EventEnded:
		c.cancelTimerLocked()
		c.state = StateIdle
	}

	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Stop ends the active session. Idempotent: calling it with no active
// session changes nothing. An engine error does not necessarily end the
// engine session, so stopping from the error state still stops the
// engine; the error message survives until Reset.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.cancelTimerLocked()
	if c.state != StateListening && c.state != StateRecognizing && c.state != StateError {
		c.mu.Unlock()
		return
	}
	c.session++ // drop in-flight engine events
	c.state = StateIdle
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.engine.Stop()
	c.notify(snap)
}

// Reset stops any active session and clears transcript and error state.
func (c *Controller) Reset() {
	c.Stop()

	c.mu.Lock()
	if c.state != StateUnsupported {
		c.state = StateIdle
	}
	c.interim, c.final, c.errMsg, c.sessionID = "", "", "", ""
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Close tears the controller down: the active session is stopped, the
// pending timer cancelled and the change callback detached.
func (c *Controller) Close() {
	c.Stop()
	c.mu.Lock()
	c.onChange = nil
	c.mu.Unlock()
}

// Snapshot returns the current controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns the combined final and interim text.
func (c *Controller) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.final + c.interim
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:    c.sessionID,
		State:        c.state,
		InterimText:  c.interim,
		FinalText:    c.final,
		ErrorMessage: c.errMsg,
	}
}

// armTimerLocked (re)starts the auto-stop countdown for session id.
func (c *Controller) armTimerLocked(id uint64) {
	if c.autoStop <= 0 {
		return
	}
	c.cancelTimerLocked()
	c.timer = c.afterFunc(c.autoStop, func() {
		c.mu.Lock()
		stale := id != c.session
		c.mu.Unlock()
		if !stale {
			c.Stop()
		}
	})
}

func (c *Controller) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) notify(snap Snapshot) {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}
