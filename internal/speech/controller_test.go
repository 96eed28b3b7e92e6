package speech

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine records starts/stops and lets tests push events manually.
type fakeEngine struct {
	mu       sync.Mutex
	startErr error
	emit     func(Event)
	starts   int
	stops    int
}

func (f *fakeEngine) Start(opts Options, emit func(Event)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.emit = emit
	return nil
}

func (f *fakeEngine) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeEngine) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func (f *fakeEngine) send(ev Event) {
	f.mu.Lock()
	emit := f.emit
	f.mu.Unlock()
	if emit != nil {
		emit(ev)
	}
}

// fakeClock captures auto-stop timer arms so tests fire them by hand.
type fakeClock struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func()
	armed int
}

func (clk *fakeClock) install(c *Controller) {
	c.afterFunc = func(d time.Duration, fn func()) *time.Timer {
		clk.mu.Lock()
		clk.delay = d
		clk.fn = fn
		clk.armed++
		clk.mu.Unlock()
		// Returned timer only exists to satisfy cancelTimerLocked.
		return time.NewTimer(time.Hour)
	}
}

func (clk *fakeClock) fire() {
	clk.mu.Lock()
	fn := clk.fn
	clk.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (clk *fakeClock) armCount() int {
	clk.mu.Lock()
	defer clk.mu.Unlock()
	return clk.armed
}

func TestControllerUnsupported(t *testing.T) {
	c := NewController(nil, time.Second)
	defer c.Close()

	require.Equal(t, StateUnsupported, c.State())

	err := c.Start(DefaultOptions("en-US"))
	require.ErrorIs(t, err, ErrNotSupported)
	assert.Equal(t, StateUnsupported, c.State())
	assert.Equal(t, Message(ErrUnsupported), c.Snapshot().ErrorMessage)
}

func TestControllerStartFailure(t *testing.T) {
	eng := &fakeEngine{startErr: errors.New("device busy")}
	c := NewController(eng, time.Second)
	defer c.Close()

	err := c.Start(DefaultOptions("en-US"))
	require.Error(t, err)
	assert.Equal(t, StateError, c.State())
	assert.Equal(t, Message(ErrStartFailed), c.Snapshot().ErrorMessage)
}

func TestControllerTranscriptAccumulation(t *testing.T) {
	eng := &fakeEngine{}
	c := NewController(eng, 0)
	defer c.Close()

	require.NoError(t, c.Start(DefaultOptions("en-US")))
	require.Equal(t, StateListening, c.State())

	eng.send(Event{Kind: EventStarted})
	eng.send(Event{Kind: EventResults, Segments: []Segment{{Text: "hel", Final: false}}})
	assert.Equal(t, "hel", c.Transcript())
	assert.Equal(t, StateListening, c.State())

	// Interim text is a revision, not an append.
	eng.send(Event{Kind: EventResults, Segments: []Segment{{Text: "hello ", Final: false}}})
	assert.Equal(t, "hello ", c.Transcript())

	eng.send(Event{Kind: EventResults, Segments: []Segment{
		{Text: "hello ", Final: true},
		{Text: "wor", Final: false},
	}})
	assert.Equal(t, StateRecognizing, c.State())
	snap := c.Snapshot()
	assert.Equal(t, "hello ", snap.FinalText)
	assert.Equal(t, "wor", snap.InterimText)
	assert.Equal(t, "hello wor", snap.Transcript())

	eng.send(Event{Kind: EventResults, Segments: []Segment{{Text: "world", Final: true}}})
	assert.Equal(t, "hello world", c.Snapshot().FinalText)

	eng.send(Event{Kind: EventEnded})
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, "hello world", c.Transcript())
}

func TestControllerAutoStop(t *testing.T) {
	eng := &fakeEngine{}
	c := NewController(eng, 2*time.Second)
	clk := &fakeClock{}
	clk.install(c)
	defer c.Close()

	require.NoError(t, c.Start(DefaultOptions("en-US")))

	// Interim segments never arm the countdown.
	eng.send(Event{Kind: EventResults, Segments: []Segment{{Text: "he", Final: false}}})
	assert.Equal(t, 0, clk.armCount())

	eng.send(Event{Kind: EventResults, Segments: []Segment{{Text: "hello", Final: true}}})
	require.Equal(t, 1, clk.armCount())
	assert.Equal(t, 2*time.Second, clk.delay)

	// Each new final segment re-arms the countdown.
	eng.send(Event{Kind: EventResults, Segments: []Segment{{Text: " world", Final: true}}})
	require.Equal(t, 2, clk.armCount())

	clk.fire()
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 1, eng.stopCount())

	// A late timer fire after stop is stale and does nothing.
	clk.fire()
	assert.Equal(t, 1, eng.stopCount())
}

func TestControllerStopIdempotent(t *testing.T) {
	eng := &fakeEngine{}
	c := NewController(eng, time.Second)
	defer c.Close()

	c.Stop()
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 0, eng.stopCount())

	require.NoError(t, c.Start(DefaultOptions("en-US")))
	c.Stop()
	c.Stop()
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 1, eng.stopCount())
}

func TestControllerErrorMapping(t *testing.T) {
	eng := &fakeEngine{}
	c := NewController(eng, time.Second)
	defer c.Close()

	require.NoError(t, c.Start(DefaultOptions("en-US")))
	eng.send(Event{Kind: EventError, Code: ErrNotAllowed})

	snap := c.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, Message(ErrNotAllowed), snap.ErrorMessage)

	// Unknown codes get the generic message.
	assert.Equal(t, "unknown error: flux-capacitor", Message(ErrorCode("flux-capacitor")))
}

func TestControllerStopAfterErrorStopsEngine(t *testing.T) {
	eng := &fakeEngine{}
	c := NewController(eng, time.Second)

	require.NoError(t, c.Start(DefaultOptions("en-US")))
	eng.send(Event{Kind: EventError, Code: ErrAudioCapture})
	require.Equal(t, StateError, c.State())
	require.Equal(t, 0, eng.stopCount())

	// The engine session can outlive its error report, so disposal from
	// the error state must still stop it.
	c.Close()
	assert.Equal(t, 1, eng.stopCount())
	assert.Equal(t, StateIdle, c.State())

	// The error message survives until Reset.
	assert.Equal(t, Message(ErrAudioCapture), c.Snapshot().ErrorMessage)
}

func TestControllerRestartAfterErrorStopsEngine(t *testing.T) {
	eng := &fakeEngine{}
	c := NewController(eng, time.Second)
	defer c.Close()

	require.NoError(t, c.Start(DefaultOptions("en-US")))
	eng.send(Event{Kind: EventError, Code: ErrNetwork})
	require.Equal(t, StateError, c.State())

	require.NoError(t, c.Start(DefaultOptions("en-US")))
	assert.Equal(t, 1, eng.stopCount())
	assert.Equal(t, StateListening, c.State())
	assert.Empty(t, c.Snapshot().ErrorMessage)
}

func TestControllerReset(t *testing.T) {
	eng := &fakeEngine{}
	c := NewController(eng, time.Second)
	defer c.Close()

	require.NoError(t, c.Start(DefaultOptions("en-US")))
	eng.send(Event{Kind: EventResults, Segments: []Segment{{Text: "hello", Final: true}}})
	eng.send(Event{Kind: EventError, Code: ErrNetwork})

	c.Reset()
	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Transcript())
	assert.Empty(t, snap.ErrorMessage)
}

func TestControllerRestartDropsOldSession(t *testing.T) {
	eng := &fakeEngine{}
	c := NewController(eng, time.Second)
	defer c.Close()

	require.NoError(t, c.Start(DefaultOptions("en-US")))
	eng.mu.Lock()
	oldEmit := eng.emit
	eng.mu.Unlock()

	require.NoError(t, c.Start(DefaultOptions("en-US")))
	assert.Equal(t, 1, eng.stopCount())

	// Events from the terminated session must not leak into the new one.
	oldEmit(Event{Kind: EventResults, Segments: []Segment{{Text: "stale", Final: true}}})
	assert.Empty(t, c.Transcript())
	assert.Equal(t, StateListening, c.State())
}

func TestScriptedEngineDictation(t *testing.T) {
	eng := &ScriptedEngine{Script: DictationScript("golang testing", time.Millisecond)}
	c := NewController(eng, 0)
	defer c.Close()

	done := make(chan Snapshot, 1)
	c.SetOnChange(func(s Snapshot) {
		if s.State == StateIdle && s.FinalText != "" {
			select {
			case done <- s:
			default:
			}
		}
	})

	require.NoError(t, c.Start(DefaultOptions("en-US")))

	select {
	case snap := <-done:
		assert.Equal(t, "golang testing", snap.FinalText)
	case <-time.After(2 * time.Second):
		t.Fatal("scripted session did not finish")
	}
}
