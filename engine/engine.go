package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vibetracker/vibetracker"
)

// Engine owns the boundary with the output device and the live composition
// snapshot. The control context talks to it with Publish and the transport
// methods; the audio device pulls blocks from the player through the
// callback registered in Start. The only shared state between the two
// contexts is the snapshot handoff, which is a non-blocking channel send of
// an immutable value, plus a few atomic counters.
type Engine struct {
	broker *Broker
	player *Player
	ctx    vibetracker.AudioContext

	comp atomic.Pointer[vibetracker.Composition] // read-side accessor copy

	mu      sync.Mutex // guards closer, started, lastErr; never touched by the callback
	closer  vibetracker.CloserWaiter
	lastErr error

	playing   atomic.Bool
	underruns atomic.Uint64
	cpuLoad   atomic.Uint64 // math.Float64bits of render time / deadline
}

// ErrNoComposition is returned by transport edits when nothing has been
// published yet.
var ErrNoComposition = errors.New("no composition published")

func NewEngine(ctx vibetracker.AudioContext, broker *Broker) *Engine {
	return &Engine{
		broker: broker,
		player: NewPlayer(broker),
		ctx:    ctx,
	}
}

// Publish atomically replaces the live composition snapshot. The value is
// validated and deep-copied here, in the control context; on error the
// previous snapshot stays live and unchanged. When playback is running, the
// copy is heard from the next step boundary on (next loop boundary, if the
// edit changes the timing grid).
func (e *Engine) Publish(c vibetracker.Composition) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("rejecting composition: %w", err)
	}
	snapshot := c.Copy()
	// hand over to the player first; the read-side accessor must never get
	// ahead of what the player can adopt
	if !TrySend[any](e.broker.ToPlayer, &snapshot) {
		return errors.New("player message queue full")
	}
	e.comp.Store(&snapshot)
	return nil
}

// Composition returns a copy of the most recently published composition for
// display and editing. The copy is safe to mutate and republish.
func (e *Engine) Composition() (vibetracker.Composition, error) {
	c := e.comp.Load()
	if c == nil {
		return vibetracker.Composition{}, ErrNoComposition
	}
	return c.Copy(), nil
}

// SetTempo is a convenience transport control; a tempo change is just a
// composition edit routed through Publish, taking effect at the next loop
// boundary.
func (e *Engine) SetTempo(bpm int) error {
	c, err := e.Composition()
	if err != nil {
		return err
	}
	c.BPM = bpm
	return e.Publish(c)
}

// Start opens the device stream and begins callback-driven playback. It may
// block while the device starts up. Starting an already started engine is a
// no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closer != nil {
		return nil
	}
	e.lastErr = nil
	closer := e.ctx.Play(e.process)
	e.closer = closer
	go func() {
		// the device reports errors by ending playback; surface it once
		if err := closer.Wait(); err != nil {
			e.mu.Lock()
			e.lastErr = err
			e.mu.Unlock()
			e.playing.Store(false)
			TrySend(e.broker.ToModel, MsgToModel{Data: Alert{
				Name:     "Device",
				Message:  fmt.Sprintf("audio device lost: %v", err),
				Priority: Error,
				Duration: defaultAlertDuration,
			}})
		}
	}()
	e.playing.Store(true)
	TrySend[any](e.broker.ToPlayer, IsPlayingMsg{true})
	return nil
}

// Stop ends playback and releases the device stream. In-flight voices are
// discarded, with no fade-out guarantee. It may block waiting for the
// device to quiesce; it is the control context's operation, never the
// callback's.
func (e *Engine) Stop() error {
	e.mu.Lock()
	closer := e.closer
	e.closer = nil
	e.mu.Unlock()
	e.playing.Store(false)
	TrySend[any](e.broker.ToPlayer, IsPlayingMsg{false})
	TrySend[any](e.broker.ToPlayer, PanicMsg{})
	if closer == nil {
		return nil
	}
	return closer.Close()
}

// Playing reports whether the callback-driven playback loop is running.
func (e *Engine) Playing() bool {
	return e.playing.Load()
}

// Err returns the error that ended playback, if any. Device loss is
// reported here once; playback must be explicitly restarted.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Underruns returns the number of render callbacks that overran their
// real-time budget. An overrun is a performance failure, not a logic error;
// it is counted and reported, never raised.
func (e *Engine) Underruns() uint64 {
	return e.underruns.Load()
}

// DroppedTriggers returns the number of note triggers dropped because the
// voice pool was full.
func (e *Engine) DroppedTriggers() uint64 {
	return e.player.DroppedTriggers()
}

// CPULoad returns the fraction of the real-time budget the last rendered
// block used; values above 1 mean the deadline was missed.
func (e *Engine) CPULoad() float64 {
	return math.Float64frombits(e.cpuLoad.Load())
}

// process is the audio callback. It must not allocate, lock a contended
// mutex or perform I/O; it renders the block and updates the load gauges.
func (e *Engine) process(buf vibetracker.AudioBuffer) error {
	start := time.Now()
	e.player.Process(buf)
	elapsed := time.Since(start)
	budget := time.Duration(len(buf)) * time.Second / vibetracker.SampleRate
	if budget > 0 {
		e.cpuLoad.Store(math.Float64bits(float64(elapsed) / float64(budget)))
		if elapsed > budget {
			e.underruns.Add(1)
			e.player.sendAlert("Underrun", "render overran the block deadline", Warning)
		}
	}
	return nil
}
