// Package engine drives playback: it walks a composition's timeline sample
// by sample, triggers and releases voices, and feeds the mixed blocks to an
// audio device. Live edits arrive as complete composition snapshots handed
// over through a non-blocking channel, so the audio path never waits on the
// control side.
package engine

import (
	"time"
)

type (
	// Broker is the centralized message broker between the control context
	// (edits, transport, MIDI input) and the player running in the audio
	// callback. It is many-to-one communication, implemented with one
	// channel per recipient. All sends towards the player go through
	// TrySend, so the control side can never wedge the audio path and the
	// audio path never blocks on a slow model.
	Broker struct {
		ToPlayer chan any
		ToModel  chan MsgToModel
	}

	// MsgToModel is a message sent from the player to whoever observes it
	// (UI, logs). The frequently sent fields are not boxed to avoid
	// allocations in the audio path; infrequent messages such as alerts
	// travel in Data.
	MsgToModel struct {
		Playing     bool
		Step        int
		ActiveVoice int

		Data any
	}

	// Alert is a notification raised by the engine: device trouble, voice
	// pool overflow, an overrun render deadline. Alerts with the same name
	// supersede each other, so a repeating condition is reported once per
	// observation, not accumulated.
	Alert struct {
		Name     string
		Message  string
		Priority AlertPriority
		Duration time.Duration
	}

	AlertPriority int
)

const (
	None AlertPriority = iota
	Notify
	Warning
	Error
)

const defaultAlertDuration = 3 * time.Second

// Messages accepted by the player via Broker.ToPlayer. A published
// *vibetracker.Composition is also accepted as such.
type (
	// IsPlayingMsg starts or pauses the step clock.
	IsPlayingMsg struct{ bool }

	// NoteOnMsg triggers an instrument voice outside the sequenced
	// patterns, e.g. from a MIDI keyboard. Instrument indexes the
	// composition's instrument bank.
	NoteOnMsg struct {
		Instrument int
		Note       byte // MIDI note number
		Velocity   byte
	}

	// NoteOffMsg releases a voice started by NoteOnMsg.
	NoteOffMsg struct {
		Instrument int
		Note       byte
	}

	// PanicMsg cuts all voices immediately.
	PanicMsg struct{}
)

func NewBroker() *Broker {
	return &Broker{
		ToPlayer: make(chan any, 1024),
		ToModel:  make(chan MsgToModel, 1024),
	}
}

// TrySend is a helper function to send a value to a channel if it is not
// full. It is guaranteed to be non-blocking. Returns true if the value was
// sent, false otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
