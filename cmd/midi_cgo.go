//go:build cgo

package cmd

import (
	"github.com/vibetracker/vibetracker/engine"
	"github.com/vibetracker/vibetracker/midi"
)

func NewMidiContext(broker *engine.Broker) MIDIInput {
	return midi.NewContext(broker)
}
