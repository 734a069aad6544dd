//go:build !cgo

package cmd

import (
	"errors"

	"github.com/vibetracker/vibetracker/engine"
)

// with no cgo, we cannot use rtmidi, so return a null context
func NewMidiContext(broker *engine.Broker) MIDIInput {
	return nullMIDIContext{}
}

type nullMIDIContext struct{}

func (nullMIDIContext) TryToOpenBy(namePrefix string, takeFirst bool) error {
	if namePrefix == "" && !takeFirst {
		return nil
	}
	return errors.New("MIDI input requires a cgo build")
}

func (nullMIDIContext) Close() {}
