// Package midi feeds MIDI keyboard input to the player, using the rtmidi
// driver. Note on and off messages become live voice triggers; everything
// else is ignored. The MIDI channel selects the instrument, so channel 0
// plays the first instrument of the composition's bank.
package midi

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/vibetracker/vibetracker/engine"
)

type (
	// Context owns the rtmidi driver and at most one open input device.
	Context struct {
		driver    *rtmididrv.Driver
		currentIn drivers.In
		broker    *engine.Broker
	}

	Device struct {
		context *Context
		in      drivers.In
	}
)

// NewContext opens the rtmidi driver. If the driver is not available the
// context still works, it just has no input devices.
func NewContext(broker *engine.Broker) *Context {
	c := &Context{broker: broker}
	c.driver, _ = rtmididrv.New()
	return c
}

// InputDevices lists the MIDI input ports currently present.
func (c *Context) InputDevices() []Device {
	if c.driver == nil {
		return nil
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return nil
	}
	devices := make([]Device, 0, len(ins))
	for _, in := range ins {
		devices = append(devices, Device{context: c, in: in})
	}
	return devices
}

// TryToOpenBy opens the first input device whose name starts with
// namePrefix, or just the first device when takeFirst is set.
func (c *Context) TryToOpenBy(namePrefix string, takeFirst bool) error {
	if namePrefix == "" && !takeFirst {
		return nil
	}
	for _, device := range c.InputDevices() {
		if takeFirst || strings.HasPrefix(device.String(), namePrefix) {
			return device.Open()
		}
	}
	if takeFirst {
		return errors.New("no MIDI input available")
	}
	return fmt.Errorf("no MIDI input starting with %q", namePrefix)
}

// Open the input device, closing the currently open one if necessary.
func (d Device) Open() error {
	if d.context.currentIn == d.in {
		return nil
	}
	if d.context.driver == nil {
		return errors.New("no MIDI driver available")
	}
	if d.context.HasDeviceOpen() {
		d.context.currentIn.Close()
	}
	d.context.currentIn = d.in
	if err := d.in.Open(); err != nil {
		d.context.currentIn = nil
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	if _, err := midi.ListenTo(d.in, d.context.handleMessage); err != nil {
		d.in.Close()
		d.context.currentIn = nil
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	return nil
}

func (d Device) String() string {
	return d.in.String()
}

func (c *Context) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

func (c *Context) Close() {
	if c.driver == nil {
		return
	}
	if c.HasDeviceOpen() {
		c.currentIn.Close()
	}
	c.driver.Close()
}

// handleMessage runs on the rtmidi listener goroutine. Sends towards the
// player are non-blocking; when the queue is full the note is dropped
// rather than stalling the listener.
func (c *Context) handleMessage(msg midi.Message, timestampms int32) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		engine.TrySend[any](c.broker.ToPlayer, engine.NoteOnMsg{
			Instrument: int(channel),
			Note:       key,
			Velocity:   velocity,
		})
	case msg.GetNoteOff(&channel, &key, &velocity):
		engine.TrySend[any](c.broker.ToPlayer, engine.NoteOffMsg{
			Instrument: int(channel),
			Note:       key,
		})
	}
}
