// Package cmd holds the pieces shared by the command line programs.
package cmd

// MIDIInput is the slice of the MIDI context the command line programs
// need: open a device by name and close everything on exit.
type MIDIInput interface {
	TryToOpenBy(namePrefix string, takeFirst bool) error
	Close()
}
