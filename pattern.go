package vibetracker

import (
	"errors"
	"fmt"
)

type (
	// Pattern is a fixed-length, looping grid of note events. The step index
	// is always interpreted modulo Length, so a 16-step pattern keeps cycling
	// inside a 64-step loop. Notes whose Step is beyond Length simply wrap.
	Pattern struct {
		Length int         `yaml:"length" json:"length"`
		Notes  []NoteEvent `yaml:"notes,omitempty" json:"notes,omitempty"`
	}

	// NoteEvent is one note in a pattern: the step it starts on, the note
	// name ("C4", "F#5"), a velocity and a duration in steps. Steps <= 0 is
	// treated as a one-step note.
	NoteEvent struct {
		Step     int     `yaml:"step" json:"step"`
		Note     string  `yaml:"note" json:"note"`
		Velocity float64 `yaml:"velocity" json:"velocity"`
		Steps    int     `yaml:"steps,omitempty" json:"steps,omitempty"`
	}
)

// Copy makes a deep copy of a Pattern.
func (p Pattern) Copy() Pattern {
	notes := make([]NoteEvent, len(p.Notes))
	copy(notes, p.Notes)
	return Pattern{Length: p.Length, Notes: notes}
}

// Get returns the note event starting at the given step, wrapped modulo the
// pattern length, or ok == false if the step is empty.
func (p Pattern) Get(step int) (NoteEvent, bool) {
	if p.Length <= 0 {
		return NoteEvent{}, false
	}
	step = wrapStep(step, p.Length)
	for _, n := range p.Notes {
		if wrapStep(n.Step, p.Length) == step {
			return n, true
		}
	}
	return NoteEvent{}, false
}

// Set adds or replaces the note event at the event's step.
func (p *Pattern) Set(event NoteEvent) {
	for i, n := range p.Notes {
		if n.Step == event.Step {
			p.Notes[i] = event
			return
		}
	}
	p.Notes = append(p.Notes, event)
}

// Clear removes the note event at the given step, if any.
func (p *Pattern) Clear(step int) {
	for i, n := range p.Notes {
		if n.Step == step {
			p.Notes = append(p.Notes[:i], p.Notes[i+1:]...)
			return
		}
	}
}

// Duration returns the note length in steps, treating unset values as one.
func (n NoteEvent) Duration() int {
	if n.Steps < 1 {
		return 1
	}
	return n.Steps
}

// Validate checks the pattern invariants: positive length, non-negative
// velocities and no two notes on the same step.
func (p Pattern) Validate() error {
	if p.Length < 1 {
		return errors.New("pattern length should be > 0")
	}
	steps := make(map[int]bool, len(p.Notes))
	for _, n := range p.Notes {
		if n.Velocity < 0 {
			return fmt.Errorf("note at step %d has negative velocity", n.Step)
		}
		s := wrapStep(n.Step, p.Length)
		if steps[s] {
			return fmt.Errorf("two notes on step %d", s)
		}
		steps[s] = true
	}
	return nil
}

func wrapStep(step, length int) int {
	return ((step % length) + length) % length
}
