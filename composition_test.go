package vibetracker_test

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/vibetracker/vibetracker"
)

func testComposition() vibetracker.Composition {
	return vibetracker.Composition{
		BPM:          120,
		StepsPerBeat: 4,
		LoopSteps:    16,
		Instruments: []vibetracker.Instrument{
			{Name: "pluck", Waveform: vibetracker.Sawtooth, Envelope: vibetracker.Envelope{Attack: 0.01, Decay: 0.1, Sustain: 0.5, Release: 0.2},
				Effects: []vibetracker.Effect{{Type: vibetracker.EffectReverb, RoomSize: 0.6, Damping: 0.4, WetLevel: 0.25, DryLevel: 0.75}}},
			{Name: "hat", Waveform: vibetracker.Noise, Envelope: vibetracker.Envelope{Decay: 0.05}},
		},
		Tracks: []vibetracker.Track{
			{Name: "lead", Instrument: "pluck", Gain: 0.8, Patterns: []vibetracker.Pattern{{
				Length: 8,
				Notes: []vibetracker.NoteEvent{
					{Step: 0, Note: "C4", Velocity: 1, Steps: 2},
					{Step: 4, Note: "G4", Velocity: 0.5},
				},
			}}},
			{Name: "hats", Instrument: "hat", Gain: 1, Patterns: []vibetracker.Pattern{{
				Length: 4,
				Notes:  []vibetracker.NoteEvent{{Step: 2, Note: "C6", Velocity: 0.7}},
			}}},
		},
	}
}

func TestCompositionValidate(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(c *vibetracker.Composition)
		wantErr bool
	}{
		{"valid", func(c *vibetracker.Composition) {}, false},
		{"zero bpm", func(c *vibetracker.Composition) { c.BPM = 0 }, true},
		{"zero steps per beat", func(c *vibetracker.Composition) { c.StepsPerBeat = 0 }, true},
		{"zero loop steps", func(c *vibetracker.Composition) { c.LoopSteps = 0 }, true},
		{"tempo too fast", func(c *vibetracker.Composition) { c.BPM = 10000000 }, true},
		{"unnamed instrument", func(c *vibetracker.Composition) { c.Instruments[0].Name = "" }, true},
		{"duplicate instrument", func(c *vibetracker.Composition) { c.Instruments[1].Name = "pluck" }, true},
		{"unknown waveform", func(c *vibetracker.Composition) { c.Instruments[0].Waveform = 42 }, true},
		{"negative attack", func(c *vibetracker.Composition) { c.Instruments[0].Envelope.Attack = -1 }, true},
		{"sustain above one", func(c *vibetracker.Composition) { c.Instruments[0].Envelope.Sustain = 1.5 }, true},
		{"unknown track instrument", func(c *vibetracker.Composition) { c.Tracks[0].Instrument = "nosuch" }, true},
		{"no patterns", func(c *vibetracker.Composition) { c.Tracks[0].Patterns = nil }, true},
		{"pattern index out of range", func(c *vibetracker.Composition) { c.Tracks[0].Pattern = 1 }, true},
		{"negative gain", func(c *vibetracker.Composition) { c.Tracks[0].Gain = -0.1 }, true},
		{"zero-length pattern", func(c *vibetracker.Composition) { c.Tracks[0].Patterns[0].Length = 0 }, true},
		{"negative velocity", func(c *vibetracker.Composition) { c.Tracks[0].Patterns[0].Notes[0].Velocity = -1 }, true},
		{"two notes on one step", func(c *vibetracker.Composition) {
			c.Tracks[0].Patterns[0].Notes[1].Step = 8 // wraps back to 0
		}, true},
		{"unknown effect type", func(c *vibetracker.Composition) { c.Instruments[0].Effects[0].Type = "chorus" }, true},
		{"effect roomsize above one", func(c *vibetracker.Composition) { c.Instruments[0].Effects[0].RoomSize = 1.5 }, true},
		{"negative effect wetlevel", func(c *vibetracker.Composition) { c.Instruments[0].Effects[0].WetLevel = -0.1 }, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := testComposition()
			test.corrupt(&c)
			err := c.Validate()
			if test.wantErr && err == nil {
				t.Errorf("expected an error, got nil")
			}
			if !test.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestCompositionCopyIsDeep(t *testing.T) {
	original := testComposition()
	copied := original.Copy()
	copied.Tracks[0].Patterns[0].Notes[0].Note = "D#2"
	copied.Instruments[0].Envelope.Attack = 42
	copied.Instruments[0].Effects[0].RoomSize = 1
	if original.Tracks[0].Patterns[0].Notes[0].Note != "C4" {
		t.Errorf("modifying the copy changed the original pattern")
	}
	if original.Instruments[0].Envelope.Attack != 0.01 {
		t.Errorf("modifying the copy changed the original instrument")
	}
	if original.Instruments[0].Effects[0].RoomSize != 0.6 {
		t.Errorf("modifying the copy changed the original effect chain")
	}
}

func TestSamplesPerStep(t *testing.T) {
	c := testComposition()
	if got := c.SamplesPerStep(); got != 5512 {
		t.Errorf("SamplesPerStep = %v, expected 5512 at 120 BPM, 4 steps per beat", got)
	}
	if got := c.LoopSamples(); got != 16*5512 {
		t.Errorf("LoopSamples = %v, expected %v", got, 16*5512)
	}
}

func TestSameTimingGrid(t *testing.T) {
	a := testComposition()
	b := a.Copy()
	b.Tracks[0].Patterns[0].Notes[0].Note = "E4"
	if !a.SameTimingGrid(&b) {
		t.Errorf("a note edit should not change the timing grid")
	}
	b.BPM = 130
	if a.SameTimingGrid(&b) {
		t.Errorf("a tempo edit should change the timing grid")
	}
}

func TestPatternGetWraps(t *testing.T) {
	p := vibetracker.Pattern{Length: 4, Notes: []vibetracker.NoteEvent{{Step: 1, Note: "C4"}}}
	if _, ok := p.Get(1); !ok {
		t.Errorf("expected a note at step 1")
	}
	if _, ok := p.Get(5); !ok {
		t.Errorf("expected the note at step 1 to wrap to step 5")
	}
	if _, ok := p.Get(2); ok {
		t.Errorf("expected no note at step 2")
	}
}

func TestPatternSetClear(t *testing.T) {
	var p vibetracker.Pattern
	p.Length = 4
	p.Set(vibetracker.NoteEvent{Step: 0, Note: "C4", Velocity: 1})
	p.Set(vibetracker.NoteEvent{Step: 0, Note: "D4", Velocity: 1})
	if len(p.Notes) != 1 || p.Notes[0].Note != "D4" {
		t.Fatalf("Set on an occupied step should replace, got %v", p.Notes)
	}
	p.Clear(0)
	if len(p.Notes) != 0 {
		t.Fatalf("Clear left %v", p.Notes)
	}
}

func TestNoteEventDuration(t *testing.T) {
	if got := (vibetracker.NoteEvent{}).Duration(); got != 1 {
		t.Errorf("unset Steps should mean a one-step note, got %v", got)
	}
	if got := (vibetracker.NoteEvent{Steps: 3}).Duration(); got != 3 {
		t.Errorf("Duration = %v, expected 3", got)
	}
}

func TestCompositionYamlRoundTrip(t *testing.T) {
	original := testComposition()
	var buf bytes.Buffer
	if err := original.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	parsed, err := vibetracker.ReadComposition(&buf)
	if err != nil {
		t.Fatalf("ReadComposition failed: %v", err)
	}
	if !reflect.DeepEqual(original, parsed) {
		t.Errorf("round trip changed the composition:\noriginal: %#v\nparsed: %#v", original, parsed)
	}
}

func TestCompositionJsonRoundTrip(t *testing.T) {
	original := testComposition()
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	parsed, err := vibetracker.ReadComposition(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadComposition failed: %v", err)
	}
	if !reflect.DeepEqual(original, parsed) {
		t.Errorf("round trip changed the composition:\noriginal: %#v\nparsed: %#v", original, parsed)
	}
}

func TestReadCompositionGarbage(t *testing.T) {
	if _, err := vibetracker.ReadComposition(bytes.NewReader([]byte("{not valid: ["))); err == nil {
		t.Errorf("expected an error for garbage input")
	}
}
