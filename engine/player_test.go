package engine

import (
	"fmt"
	"testing"

	"github.com/vibetracker/vibetracker"
	"github.com/vibetracker/vibetracker/synth"
)

const stepLen = 5512 // one step at 120 BPM, 4 steps per beat

// clickComp builds a composition with one square-wave track whose notes
// start at exactly +1, so trigger positions are visible in the output.
func clickComp(noteSteps ...int) vibetracker.Composition {
	notes := make([]vibetracker.NoteEvent, 0, len(noteSteps))
	for _, s := range noteSteps {
		notes = append(notes, vibetracker.NoteEvent{Step: s, Note: "C4", Velocity: 1})
	}
	return vibetracker.Composition{
		BPM:          120,
		StepsPerBeat: 4,
		LoopSteps:    4,
		Instruments: []vibetracker.Instrument{
			{Name: "click", Waveform: vibetracker.Square, Envelope: vibetracker.Envelope{Sustain: 1}},
		},
		Tracks: []vibetracker.Track{
			{Instrument: "click", Patterns: []vibetracker.Pattern{{Length: 4, Notes: notes}}},
		},
	}
}

func startPlayer(t *testing.T, c vibetracker.Composition) *Player {
	t.Helper()
	if err := c.Validate(); err != nil {
		t.Fatalf("test composition invalid: %v", err)
	}
	p := NewPlayer(NewBroker())
	published := c.Copy()
	p.broker.ToPlayer <- &published
	p.broker.ToPlayer <- IsPlayingMsg{true}
	return p
}

func publish(p *Player, c vibetracker.Composition) {
	published := c.Copy()
	p.broker.ToPlayer <- &published
}

func firstAudible(buf vibetracker.AudioBuffer) int {
	for i, frame := range buf {
		if frame[0] != 0 {
			return i
		}
	}
	return -1
}

func TestTriggersAreSampleAccurate(t *testing.T) {
	p := startPlayer(t, clickComp(1))
	buf := make(vibetracker.AudioBuffer, 3*stepLen)
	p.Process(buf)
	if got := firstAudible(buf); got != stepLen {
		t.Fatalf("note on step 1 first audible at sample %v, expected %v", got, stepLen)
	}
	// a one-step note must have ended before step 2
	for i := 2 * stepLen; i < len(buf); i++ {
		if buf[i][0] != 0 {
			t.Fatalf("sample %v audible after the note should have ended", i)
		}
	}
}

func TestRetriggerRepeatsIdenticalWaveform(t *testing.T) {
	p := startPlayer(t, clickComp(0, 2))
	buf := make(vibetracker.AudioBuffer, 4*stepLen)
	p.Process(buf)
	for i := 0; i < stepLen; i++ {
		if buf[i] != buf[2*stepLen+i] {
			t.Fatalf("sample %v: retriggered note diverged, %v vs %v", i, buf[i], buf[2*stepLen+i])
		}
	}
}

func TestLoopsAreDeterministic(t *testing.T) {
	// release tails must not cross the loop boundary, so no note on the
	// last step
	c := clickComp(0, 1)
	c.Instruments[0].Waveform = vibetracker.Sine
	c.Instruments[0].Envelope = vibetracker.Envelope{Attack: 0.01, Decay: 0.02, Sustain: 0.5, Release: 0.01}
	p := startPlayer(t, c)
	loop := c.LoopSamples()
	buf := make(vibetracker.AudioBuffer, 2*loop)
	p.Process(buf)
	for i := 0; i < loop; i++ {
		if buf[i] != buf[loop+i] {
			t.Fatalf("sample %v: second loop diverged, %v vs %v", i, buf[i], buf[loop+i])
		}
	}
}

func TestProcessSplitsAcrossBlocks(t *testing.T) {
	// rendering in awkward block sizes must give the same result as one call
	whole := startPlayer(t, clickComp(0, 2))
	bufWhole := make(vibetracker.AudioBuffer, 4*stepLen)
	whole.Process(bufWhole)
	split := startPlayer(t, clickComp(0, 2))
	bufSplit := make(vibetracker.AudioBuffer, 4*stepLen)
	for pos := 0; pos < len(bufSplit); {
		n := 777
		if pos+n > len(bufSplit) {
			n = len(bufSplit) - pos
		}
		split.Process(bufSplit[pos : pos+n])
		pos += n
	}
	for i := range bufWhole {
		if bufWhole[i] != bufSplit[i] {
			t.Fatalf("sample %v: block-split rendering diverged", i)
		}
	}
}

func TestGridChangeWaitsForLoopBoundary(t *testing.T) {
	p := startPlayer(t, clickComp(0, 2))
	buf1 := make(vibetracker.AudioBuffer, stepLen)
	p.Process(buf1) // step 0, trigger at sample 0
	if firstAudible(buf1) != 0 {
		t.Fatalf("expected the step 0 note at sample 0")
	}

	faster := clickComp(0, 2)
	faster.BPM = 210 // 3150 samples per step
	publish(p, faster)

	// the rest of the current loop must stay on the old grid
	buf2 := make(vibetracker.AudioBuffer, 3*stepLen)
	p.Process(buf2)
	if got := firstAudible(buf2); got != stepLen {
		t.Fatalf("step 2 note at sample %v, expected %v on the old grid", got, stepLen)
	}

	// from the loop boundary on, the new grid applies
	newStep := faster.SamplesPerStep()
	buf3 := make(vibetracker.AudioBuffer, 4*newStep)
	p.Process(buf3)
	if firstAudible(buf3) != 0 {
		t.Fatalf("expected a trigger right at the loop boundary")
	}
	if got := firstAudible(buf3[newStep:]); got != newStep {
		t.Fatalf("step 2 note at sample %v after step 1, expected %v on the new grid", got, newStep)
	}
}

func TestSameGridEditHeardAtNextStep(t *testing.T) {
	p := startPlayer(t, clickComp())
	head := make(vibetracker.AudioBuffer, 100)
	p.Process(head) // mid-step 0 now

	edited := clickComp(1)
	publish(p, edited)

	buf := make(vibetracker.AudioBuffer, 2*stepLen)
	p.Process(buf)
	if got := firstAudible(buf); got != stepLen-100 {
		t.Fatalf("edit heard at sample %v, expected the next step boundary %v", got, stepLen-100)
	}
}

func TestPauseReleasesVoices(t *testing.T) {
	c := clickComp(0)
	c.Instruments[0].Envelope.Release = 0.01
	c.Tracks[0].Patterns[0].Notes[0].Steps = 4 // held across the block
	p := startPlayer(t, c)
	buf := make(vibetracker.AudioBuffer, stepLen)
	p.Process(buf)
	if p.synth.ActiveVoices() != 1 {
		t.Fatalf("expected one sounding voice")
	}
	p.broker.ToPlayer <- IsPlayingMsg{false}
	tail := make(vibetracker.AudioBuffer, 2*stepLen)
	p.Process(tail)
	if got := p.synth.ActiveVoices(); got != 0 {
		t.Fatalf("voices still active after pausing and fading out: %v", got)
	}
	if firstAudible(tail) != 0 {
		t.Fatalf("pausing should fade out, not cut")
	}
}

func TestMuteAndSoloLevels(t *testing.T) {
	c := vibetracker.Composition{Tracks: []vibetracker.Track{
		{Gain: 0}, // unset gain plays at unity
		{Gain: 0.25},
		{Gain: 1, Mute: true},
	}}
	got := effectiveLevels(&c, nil)
	want := []float32{1, 0.25, 0}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("levels = %v, expected %v", got, want)
	}
	c.Tracks[1].Solo = true
	got = effectiveLevels(&c, got)
	want = []float32{0, 0.25, 0}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("levels with solo = %v, expected %v", got, want)
	}
}

func TestLiveNotes(t *testing.T) {
	c := clickComp()
	c.Instruments[0].Envelope = vibetracker.Envelope{Sustain: 1}
	p := startPlayer(t, c)
	p.broker.ToPlayer <- NoteOnMsg{Instrument: 0, Note: 69, Velocity: 127} // A4
	buf := make(vibetracker.AudioBuffer, 64)
	p.Process(buf)
	if p.synth.ActiveVoices() != 1 {
		t.Fatalf("live note did not start a voice")
	}
	if firstAudible(buf) != 0 {
		t.Fatalf("live note should be audible immediately")
	}
	p.broker.ToPlayer <- NoteOffMsg{Instrument: 0, Note: 69}
	p.Process(buf)
	if got := p.synth.ActiveVoices(); got != 0 {
		t.Fatalf("live note still sounding after note off: %v", got)
	}
}

func TestDroppedTriggersAreCounted(t *testing.T) {
	c := clickComp()
	p := startPlayer(t, c)
	for i := 0; i < synth.MaxVoices+3; i++ {
		p.broker.ToPlayer <- NoteOnMsg{Instrument: 0, Note: byte(i % 128), Velocity: 100}
		if i%128 == 127 { // drain in batches, the queue holds 1024
			p.Process(make(vibetracker.AudioBuffer, 8))
		}
	}
	p.Process(make(vibetracker.AudioBuffer, 8))
	if got := p.DroppedTriggers(); got != 3 {
		t.Fatalf("DroppedTriggers = %v, expected 3", got)
	}
}

func TestHeldVoiceContinuesAcrossEdit(t *testing.T) {
	held := func() vibetracker.Composition {
		c := clickComp(0)
		c.Instruments[0].Waveform = vibetracker.Sine
		c.Instruments[0].Envelope = vibetracker.Envelope{Attack: 0.02, Sustain: 0.8, Release: 0.01}
		c.Tracks[0].Patterns[0].Notes[0].Steps = 4
		return c
	}
	ref := startPlayer(t, held())
	want := make(vibetracker.AudioBuffer, 3*stepLen)
	ref.Process(want)

	p := startPlayer(t, held())
	got := make(vibetracker.AudioBuffer, 3*stepLen)
	p.Process(got[:stepLen/2])
	edited := held()
	edited.Instruments[0].Envelope.Attack = 0.5
	publish(p, edited)
	p.Process(got[stepLen/2:])

	if p.pending != nil || p.comp.Instruments[0].Envelope.Attack != 0.5 {
		t.Fatalf("edit was not adopted at the step boundary")
	}
	if p.synth.ActiveVoices() != 1 {
		t.Fatalf("held voice did not survive the edit")
	}
	// the voice carries the envelope captured at trigger time, so the
	// waveform must match an unedited run sample for sample
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %v: held voice diverged after the edit, %v vs %v", i, got[i], want[i])
		}
	}
}

func TestRemovedTrackVoicesAreCutOnAdopt(t *testing.T) {
	c := clickComp()
	c.Instruments = append(c.Instruments, vibetracker.Instrument{
		Name: "pad", Waveform: vibetracker.Sine, Envelope: vibetracker.Envelope{Sustain: 1},
	})
	c.Tracks = append(c.Tracks, vibetracker.Track{
		Instrument: "pad",
		Patterns: []vibetracker.Pattern{{Length: 4, Notes: []vibetracker.NoteEvent{
			{Step: 0, Note: "A4", Velocity: 1, Steps: 4},
		}}},
	})
	p := startPlayer(t, c)
	p.Process(make(vibetracker.AudioBuffer, stepLen/2))
	if p.synth.ActiveVoices() != 1 {
		t.Fatalf("expected the pad voice to be sounding")
	}

	publish(p, clickComp()) // same grid, the pad track removed

	buf := make(vibetracker.AudioBuffer, stepLen)
	p.Process(buf)
	if got := p.synth.ActiveVoices(); got != 0 {
		t.Fatalf("voice on a removed track still sounding: %v", got)
	}
	// cut, not faded: silence from the step boundary on
	if firstAudible(buf[stepLen/2:]) != -1 {
		t.Fatalf("removed track still audible after the edit was adopted")
	}
}

func TestEffectTailSurvivesUnrelatedEdit(t *testing.T) {
	withReverb := func() vibetracker.Composition {
		c := clickComp(0)
		c.Instruments[0].Effects = []vibetracker.Effect{{Type: vibetracker.EffectReverb}}
		return c
	}
	ref := startPlayer(t, withReverb())
	want := make(vibetracker.AudioBuffer, 2*stepLen)
	ref.Process(want)
	if firstAudible(want[stepLen:]) == -1 {
		t.Fatalf("expected the reverb tail to ring after the note ended")
	}

	p := startPlayer(t, withReverb())
	got := make(vibetracker.AudioBuffer, 2*stepLen)
	p.Process(got[:stepLen/2])
	edited := withReverb()
	edited.Tracks[0].Name = "renamed"
	publish(p, edited)
	p.Process(got[stepLen/2:])

	// the effect chain did not change, so adopting the edit must not reset
	// the delay lines
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %v: reverb tail diverged after an unrelated edit", i)
		}
	}
}

func TestPanicCutsEverything(t *testing.T) {
	p := startPlayer(t, clickComp(0, 1, 2, 3))
	p.Process(make(vibetracker.AudioBuffer, stepLen/2))
	p.broker.ToPlayer <- PanicMsg{}
	// 16 samples stay inside the current step, so nothing retriggers yet
	buf := make(vibetracker.AudioBuffer, 16)
	p.Process(buf)
	if got := p.synth.ActiveVoices(); got != 0 {
		t.Fatalf("panic left %v voices sounding", got)
	}
	if firstAudible(buf) != -1 {
		t.Fatalf("panic should cut to silence immediately")
	}
}
