package engine

import (
	"errors"
	"fmt"

	"github.com/viterin/vek/vek32"
	"golang.org/x/sync/errgroup"

	"github.com/vibetracker/vibetracker"
	"github.com/vibetracker/vibetracker/synth"
)

// Render renders the composition offline, for the given number of full loop
// iterations, with no device callback involved. Tracks are rendered in
// parallel and mixed down; if the mixdown would clip it is peak-normalized
// instead of clamped, so the exported waveform keeps its shape. The
// resulting buffer is ready for Wav or Raw.
func Render(c vibetracker.Composition, loops int) (vibetracker.AudioBuffer, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("cannot render: %w", err)
	}
	if loops < 1 {
		return nil, errors.New("loop count should be > 0")
	}
	total := c.LoopSamples() * loops
	levels := effectiveLevels(&c, nil)
	tracks := make([][]float32, len(c.Tracks))
	var g errgroup.Group
	for i := range c.Tracks {
		if levels[i] == 0 {
			continue // muted or not solo; contributes nothing
		}
		i := i // per-iteration copy; the go directive predates Go 1.22 loopvar semantics
		g.Go(func() error {
			tracks[i] = renderTrack(&c, i, loops)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	master := make([]float32, total)
	for i := range tracks {
		if tracks[i] == nil {
			continue
		}
		vek32.MulNumber_Inplace(tracks[i], levels[i])
		vek32.Add_Inplace(master, tracks[i])
	}
	if peak := vek32.Max(vek32.Abs(master)); peak > 1 {
		vek32.DivNumber_Inplace(master, peak)
	}
	buffer := make(vibetracker.AudioBuffer, total)
	for i, v := range master {
		buffer[i] = [2]float32{v, v}
	}
	return buffer, nil
}

// renderTrack runs one track through its own synth, stepping the same grid
// the live player walks. Gain, mute and solo are applied by the caller; the
// track renders at unity here.
func renderTrack(c *vibetracker.Composition, track, loops int) []float32 {
	s := synth.NewSynth()
	samplesPerStep := c.SamplesPerStep()
	out := make([]float32, c.LoopSamples()*loops)
	buf := make(vibetracker.AudioBuffer, samplesPerStep)
	instr, err := c.InstrumentForTrack(track)
	if err != nil {
		return out
	}
	s.SetTrackEffects(0, instr.Effects)
	t := &c.Tracks[track]
	unity := []float32{1}
	pos := 0
	for step := 0; step < loops*c.LoopSteps; step++ {
		if note, ok := t.ActivePattern().Get(step % c.LoopSteps); ok && note.Note != "" {
			velocity := note.Velocity
			if velocity == 0 {
				velocity = 1
			}
			s.Trigger(0, 0, instr, vibetracker.NoteFrequency(note.Note), velocity, note.Duration()*samplesPerStep)
		}
		s.Render(buf, unity)
		for i := range buf {
			out[pos+i] = buf[i][0]
		}
		pos += samplesPerStep
	}
	return out
}
