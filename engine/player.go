package engine

import (
	"math"
	"slices"
	"sync/atomic"

	"github.com/vibetracker/vibetracker"
	"github.com/vibetracker/vibetracker/synth"
)

// Player is the sequencer: it maps the monotonic sample position onto the
// composition's step grid, triggers and releases voices and renders blocks
// through the synth. Process is called from the audio callback; everything
// the player touches is owned by that single goroutine, and the control
// context reaches it only through broker messages.
type Player struct {
	broker *Broker
	synth  *synth.Synth

	comp    *vibetracker.Composition // the live snapshot, read-only
	pending *vibetracker.Composition // published but not yet adopted

	playing  bool
	step     int // current step within the loop
	stepTime int // samples rendered in the current step

	levels      []float32 // effective per-track gain, zero when silenced
	instruments []vibetracker.Instrument

	dropped atomic.Uint64 // triggers dropped due to voice pool exhaustion
}

func NewPlayer(broker *Broker) *Player {
	return &Player{
		broker: broker,
		synth:  synth.NewSynth(),
	}
}

// Process renders audio to the given buffer, filling it completely. It
// first drains pending messages, then renders in sub-blocks that never
// cross a step boundary, so note triggers are sample-accurate.
func (p *Player) Process(buffer vibetracker.AudioBuffer) {
	p.processMessages()
	for len(buffer) > 0 {
		if !p.playing || p.comp == nil {
			// keep already sounding voices (live input, fading releases)
			// running against the current track levels
			p.synth.Render(buffer, p.levels)
			p.send(nil)
			return
		}
		samplesPerStep := p.comp.SamplesPerStep()
		if p.stepTime >= samplesPerStep {
			p.advanceStep()
			samplesPerStep = p.comp.SamplesPerStep()
		}
		n := samplesPerStep - p.stepTime
		if n > len(buffer) {
			n = len(buffer)
		}
		p.synth.Render(buffer[:n], p.levels)
		p.stepTime += n
		buffer = buffer[n:]
	}
	p.send(nil)
}

// advanceStep moves the step clock one step forward. Pending snapshots with
// an unchanged timing grid are adopted at any step boundary, so pattern and
// instrument edits are heard within a step; snapshots that change tempo,
// steps-per-beat or loop length wait for the loop boundary, so notes
// already placed on this loop's grid are not retroactively shifted.
func (p *Player) advanceStep() {
	p.step++
	p.stepTime = 0
	if p.step >= p.comp.LoopSteps {
		p.step = 0
		if p.pending != nil {
			p.adopt(p.pending)
		}
	} else if p.pending != nil && p.comp.SameTimingGrid(p.pending) {
		p.adopt(p.pending)
	}
	p.triggerStep()
}

// triggerStep starts a voice for every track that has a note on the current
// step. The note duration is fixed in samples here, at trigger time, so a
// later tempo change never moves a note-off that is already scheduled.
func (p *Player) triggerStep() {
	samplesPerStep := p.comp.SamplesPerStep()
	for i, t := range p.comp.Tracks {
		note, ok := t.ActivePattern().Get(p.step)
		if !ok || note.Note == "" {
			continue
		}
		velocity := note.Velocity
		if velocity == 0 {
			velocity = 1
		}
		frequency := vibetracker.NoteFrequency(note.Note)
		sustain := note.Duration() * samplesPerStep
		if !p.synth.Trigger(0, i, p.instruments[i], frequency, velocity, sustain) {
			p.dropped.Add(1)
			p.sendAlert("VoicePool", "voice pool exhausted; note dropped", Warning)
		}
	}
}

// adopt makes the given snapshot the live one and refreshes everything the
// player derives from it. Voices already sounding are left alone; they
// carry the instrument values captured at trigger time. Voices belonging to
// tracks that no longer exist are cut by the synth on the next render.
func (p *Player) adopt(c *vibetracker.Composition) {
	old := p.instruments
	p.comp = c
	p.pending = nil
	if p.step >= c.LoopSteps {
		p.step = 0
	}
	instruments := make([]vibetracker.Instrument, 0, len(c.Tracks))
	for i := range c.Tracks {
		instr, err := c.InstrumentForTrack(i)
		if err != nil {
			// validated before publish; an unknown reference plays silence
			instr = vibetracker.Instrument{}
		}
		instruments = append(instruments, instr)
	}
	// rebuilding an effect chain discards its ringing state, so only tracks
	// whose chain configuration actually changed are rebuilt
	for i := range instruments {
		if i >= len(old) || !slices.Equal(old[i].Effects, instruments[i].Effects) {
			p.synth.SetTrackEffects(i, instruments[i].Effects)
		}
	}
	p.instruments = instruments
	p.refreshLevels()
}

// refreshLevels recomputes the effective per-track gains from the mute and
// solo flags. Gain zero is treated as unity so sparse composition files
// need not spell it out; Mute is the way to silence a track.
func (p *Player) refreshLevels() {
	p.levels = effectiveLevels(p.comp, p.levels)
}

func effectiveLevels(c *vibetracker.Composition, dst []float32) []float32 {
	dst = dst[:0]
	anySolo := false
	for _, t := range c.Tracks {
		if t.Solo {
			anySolo = true
		}
	}
	for _, t := range c.Tracks {
		level := float32(t.Gain)
		if t.Gain == 0 {
			level = 1
		}
		if t.Mute || (anySolo && !t.Solo) {
			level = 0
		}
		dst = append(dst, level)
	}
	return dst
}

func (p *Player) processMessages() {
loop:
	for {
		select {
		case msg := <-p.broker.ToPlayer:
			switch m := msg.(type) {
			case *vibetracker.Composition:
				if p.comp == nil || !p.playing {
					p.adopt(m)
				} else {
					// picked up at the next step or loop boundary,
					// depending on whether the timing grid changed
					p.pending = m
				}
			case IsPlayingMsg:
				if p.playing == m.bool {
					break
				}
				p.playing = m.bool
				if p.playing {
					// force an immediate advance to step 0
					p.step = -1
					p.stepTime = math.MaxInt32
				} else {
					p.synth.ReleaseAll()
				}
			case NoteOnMsg:
				p.liveNoteOn(m)
			case NoteOffMsg:
				p.synth.Release(liveNoteID(m.Instrument, m.Note))
			case PanicMsg:
				p.synth.CutAll()
			default:
				// ignore unknown messages
			}
		default:
			break loop
		}
	}
}

// liveNoteOn triggers a voice outside the sequenced patterns, held until the
// matching NoteOffMsg. MIDI note 69 is A4, piano key 49.
func (p *Player) liveNoteOn(m NoteOnMsg) {
	if p.comp == nil || len(p.comp.Instruments) == 0 {
		return
	}
	id := liveNoteID(m.Instrument, m.Note)
	p.synth.Release(id)
	instr := p.comp.Instruments[m.Instrument%len(p.comp.Instruments)]
	frequency := vibetracker.Frequency(int(m.Note) - 20)
	velocity := float64(m.Velocity) / 127
	if !p.synth.Trigger(id, -1, instr, frequency, velocity, -1) {
		p.dropped.Add(1)
		p.sendAlert("VoicePool", "voice pool exhausted; note dropped", Warning)
	}
}

// voices triggered from live input need an identity so the matching note-off
// can find them; sequenced voices release themselves and use id 0.
func liveNoteID(instrument int, note byte) int {
	return 1 + instrument*256 + int(note)
}

// DroppedTriggers returns the number of note triggers dropped because the
// voice pool was full.
func (p *Player) DroppedTriggers() uint64 {
	return p.dropped.Load()
}

func (p *Player) sendAlert(name, message string, priority AlertPriority) {
	p.send(Alert{Name: name, Message: message, Priority: priority, Duration: defaultAlertDuration})
}

// all sends from the player are non-blocking, so the audio path can never
// end up waiting on the model
func (p *Player) send(data any) {
	TrySend(p.broker.ToModel, MsgToModel{
		Playing:     p.playing,
		Step:        p.step,
		ActiveVoice: p.synth.ActiveVoices(),
		Data:        data,
	})
}
