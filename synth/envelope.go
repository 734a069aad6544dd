package synth

import "github.com/vibetracker/vibetracker"

const (
	stageAttack = iota
	stageDecay
	stageSustain
	stageRelease
	stageDone
)

// envelope is the runtime ADSR state of one voice. All ramps are linear.
// The attack ramps from whatever level the envelope was at when triggered,
// and the release ramps from whatever level it was at when released, so
// retriggering or releasing mid-stage never jumps the amplitude.
type envelope struct {
	params         vibetracker.Envelope
	stage          int
	stagePos       int // samples spent in the current stage
	level          float32
	levelAtTrigger float32
	levelAtRelease float32
}

func (e *envelope) trigger(params vibetracker.Envelope) {
	e.params = params
	e.stage = stageAttack
	e.stagePos = 0
	e.levelAtTrigger = e.level
}

func (e *envelope) release() {
	if e.stage >= stageRelease {
		return
	}
	e.stage = stageRelease
	e.stagePos = 0
	e.levelAtRelease = e.level
}

func (e *envelope) done() bool {
	return e.stage == stageDone
}

// next advances the envelope by one sample and returns the amplitude
// multiplier, always within [0, 1]. Zero-duration stages complete
// immediately at their target level.
func (e *envelope) next() float32 {
	switch e.stage {
	case stageAttack:
		n := seconds(e.params.Attack)
		if e.stagePos >= n {
			e.level = 1
			e.stage = stageDecay
			e.stagePos = 0
			return e.next()
		}
		t := float32(e.stagePos) / float32(n)
		e.level = e.levelAtTrigger + t*(1-e.levelAtTrigger)
		e.stagePos++
	case stageDecay:
		n := seconds(e.params.Decay)
		sustain := float32(e.params.Sustain)
		if e.stagePos >= n {
			e.level = sustain
			e.stage = stageSustain
			e.stagePos = 0
			return e.level
		}
		t := float32(e.stagePos) / float32(n)
		e.level = 1 + t*(sustain-1)
		e.stagePos++
	case stageSustain:
		e.level = float32(e.params.Sustain)
	case stageRelease:
		n := seconds(e.params.Release)
		if e.stagePos >= n {
			e.level = 0
			e.stage = stageDone
			return 0
		}
		t := float32(e.stagePos) / float32(n)
		e.level = e.levelAtRelease * (1 - t)
		e.stagePos++
	default:
		e.level = 0
	}
	return e.level
}

func seconds(sec float64) int {
	return int(sec * vibetracker.SampleRate)
}
