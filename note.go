package vibetracker

import "math"

// Notes are named the piano way: a note letter with optional sharp, followed
// by an octave digit ("C4", "F#5", "a#3"). Internally a note is a piano key
// number with A0 = 1 and A4 = 49.

const (
	a4Key  = 49
	a4Freq = 440.0
)

var noteOffsets = map[string]int{
	"C": -9, "C#": -8, "D": -7, "D#": -6, "E": -5, "F": -4,
	"F#": -3, "G": -2, "G#": -1, "A": 0, "A#": 1, "B": 2,
}

// NoteNumber converts a note name to a piano key number. Malformed names
// fall back to A4 rather than erroring, so a stray note in a pattern plays a
// neutral pitch instead of killing playback.
func NoteNumber(name string) int {
	if len(name) < 2 {
		return a4Key
	}
	octave := name[len(name)-1]
	if octave < '0' || octave > '9' {
		return a4Key
	}
	letter := name[:len(name)-1]
	if len(letter) > 0 && letter[0] >= 'a' && letter[0] <= 'z' {
		letter = string(letter[0]-'a'+'A') + letter[1:]
	}
	offset, ok := noteOffsets[letter]
	if !ok {
		return a4Key
	}
	return offset + (int(octave-'0')-4)*12 + a4Key
}

// Frequency converts a piano key number to a frequency in Hz, in equal
// temperament tuned to A4 = 440 Hz.
func Frequency(key int) float64 {
	return a4Freq * math.Exp2(float64(key-a4Key)/12.0)
}

// NoteFrequency is the composition of NoteNumber and Frequency.
func NoteFrequency(name string) float64 {
	return Frequency(NoteNumber(name))
}
