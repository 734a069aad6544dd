package oto

import "math"

// FloatBufferTo16BitLE converts a stereo float buffer to interleaved 16-bit
// little-endian samples, appending to tmp. Passing tmp[:0] reuses the old
// capacity, so the audio path does not allocate once it has warmed up.
func FloatBufferTo16BitLE(buf [][2]float32, tmp []byte) []byte {
	for _, frame := range buf {
		for _, v := range frame {
			var uv int16
			if v < -1.0 {
				uv = -math.MaxInt16
			} else if v > 1.0 {
				uv = math.MaxInt16
			} else {
				uv = int16(v * math.MaxInt16)
			}
			tmp = append(tmp, byte(uv), byte(uv>>8))
		}
	}
	return tmp
}
