package vibetracker

// AudioBuffer is a block of stereo samples: each element is one frame, left
// channel first. Buffers passed to render callbacks are always fully
// overwritten by the callee.
type AudioBuffer [][2]float32

// BufferReader fills the given buffer with the next block of audio. It is
// called from the real-time audio path, so implementations must be
// non-blocking and bounded-time; returning an error stops playback.
type BufferReader func(buf AudioBuffer) error

type (
	// AudioContext is the boundary with the output device. Play registers a
	// reader that the device pulls blocks from until the returned
	// CloserWaiter is closed.
	AudioContext interface {
		Play(r BufferReader) CloserWaiter
		Close() error
	}

	// CloserWaiter controls one playback started with Play. Close stops the
	// device pulls and may block waiting for the device to quiesce; Wait
	// blocks until playback has ended and returns the error that ended it,
	// if any.
	CloserWaiter interface {
		Close() error
		Wait() error
	}
)
