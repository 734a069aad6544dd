// Package oto outputs audio through the ebitengine/oto/v3 library. The
// device pulls: oto calls Read on its own thread and the registered
// BufferReader fills each block just in time.
package oto

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/vibetracker/vibetracker"
)

const (
	bytesPerFrame = 4 // 2 channels, 16 bits
	bufferLength  = 100 * time.Millisecond
)

type (
	// Context wraps an oto v3 context so it satisfies
	// vibetracker.AudioContext.
	Context struct {
		context *oto.Context
	}

	playback struct {
		player *oto.Player
		reader *pullReader
	}

	// pullReader adapts a BufferReader to the io.Reader oto pulls from.
	pullReader struct {
		callback  vibetracker.BufferReader
		floatBuf  vibetracker.AudioBuffer
		byteBuf   []byte
		bytesUsed int

		mu   sync.Mutex
		err  error
		done chan struct{}
	}
)

// NewContext opens the default output device at 44100 Hz stereo.
func NewContext() (*Context, error) {
	context, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   vibetracker.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   bufferLength,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{context: context}, nil
}

func (c *Context) Play(r vibetracker.BufferReader) vibetracker.CloserWaiter {
	reader := &pullReader{callback: r, done: make(chan struct{})}
	player := c.context.NewPlayer(reader)
	player.Play()
	return &playback{player: player, reader: reader}
}

// Close suspends the underlying context. Oto v3 contexts cannot be
// recreated within a process, so the context itself is kept alive.
func (c *Context) Close() error {
	if err := c.context.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

func (p *playback) Close() error {
	if err := p.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	p.reader.finish(nil)
	return p.reader.Err()
}

func (p *playback) Wait() error {
	<-p.reader.done
	return p.reader.Err()
}

func (r *pullReader) Read(p []byte) (int, error) {
	if err := r.Err(); err != nil {
		return 0, err
	}
	// Oto may ask for partial frames; only whole frames are produced and
	// the remainder of a converted block is carried over to the next call.
	n := 0
	for n < len(p) {
		if r.bytesUsed >= len(r.byteBuf) {
			frames := (len(p) - n + bytesPerFrame - 1) / bytesPerFrame
			if cap(r.floatBuf) < frames {
				r.floatBuf = make(vibetracker.AudioBuffer, frames)
			}
			r.floatBuf = r.floatBuf[:frames]
			if err := r.callback(r.floatBuf); err != nil {
				r.finish(err)
				return n, err
			}
			r.byteBuf = FloatBufferTo16BitLE(r.floatBuf, r.byteBuf[:0])
			r.bytesUsed = 0
		}
		copied := copy(p[n:], r.byteBuf[r.bytesUsed:])
		n += copied
		r.bytesUsed += copied
	}
	return n, nil
}

func (r *pullReader) finish(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

func (r *pullReader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
