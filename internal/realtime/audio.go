package realtime

import (
	"context"
	"sync"
)

// PushSource is an AudioSource fed by an external producer, typically
// an ingest endpoint receiving the caller's audio. Pushes after Close
// are dropped.
type PushSource struct {
	frames chan AudioFrame
	mu     sync.Mutex
	closed bool
}

// NewPushSource creates a push source with the given frame buffer.
func NewPushSource(buffer int) *PushSource {
	return &PushSource{
		frames: make(chan AudioFrame, buffer),
	}
}

// Push queues a frame for the transport. It reports false if the source
// is closed or the buffer is full; callers treat a full buffer as
// backpressure and drop the frame.
func (s *PushSource) Push(frame AudioFrame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.frames <- frame:
		return true
	default:
		return false
	}
}

// Frames implements AudioSource.
func (s *PushSource) Frames() <-chan AudioFrame {
	return s.frames
}

// Close implements AudioSource.
func (s *PushSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.frames)
	return nil
}

// PushProvider hands out push sources. It implements AudioProvider for
// deployments where the caller streams audio in over the API rather
// than the process opening a capture device.
type PushProvider struct {
	buffer int
}

// NewPushProvider creates a provider whose sources buffer the given
// number of frames.
func NewPushProvider(buffer int) *PushProvider {
	return &PushProvider{buffer: buffer}
}

// Acquire implements AudioProvider.
func (p *PushProvider) Acquire(ctx context.Context) (AudioSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewPushSource(p.buffer), nil
}
