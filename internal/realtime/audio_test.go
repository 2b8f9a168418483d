package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushSource_PushAndDrain(t *testing.T) {
	source := NewPushSource(2)

	assert.True(t, source.Push(AudioFrame{Data: []byte{1}, Duration: 20 * time.Millisecond}))
	assert.True(t, source.Push(AudioFrame{Data: []byte{2}}))
	// Buffer full: backpressure, frame dropped.
	assert.False(t, source.Push(AudioFrame{Data: []byte{3}}))

	frame := <-source.Frames()
	assert.Equal(t, []byte{1}, frame.Data)
	assert.True(t, source.Push(AudioFrame{Data: []byte{4}}))
}

func TestPushSource_Close(t *testing.T) {
	source := NewPushSource(2)
	require.True(t, source.Push(AudioFrame{Data: []byte{1}}))

	require.NoError(t, source.Close())
	require.NoError(t, source.Close())
	assert.False(t, source.Push(AudioFrame{Data: []byte{2}}))

	// Buffered frames drain, then the channel reports closed.
	frame, ok := <-source.Frames()
	assert.True(t, ok)
	assert.Equal(t, []byte{1}, frame.Data)
	_, ok = <-source.Frames()
	assert.False(t, ok)
}

func TestPushProvider_Acquire(t *testing.T) {
	provider := NewPushProvider(4)

	source, err := provider.Acquire(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, source)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = provider.Acquire(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}
