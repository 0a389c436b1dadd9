package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplePoolSize(t *testing.T) {
	b := newFakeBackend(nil)
	p, err := newSamplePool(b, Size{W: 1200, H: 900}, Repeat{3, 3})
	require.NoError(t, err)

	w, h := p.Acquire().Size()
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)
	assert.Same(t, p.Acquire(), p.Acquire())

	p.release(b)
	p.release(b)
	assert.Len(t, b.released, 1)
}

func TestSamplePoolAllocFailure(t *testing.T) {
	b := newFakeBackend(nil)
	_, err := newSamplePool(b, Size{W: 2, H: 2}, Repeat{4, 4})
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestPingPongAlternates(t *testing.T) {
	b := newFakeBackend(nil)
	p, err := newPingPong(b, Size{W: 8, H: 8})
	require.NoError(t, err)

	first := p.Acquire()
	second := p.Acquire()
	assert.NotEqual(t, first, second)
	for i := 0; i < 10; i++ {
		got := p.Acquire()
		if i%2 == 0 {
			assert.Equal(t, first, got, "acquire %d", i+2)
		} else {
			assert.Equal(t, second, got, "acquire %d", i+2)
		}
	}
}

func TestPingPongSecondAllocFailureReleasesFirst(t *testing.T) {
	b := newFakeBackend(nil)
	b.allocLimit = 1
	_, err := newPingPong(b, Size{W: 8, H: 8})
	require.ErrorIs(t, err, errAllocFailed)
	assert.Empty(t, b.live)
	assert.Len(t, b.released, 1)
}

func TestPingPongRelease(t *testing.T) {
	b := newFakeBackend(nil)
	p, err := newPingPong(b, Size{W: 4, H: 4})
	require.NoError(t, err)
	p.release(b)
	p.release(b)
	assert.Empty(t, b.live)
	assert.Len(t, b.released, 2)
}
