package state

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timeoutFar = time.Hour

func TestAppState_SetTimeoutFires(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	done := make(chan struct{})
	require.True(t, s.SetTimeout("search", func() { close(done) }, 10*time.Millisecond))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}

	assert.Eventually(t, func() bool {
		return len(s.ActiveTimeouts()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestAppState_SetTimeoutReplaces(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	var first, second atomic.Int32
	done := make(chan struct{})

	s.SetTimeout("search", func() { first.Add(1) }, 20*time.Millisecond)
	s.SetTimeout("search", func() {
		second.Add(1)
		close(done)
	}, 40*time.Millisecond)

	assert.Equal(t, []string{"search"}, s.ActiveTimeouts())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement timer did not fire")
	}
	time.Sleep(30 * time.Millisecond)

	assert.Zero(t, first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestAppState_ClearTimeout(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	var fired atomic.Bool
	s.SetTimeout("search", func() { fired.Store(true) }, 20*time.Millisecond)

	assert.True(t, s.ClearTimeout("search"))
	assert.False(t, s.ClearTimeout("search"))
	assert.False(t, s.ClearTimeout("unknown"))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestAppState_ClearAllTimeouts(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	s.SetTimeout("b", func() {}, timeoutFar)
	s.SetTimeout("a", func() {}, timeoutFar)
	assert.Equal(t, []string{"a", "b"}, s.ActiveTimeouts())

	s.ClearAllTimeouts()
	assert.Empty(t, s.ActiveTimeouts())
}
