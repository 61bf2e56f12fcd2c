package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBreakerStartsClosed(t *testing.T) {
	b := New("ratelimit-redis")
	assert.Equal(t, "ratelimit-redis", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.IsOpen())
}

// step is one recorded outcome and the state expected after it.
type step struct {
	fail     bool
	wantOpen bool
}

func TestBreakerTransitions(t *testing.T) {
	for _, tc := range []struct {
		name  string
		opts  []Option
		steps []step
	}{
		{
			name:  "opens on the threshold failure",
			opts:  []Option{WithFailureThreshold(3)},
			steps: []step{{true, false}, {true, false}, {true, true}},
		},
		{
			name:  "success clears the failure streak",
			opts:  []Option{WithFailureThreshold(3)},
			steps: []step{{true, false}, {true, false}, {false, false}, {true, false}, {true, false}, {true, true}},
		},
		{
			name:  "closes after enough successes",
			opts:  []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{{true, true}, {false, true}, {false, false}},
		},
		{
			name: "failure while open restarts the success count",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(3)},
			steps: []step{
				{true, true}, {false, true}, {false, true},
				{true, true}, {false, true}, {false, true}, {false, false},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := New("store", tc.opts...)
			for i, s := range tc.steps {
				if s.fail {
					b.RecordFailure()
				} else {
					b.RecordSuccess()
				}
				require.Equal(t, s.wantOpen, b.IsOpen(), "after step %d", i)
			}
		})
	}
}

func TestBreakerReportsStateChangesOnce(t *testing.T) {
	b := New("store", WithFailureThreshold(1), WithSuccessThreshold(1))

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened)

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.False(t, change.Closed)
}

func TestBreakerReset(t *testing.T) {
	b := New("store", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.IsOpen())
}
