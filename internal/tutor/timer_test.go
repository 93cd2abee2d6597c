package tutor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer_StoppedUntilStarted(t *testing.T) {
	tm := NewTimer(1200 * time.Second)
	assert.False(t, tm.Running())
	assert.False(t, tm.Tick())
	assert.Equal(t, 1200*time.Second, tm.Remaining())
}

func TestTimer_CountsDownToZero(t *testing.T) {
	tm := NewTimer(2 * time.Second)
	tm.Start()

	assert.True(t, tm.Tick())
	assert.Equal(t, time.Second, tm.Remaining())
	assert.False(t, tm.Tick())
	assert.True(t, tm.Expired())
	assert.False(t, tm.Running())

	// Never below zero.
	assert.False(t, tm.Tick())
	assert.Equal(t, time.Duration(0), tm.Remaining())

	// Start does not revive an expired timer.
	tm.Start()
	assert.False(t, tm.Running())
}

func TestTimer_AcknowledgeRefills(t *testing.T) {
	tm := NewTimer(1 * time.Second)
	tm.Start()
	tm.Tick()
	assert.True(t, tm.Expired())

	tm.Acknowledge()
	assert.False(t, tm.Expired())
	assert.True(t, tm.Running())
	assert.Equal(t, time.Second, tm.Remaining())
}

func TestTimer_Reset(t *testing.T) {
	tm := NewTimer(5 * time.Second)
	tm.Start()
	tm.Tick()
	tm.Reset()
	assert.False(t, tm.Running())
	assert.Equal(t, 5*time.Second, tm.Remaining())
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		answered int
		want     Verdict
	}{
		{"nothing answered", 0, 0, VerdictNone},
		{"below pass", 29, 5, VerdictFailed},
		{"exactly pass", 30, 5, VerdictReview},
		{"below review", 42, 5, VerdictReview},
		{"exactly review", 42.5, 5, VerdictPassed},
		{"perfect", 50, 5, VerdictPassed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Assess(tt.score, tt.answered, 10, 0.6, 0.85))
		})
	}
}
