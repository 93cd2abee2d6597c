package layout

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1200 * time.Second, "20:00"},
		{59 * time.Second, "00:59"},
		{61 * time.Second, "01:01"},
		{0, "00:00"},
		{-3 * time.Second, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClock(tt.in), tt.in.String())
	}
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "15", FormatScore(15))
	assert.Equal(t, "7.5", FormatScore(7.5))
	assert.Equal(t, "0", FormatScore(0))
}

func TestRenderHeader(t *testing.T) {
	h := RenderHeader("Quiz", Status{
		Module:     "6.2",
		ShowTimer:  true,
		Remaining:  90 * time.Second,
		Score:      15,
		Attainable: 20,
	}, 100)
	assert.Contains(t, h, "TutorAI")
	assert.Contains(t, h, "6.2")
	assert.Contains(t, h, "01:30")
	assert.Contains(t, h, "15/20")
}

func TestRenderHeader_HidesEmptySlots(t *testing.T) {
	h := RenderHeader("Sign in", Status{}, 100)
	assert.False(t, strings.Contains(h, "⏱"))
	assert.False(t, strings.Contains(h, "★"))
}

func TestIsTooSmall(t *testing.T) {
	assert.True(t, IsTooSmall(MinWidth-1, MinHeight))
	assert.True(t, IsTooSmall(MinWidth, MinHeight-1))
	assert.False(t, IsTooSmall(MinWidth, MinHeight))
}
