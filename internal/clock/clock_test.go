package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	fc := NewFakeClock(start)

	assert.Equal(t, time.UTC, fc.Now().Location())
	assert.True(t, fc.Now().Equal(start))

	assert.Equal(t, start.Add(time.Hour).UTC(), fc.Advance(time.Hour))
	assert.Equal(t, start.Add(time.Hour).UTC(), fc.Now())

	fc.Set(start.Add(-time.Minute))
	assert.Equal(t, start.Add(-time.Minute).UTC(), fc.Now())
}

func TestSystemClockIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, SystemClock{}.Now().Location())
}
