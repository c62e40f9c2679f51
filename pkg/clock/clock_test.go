package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedAdvance(t *testing.T) {
	c := At("2026-05-01")
	assert.Equal(t, "2026-05-01", c.Today().Format("2006-01-02"))
	c.Advance(8)
	assert.Equal(t, "2026-05-09", c.Today().Format("2006-01-02"))
}

func TestWallTodayUsesLocation(t *testing.T) {
	loc := time.FixedZone("X", 14*3600)
	c := New(loc)
	now := time.Now().In(loc)
	assert.Equal(t, now.Format("2006-01-02"), c.Today().Format("2006-01-02"))
	assert.Equal(t, time.UTC, c.Today().Location())
}
