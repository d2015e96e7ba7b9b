package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStay_Dates(t *testing.T) {
	s, err := ParseStay("2026-12-30", "2027-01-02")
	require.NoError(t, err)

	assert.Equal(t, 3, s.Nights())
	assert.Equal(t, []string{"2026-12-30", "2026-12-31", "2027-01-01"}, s.Dates())
	assert.Equal(t, "2026-12-30", s.FirstNight())
	assert.Equal(t, "2027-01-01", s.LastNight())
}

func TestNewStay_RejectsEmptyAndInvertedRanges(t *testing.T) {
	d := time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC)

	_, err := NewStay(d, d.Add(3*time.Hour))
	assert.ErrorIs(t, err, ErrInvalidStay)

	_, err = NewStay(d, d.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidStay)
}

func TestStay_OverlapsIsHalfOpen(t *testing.T) {
	a, _ := ParseStay("2026-05-01", "2026-05-03")
	b, _ := ParseStay("2026-05-03", "2026-05-05")
	c, _ := ParseStay("2026-05-02", "2026-05-04")

	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(b))
}
