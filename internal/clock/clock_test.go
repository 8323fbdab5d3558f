package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestBucketFormatsUTCHour(t *testing.T) {
	c := NewWithNow(fixed(time.Date(2024, 5, 1, 10, 42, 7, 0, time.UTC)))

	assert.Equal(t, "2024/05/01/10", c.CurrentBucket())
	assert.Equal(t, "2024/05/01/09", c.Bucket(1))
	assert.Equal(t, "2024/05/01/06", c.Bucket(4))
}

func TestBucketZeroEqualsCurrent(t *testing.T) {
	c := NewWithNow(fixed(time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)))

	assert.Equal(t, c.CurrentBucket(), c.Bucket(0))
}

func TestBucketConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	c := NewWithNow(fixed(time.Date(2024, 5, 1, 3, 0, 0, 0, loc)))

	// 03:00 UTC+7 is 20:00 UTC on the previous day.
	assert.Equal(t, "2024/04/30/20", c.CurrentBucket())
}

func TestBucketRollsOverCalendarBoundaries(t *testing.T) {
	c := NewWithNow(fixed(time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC)))

	assert.Equal(t, "2024/01/01/00", c.Bucket(0))
	assert.Equal(t, "2023/12/31/23", c.Bucket(1))
	assert.Equal(t, "2023/12/31/22", c.Bucket(2))
}

func TestBucketMonotonicallyNonIncreasing(t *testing.T) {
	c := NewWithNow(fixed(time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)))

	prev := c.Bucket(0)
	for h := 1; h <= 48; h++ {
		cur := c.Bucket(h)
		// Lexical order of YYYY/MM/DD/HH matches chronological order.
		assert.Less(t, cur, prev, "bucket(%d) should precede bucket(%d)", h, h-1)
		prev = cur
	}
}

func TestPrefixes(t *testing.T) {
	c := NewWithNow(fixed(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))

	require.Equal(t, []string{"2024/05/01/10"}, c.Prefixes(0))
	require.Equal(t, []string{"2024/05/01/10", "2024/05/01/09"}, c.Prefixes(1))
	require.Equal(t, []string{
		"2024/05/01/10",
		"2024/05/01/09",
		"2024/05/01/08",
		"2024/05/01/07",
	}, c.Prefixes(3))
}

func TestPrefixesNegativeLookback(t *testing.T) {
	c := NewWithNow(fixed(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))

	assert.Equal(t, []string{"2024/05/01/10"}, c.Prefixes(-2))
}
