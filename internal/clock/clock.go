package clock

import "time"

// BucketLayout is the hour-partitioned key prefix convention used by the
// upstream producers: one folder per UTC hour.
const BucketLayout = "2006/01/02/15"

// Clock derives hour-bucketed object key prefixes from wall-clock time.
// The time source is injectable so window behavior is testable.
type Clock struct {
	now func() time.Time
}

// New returns a Clock backed by the real wall clock.
func New() *Clock {
	return &Clock{now: time.Now}
}

// NewWithNow returns a Clock backed by the given time source.
func NewWithNow(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// CurrentBucket returns the prefix for the current UTC hour.
func (c *Clock) CurrentBucket() string {
	return c.Bucket(0)
}

// Bucket returns the prefix for the UTC hour hoursAgo hours before now.
func (c *Clock) Bucket(hoursAgo int) string {
	t := c.now().UTC().Add(-time.Duration(hoursAgo) * time.Hour)
	return t.Format(BucketLayout)
}

// Prefixes returns the bucket prefixes for the current hour and each of
// the lookbackHours preceding hours, most recent first. A lookback of 0
// yields only the current hour.
func (c *Clock) Prefixes(lookbackHours int) []string {
	if lookbackHours < 0 {
		lookbackHours = 0
	}
	prefixes := make([]string, 0, lookbackHours+1)
	for h := 0; h <= lookbackHours; h++ {
		prefixes = append(prefixes, c.Bucket(h))
	}
	return prefixes
}
