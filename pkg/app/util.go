package app

import "time"

// alignedDelay returns the time until the next poll tick aligned to the
// interval, so restarts land on the same schedule.
func alignedDelay(now time.Time, interval time.Duration) time.Duration {
	return interval - time.Duration(now.UnixNano())%interval
}
