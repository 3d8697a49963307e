package friendserver

import (
	"math"
	"time"
)

// campaignDelay computes how long Requester should wait before its next
// invitation campaign, given the current known-friend count f against the
// wanted count w.
//
// The smoothing term s interpolates between "far from the goal" (s=1,
// campaign almost immediately) and "nearly at the goal" (s→0, campaign as
// rarely as once an hour): s = max(0, (w-f)/w) while f<w, and s=1 once f
// has reached or passed w. The delay itself is
// 30 + floor(exp(-s + ln(3600)*(1-s))) seconds, which ranges from 30s at
// s=1 to a little over 3600s at s=0.
func campaignDelay(f, w int) time.Duration {
	var s float64
	if w <= 0 {
		s = 1
	} else if f < w {
		s = math.Max(0, float64(w-f)/float64(w))
	} else {
		s = 1
	}

	seconds := 30 + int(math.Floor(math.Exp(-s+math.Log(3600)*(1-s))))
	return time.Duration(seconds) * time.Second
}
