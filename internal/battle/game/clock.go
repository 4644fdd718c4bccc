package game

import "time"

// Clock reads game time in seconds. It never runs backward.
type Clock interface {
	Now() float64
}

type monotonicClock struct {
	origin time.Time
}

// NewClock starts a clock at zero now. time.Since uses the monotonic reading.
func NewClock() Clock {
	return monotonicClock{origin: time.Now()}
}

func (c monotonicClock) Now() float64 {
	return time.Since(c.origin).Seconds()
}
