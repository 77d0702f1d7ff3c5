package event

import "time"

// A TimeTeller tells the current time in seconds since the Unix epoch.
type TimeTeller interface {
	CurrentTime() float64
}

// WallClock tells the time of the system clock with microsecond resolution.
type WallClock struct{}

// CurrentTime returns the current time.
func (WallClock) CurrentTime() float64 {
	return float64(time.Now().UnixMicro()) / 1e6
}
