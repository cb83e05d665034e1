// Package sim contains the simulation core: the wall-clock-driven tick
// scheduler, the province/country/unit instance managers and the
// InstanceManager orchestrating the daily tick and gamestate update
// pipeline.
package sim

import (
	"time"
)

// DefaultSpeedIntervals is the tick interval per speed level, slowest
// first. The jump from one second to a tenth is the elevated "very fast"
// tier; the final millisecond level effectively ticks every poll.
var DefaultSpeedIntervals = []time.Duration{
	4000 * time.Millisecond,
	3000 * time.Millisecond,
	2000 * time.Millisecond,
	1000 * time.Millisecond,
	100 * time.Millisecond,
	1 * time.Millisecond,
}

// Clock decides when to fire the tick callback based on elapsed monotonic
// time since the last tick, at a discrete speed level, with a pause state.
// It never sleeps: the owner polls ConditionallyAdvance once per frame.
// Single goroutine only.
type Clock struct {
	intervals []time.Duration
	speed     int
	paused    bool
	lastTick  time.Time

	onTick         func()
	onRefresh      func()
	onSpeedChanged func()

	now func() time.Time
}

// NewClock builds a paused clock at the slowest speed. Nil intervals fall
// back to DefaultSpeedIntervals; nil callbacks are allowed and skipped.
func NewClock(intervals []time.Duration, onTick, onRefresh, onSpeedChanged func()) *Clock {
	if len(intervals) == 0 {
		intervals = DefaultSpeedIntervals
	}
	c := &Clock{
		intervals:      intervals,
		paused:         true,
		onTick:         onTick,
		onRefresh:      onRefresh,
		onSpeedChanged: onSpeedChanged,
		now:            time.Now,
	}
	c.lastTick = c.now()
	return c
}

// Speed returns the current speed level, 0 being slowest.
func (c *Clock) Speed() int { return c.speed }

// SpeedCount returns the number of speed levels.
func (c *Clock) SpeedCount() int { return len(c.intervals) }

// Interval returns the tick interval for the current speed.
func (c *Clock) Interval() time.Duration { return c.intervals[c.speed] }

// IsPaused reports the pause state.
func (c *Clock) IsPaused() bool { return c.paused }

// SetPaused sets the pause state without touching speed or timestamps.
func (c *Clock) SetPaused(paused bool) { c.paused = paused }

// TogglePaused flips the pause state and returns the new value.
func (c *Clock) TogglePaused() bool {
	c.paused = !c.paused
	return c.paused
}

// SetSpeed clamps the requested level into range. Out-of-range requests
// never error. The speed-changed callback fires only when the level
// actually moves.
func (c *Clock) SetSpeed(speed int) {
	if speed < 0 {
		speed = 0
	}
	if speed > len(c.intervals)-1 {
		speed = len(c.intervals) - 1
	}
	if speed == c.speed {
		return
	}
	c.speed = speed
	if c.onSpeedChanged != nil {
		c.onSpeedChanged()
	}
}

// CanIncreaseSpeed reports whether a faster level exists. No mutation.
func (c *Clock) CanIncreaseSpeed() bool { return c.speed < len(c.intervals)-1 }

// CanDecreaseSpeed reports whether a slower level exists. No mutation.
func (c *Clock) CanDecreaseSpeed() bool { return c.speed > 0 }

// IncreaseSpeed moves one level faster, clamped at the fastest.
func (c *Clock) IncreaseSpeed() { c.SetSpeed(c.speed + 1) }

// DecreaseSpeed moves one level slower, clamped at the slowest.
func (c *Clock) DecreaseSpeed() { c.SetSpeed(c.speed - 1) }

// Reset forces paused at the slowest speed and restarts the elapsed-time
// baseline. It does not fire the speed-changed callback.
func (c *Clock) Reset() {
	c.paused = true
	c.speed = 0
	c.lastTick = c.now()
}

// ConditionallyAdvance fires the tick callback if the clock is unpaused
// and the current speed's interval has elapsed since the last tick, then
// always fires the refresh callback, paused or not. Elapsed time is
// measured against the monotonic clock so wall-time adjustments cannot
// run ticks backward.
func (c *Clock) ConditionallyAdvance() {
	if !c.paused {
		now := c.now()
		if now.Sub(c.lastTick) >= c.intervals[c.speed] {
			c.lastTick = now
			if c.onTick != nil {
				c.onTick()
			}
		}
	}
	if c.onRefresh != nil {
		c.onRefresh()
	}
}
