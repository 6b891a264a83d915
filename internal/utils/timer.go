package utils

import "time"

// Timer measures elapsed wall-clock time between a start and a stop event.
// [NewTimer] starts the timer immediately; call [Timer.Stop] to capture the
// elapsed duration and read it back with [Timer.GetDuration].
type Timer struct {
	startTime time.Time
	duration  time.Duration
}

// NewTimer creates a Timer and records the current time as its start instant.
func NewTimer() *Timer {
	return &Timer{startTime: time.Now()}
}

// Start resets the start instant to now, beginning a fresh measurement.
func (t *Timer) Start() {
	t.startTime = time.Now()
}

// Stop captures the time elapsed since the last Start (or construction).
func (t *Timer) Stop() {
	t.duration = time.Since(t.startTime)
}

// GetDuration returns the duration captured by the most recent Stop, or zero
// if Stop has not been called.
func (t *Timer) GetDuration() time.Duration {
	return t.duration
}

// StartTime returns the instant recorded by the most recent Start.
func (t *Timer) StartTime() time.Time {
	return t.startTime
}
