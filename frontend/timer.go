package frontend

import "time"

// Timer captures timing offsets for an exchange, in milliseconds.
type Timer struct {
	StartedAt       time.Time
	TimeToFirstByte float64
	TimeToLastByte  float64
}

// Start the timer.
func (timer *Timer) Start() {
	timer.StartedAt = time.Now()
}

// FirstByteSent records the time offset to the first byte.
func (timer *Timer) FirstByteSent() {
	timer.TimeToFirstByte = float64(time.Since(timer.StartedAt)) / float64(time.Millisecond)
}

// IsFirstByteSent returns true if the first byte has been sent.
func (timer *Timer) IsFirstByteSent() bool {
	return timer.TimeToFirstByte > 0
}

// LastByteSent records the time offset to the last byte.
func (timer *Timer) LastByteSent() {
	timer.TimeToLastByte = float64(time.Since(timer.StartedAt)) / float64(time.Millisecond)
}

// IsLastByteSent returns true if the last byte has been sent.
func (timer *Timer) IsLastByteSent() bool {
	return timer.TimeToLastByte > 0
}
