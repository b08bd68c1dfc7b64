package forward

import (
	"io"
	"sync"
	"time"
)

// watchdog fires a callback after a period with no recorded activity. It is
// the engine's idle-timeout primitive for both the inbound and upstream
// directions. A nil watchdog is valid and does nothing, which keeps call
// sites free of limit-is-zero checks.
type watchdog struct {
	period time.Duration
	expire func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// newWatchdog returns a started watchdog that calls expire if reset is not
// called within each successive period. It returns nil when period is zero
// or negative.
func newWatchdog(period time.Duration, expire func()) *watchdog {
	if period <= 0 {
		return nil
	}

	dog := &watchdog{
		period: period,
		expire: expire,
	}
	dog.timer = time.AfterFunc(period, dog.fire)

	return dog
}

// reset restarts the idle period. It is called whenever the watched stream
// makes progress.
func (dog *watchdog) reset() {
	if dog == nil {
		return
	}

	dog.mu.Lock()
	defer dog.mu.Unlock()

	if !dog.stopped {
		dog.timer.Reset(dog.period)
	}
}

// stop permanently disarms the watchdog. Once stop returns the expiry
// callback will never be invoked again, though it may be running
// concurrently with stop itself.
func (dog *watchdog) stop() {
	if dog == nil {
		return
	}

	dog.mu.Lock()
	defer dog.mu.Unlock()

	dog.stopped = true
	dog.timer.Stop()
}

func (dog *watchdog) fire() {
	dog.mu.Lock()
	stopped := dog.stopped
	dog.stopped = true
	dog.mu.Unlock()

	if !stopped {
		dog.expire()
	}
}

// activityReader resets a watchdog whenever the underlying reader makes
// progress.
type activityReader struct {
	reader io.Reader
	dog    *watchdog
}

func (r *activityReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.dog.reset()
	}

	return n, err
}

// Close closes the underlying reader if it is closable, so the transport can
// release the inbound body as usual.
func (r *activityReader) Close() error {
	if closer, ok := r.reader.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}
