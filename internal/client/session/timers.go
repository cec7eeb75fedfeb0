package session

import (
	"time"

	"github.com/benbjohnson/clock"
)

// sessionTimers owns the warning and close timers. It is not safe for
// concurrent use; Lifecycle guards it with its mutex.
type sessionTimers struct {
	clock   clock.Clock
	warning *clock.Timer
	close   *clock.Timer
}

func (t *sessionTimers) startWarning(d time.Duration, fn func()) {
	t.stopWarning()
	t.warning = t.clock.AfterFunc(d, fn)
}

func (t *sessionTimers) startClose(d time.Duration, fn func()) {
	t.stopClose()
	t.close = t.clock.AfterFunc(d, fn)
}

func (t *sessionTimers) stopWarning() {
	if t.warning != nil {
		t.warning.Stop()
		t.warning = nil
	}
}

func (t *sessionTimers) stopClose() {
	if t.close != nil {
		t.close.Stop()
		t.close = nil
	}
}

func (t *sessionTimers) stopAll() {
	t.stopWarning()
	t.stopClose()
}

// pending reports which timers are scheduled and have not fired or been
// stopped.
func (t *sessionTimers) pending() (warning, close bool) {
	return t.warning != nil, t.close != nil
}
