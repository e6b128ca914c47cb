package client

import (
	"time"

	"github.com/hako/durafmt"
)

// Timer is a cancellable callback that runs on the client loop. Once
// stopped, a timer never runs its callback, even if the underlying clock
// already fired and the callback is waiting in the loop queue.
//
// Timer methods must be called from the loop. A nil *Timer is valid and
// inactive.
type Timer struct {
	stopper Stopper
	done    bool
}

// Stop cancels the timer. It reports whether the callback was still
// pending.
func (t *Timer) Stop() bool {
	if t == nil || t.done {
		return false
	}
	t.done = true
	if t.stopper != nil {
		t.stopper.Stop()
	}
	return true
}

// Active reports whether the callback is still pending.
func (t *Timer) Active() bool {
	return t != nil && !t.done
}

// after schedules fn on the loop after d.
func (c *Client) after(d time.Duration, fn func()) *Timer {
	t := &Timer{}
	t.stopper = c.cfg.AfterFunc(d, func() {
		c.post(func() {
			if t.done {
				return
			}
			t.done = true
			fn()
		})
	})
	return t
}

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

// formatDuration renders d for log lines, e.g. "1s 500ms".
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	return durafmt.Parse(d).LimitFirstN(2).Format(shortUnits)
}
