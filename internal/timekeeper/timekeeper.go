// Package timekeeper records the wall-clock span of nodes, steps and actions.
package timekeeper

import (
	"fmt"
	"strings"
	"time"
)

// Unmeasured is printed for a TimeKeeper that has not been both started and stopped.
const Unmeasured = "[--:--.---]"

// TimeKeeper records when an operation started and stopped.
// The zero value is ready to use.
type TimeKeeper struct {
	start time.Time
	stop  time.Time
	now   func() time.Time
}

// New returns a TimeKeeper that reads time from clock. A nil clock uses time.Now.
func New(clock func() time.Time) *TimeKeeper {
	return &TimeKeeper{now: clock}
}

func (t *TimeKeeper) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now().UTC()
}

func (t *TimeKeeper) Start() { t.start = t.clock() }

func (t *TimeKeeper) Stop() { t.stop = t.clock() }

func (t *TimeKeeper) StartTime() time.Time { return t.start }

func (t *TimeKeeper) StopTime() time.Time { return t.stop }

// Measured reports whether both Start and Stop have been recorded.
func (t *TimeKeeper) Measured() bool {
	return !t.start.IsZero() && !t.stop.IsZero()
}

// Delta returns the recorded span, or zero when not measured.
func (t *TimeKeeper) Delta() time.Duration {
	if !t.Measured() {
		return 0
	}
	return t.stop.Sub(t.start)
}

// DeltaString formats Delta for humans, or Unmeasured.
func (t *TimeKeeper) DeltaString() string {
	if !t.Measured() {
		return Unmeasured
	}
	return FormatDuration(t.Delta())
}

// Reset clears the recorded times. The clock is kept.
func (t *TimeKeeper) Reset() {
	t.start = time.Time{}
	t.stop = time.Time{}
}

// FormatDuration renders d with whole-second precision, e.g. "1d 2h 3min 4secs".
// Leading zero units are omitted; seconds are always printed.
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	days := secs / 86400
	hours := secs / 3600 % 24
	minutes := secs / 60 % 60
	seconds := secs % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dmin ", minutes)
	}
	if seconds == 1 {
		fmt.Fprintf(&b, "%dsec", seconds)
	} else {
		fmt.Fprintf(&b, "%dsecs", seconds)
	}
	return b.String()
}
