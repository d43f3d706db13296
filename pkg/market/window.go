package market

import (
	"fmt"
	"time"
)

// WindowMinutes is the duration of one up/down market window
const WindowMinutes = 15

// WindowDuration is WindowMinutes as a time.Duration
const WindowDuration = WindowMinutes * time.Minute

// Window represents one 15-minute market interval, UTC-aligned to :00/:15/:30/:45
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowFor returns the market window containing t
func WindowFor(t time.Time) Window {
	start := t.UTC().Truncate(WindowDuration)
	return Window{Start: start, End: start.Add(WindowDuration)}
}

// Slug returns the market identifier for this window
// Format: bitcoin-up-or-down-2026-08-25-1430 (UTC window start)
func (w Window) Slug() string {
	return fmt.Sprintf("bitcoin-up-or-down-%s", w.Start.UTC().Format("2006-01-02-1504"))
}

// RemainingMinutes returns fractional minutes from now until window close
// Clamped at 0 once the window has ended
func (w Window) RemainingMinutes(now time.Time) float64 {
	rem := w.End.Sub(now).Minutes()
	if rem < 0 {
		return 0
	}
	return rem
}

// Contains reports whether t falls inside the window [Start, End)
func (w Window) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(w.Start) && u.Before(w.End)
}
