package services

import "time"

type window struct {
	start time.Time
	end   time.Time
}

// currentWindow resolves the reporting window: explicit bounds when both are
// supplied, otherwise the current calendar month from its first instant to
// 23:59:59.999 on its last day, in now's location.
func currentWindow(now time.Time, start, end time.Time) window {
	if !start.IsZero() && !end.IsZero() {
		return window{start: start, end: end}
	}
	y, m, _ := now.Date()
	return window{
		start: time.Date(y, m, 1, 0, 0, 0, 0, now.Location()),
		// Day 0 of the next month normalizes to the last day of this one.
		end: time.Date(y, m+1, 0, 23, 59, 59, int(999*time.Millisecond), now.Location()),
	}
}

// previousWindow is the window of exactly equal duration ending one
// millisecond before w starts. For explicit custom ranges this means "the
// same span immediately before", not "the prior calendar month".
func previousWindow(w window) window {
	d := w.end.Sub(w.start)
	end := w.start.Add(-time.Millisecond)
	return window{start: end.Add(-d), end: end}
}
