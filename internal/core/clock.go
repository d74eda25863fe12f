package core

import "time"

// Clock supplies "today" so dueness and balance cutoffs never read the
// wall clock directly. Services take a Clock; binaries pass NewClock
// and tests pass a FixedClock.
type Clock interface {
	Today() Date
}

type systemClock struct {
	loc *time.Location
}

// NewClock returns a Clock that reads the wall clock in the given
// location. A nil location falls back to time.Local.
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return systemClock{loc: loc}
}

func (c systemClock) Today() Date {
	return DateOf(time.Now().In(c.loc))
}

// FixedClock always reports the same day.
type FixedClock Date

func (f FixedClock) Today() Date {
	return Date(f)
}
