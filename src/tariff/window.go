package tariff

import (
	"fmt"
	"time"
)

// Day identifies one of the three days held by a RateWindow
type Day int

const (
	PreviousDay Day = iota
	CurrentDay
	NextDay
)

func (d Day) String() string {
	switch d {
	case PreviousDay:
		return "previous"
	case CurrentDay:
		return "current"
	case NextDay:
		return "next"
	}
	return fmt.Sprintf("day(%d)", int(d))
}

// RateWindow holds three consecutive days of rates for one meter point.
// A day is unset until the first update for it arrives, an empty day is still set.
type RateWindow struct {
	days [3][]Rate
	set  [3]bool
}

// Set replaces the rates for the given day
func (w *RateWindow) Set(day Day, rates []Rate) {
	if day < PreviousDay || day > NextDay {
		return
	}
	w.days[day] = append(make([]Rate, 0, len(rates)), rates...)
	w.set[day] = true
}

// SetPreviousDay replaces the previous day's rates
func (w *RateWindow) SetPreviousDay(rates []Rate) { w.Set(PreviousDay, rates) }

// SetCurrentDay replaces the current day's rates
func (w *RateWindow) SetCurrentDay(rates []Rate) { w.Set(CurrentDay, rates) }

// SetNextDay replaces the next day's rates
func (w *RateWindow) SetNextDay(rates []Rate) { w.Set(NextDay, rates) }

// Rates returns the rates held for day and whether the day has been set
func (w *RateWindow) Rates(day Day) ([]Rate, bool) {
	if day < PreviousDay || day > NextDay {
		return nil, false
	}
	return w.days[day], w.set[day]
}

// complete reports whether all three days have been set
func (w *RateWindow) complete() bool {
	return w.set[PreviousDay] && w.set[CurrentDay] && w.set[NextDay]
}

// Validate returns ErrNotReady while any day is unset or when adjacent days
// do not join exactly, i.e. the last slot of one day must end where the first
// slot of the next day starts.
func (w *RateWindow) Validate() error {
	for _, day := range []Day{PreviousDay, CurrentDay, NextDay} {
		if !w.set[day] {
			return fmt.Errorf("%w: waiting for %s day rates", ErrNotReady, day)
		}
	}

	for _, day := range []Day{PreviousDay, CurrentDay} {
		before, after := w.days[day], w.days[day+1]
		if len(before) == 0 || len(after) == 0 {
			continue
		}
		end := before[len(before)-1].End
		start := after[0].Start
		if !end.Equal(start) {
			return fmt.Errorf("%w: %s to %s day rates are not contiguous: %s %s",
				ErrNotReady, day, day+1, end.Format(time.RFC3339), start.Format(time.RFC3339))
		}
	}
	return nil
}

// Between returns every rate across the three days that lies within [start, end).
// Nothing is returned until all three days are set.
func (w *RateWindow) Between(start, end time.Time) []Rate {
	if !w.complete() {
		return nil
	}

	var rates []Rate
	for _, day := range w.days {
		for _, r := range day {
			if !r.Start.Before(start) && !r.End.After(end) {
				rates = append(rates, r)
			}
		}
	}
	return rates
}

// Clear unsets all three days
func (w *RateWindow) Clear() {
	w.days = [3][]Rate{}
	w.set = [3]bool{}
}
