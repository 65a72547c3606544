package tariff

import (
	"time"

	"github.com/shopspring/decimal"
)

// SlotDuration is the length of one rate slot
const SlotDuration = 30 * time.Minute

// Rate is the price for one slot, inclusive of Start and exclusive of End.
// The JSON shape matches the octopus_energy rate event data.
type Rate struct {
	Start time.Time       `json:"start"`
	End   time.Time       `json:"end"`
	Price decimal.Decimal `json:"value_inc_vat"`
}

// Period is an absolute span of time, e.g. "2024/01/01 00:00 to 2024/01/01 01:30"
type Period struct {
	Start time.Time
	End   time.Time
}

// samePeriod reports whether both rates cover exactly the same slot
func (r Rate) samePeriod(other Rate) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

// ExtendBackward pads rates so the first slot starts at or before start.
// Each added slot repeats the price of the slot after it.
func ExtendBackward(rates []Rate, start time.Time) []Rate {
	if len(rates) == 0 {
		return rates
	}

	var padding []Rate
	first := rates[0]
	for first.Start.After(start) {
		duration := first.End.Sub(first.Start)
		if duration <= 0 {
			duration = SlotDuration
		}
		first = Rate{
			Start: first.Start.Add(-duration),
			End:   first.Start,
			Price: first.Price,
		}
		padding = append(padding, first)
	}
	if len(padding) == 0 {
		return rates
	}

	extended := make([]Rate, 0, len(padding)+len(rates))
	for i := len(padding) - 1; i >= 0; i-- {
		extended = append(extended, padding[i])
	}
	return append(extended, rates...)
}

// ExtendForward pads rates so the last slot ends at or after end.
// Each added slot repeats the price of the slot before it.
func ExtendForward(rates []Rate, end time.Time) []Rate {
	if len(rates) == 0 {
		return rates
	}

	extended := append([]Rate(nil), rates...)
	last := extended[len(extended)-1]
	for last.End.Before(end) {
		duration := last.End.Sub(last.Start)
		if duration <= 0 {
			duration = SlotDuration
		}
		last = Rate{
			Start: last.End,
			End:   last.End.Add(duration),
			Price: last.Price,
		}
		extended = append(extended, last)
	}
	return extended
}
