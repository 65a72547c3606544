package tariff

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// thresholdOffset is added to computed thresholds so a slot priced exactly at
// the threshold falls into the cheaper tier
var thresholdOffset = decimal.New(1, -6)

const slotsPerHour = float64(time.Hour / SlotDuration)

// ThresholdKind selects how a threshold is derived
type ThresholdKind int

const (
	// ThresholdFixed is a literal price
	ThresholdFixed ThresholdKind = iota
	// ThresholdLowest separates the cheapest Hours of the day
	ThresholdLowest
	// ThresholdHighest separates the most expensive Hours of the day
	ThresholdHighest
)

// ThresholdSpec describes one tier boundary
type ThresholdSpec struct {
	Kind  ThresholdKind
	Price decimal.Decimal
	Hours float64
}

// FixedThreshold, LowestHours and HighestHours build ThresholdSpecs
func FixedThreshold(price decimal.Decimal) ThresholdSpec {
	return ThresholdSpec{Kind: ThresholdFixed, Price: price}
}

func LowestHours(hours float64) ThresholdSpec {
	return ThresholdSpec{Kind: ThresholdLowest, Hours: hours}
}

func HighestHours(hours float64) ThresholdSpec {
	return ThresholdSpec{Kind: ThresholdHighest, Hours: hours}
}

func (s ThresholdSpec) String() string {
	switch s.Kind {
	case ThresholdFixed:
		return s.Price.String()
	case ThresholdLowest:
		return fmt.Sprintf("lowest(%g)", s.Hours)
	case ThresholdHighest:
		return fmt.Sprintf("highest(%g)", s.Hours)
	}
	return fmt.Sprintf("threshold(%d)", int(s.Kind))
}

// ThresholdConfig holds the default thresholds and the optional plunge pricing
// thresholds used when any rate in the day is negative
type ThresholdConfig struct {
	Default []ThresholdSpec
	Plunge  []ThresholdSpec
}

// Select returns the thresholds to use for the given rates
func (c ThresholdConfig) Select(rates []Rate) []ThresholdSpec {
	if len(c.Plunge) > 0 && hasNegativePrice(rates) {
		return c.Plunge
	}
	return c.Default
}

func hasNegativePrice(rates []Rate) bool {
	for _, r := range rates {
		if r.Price.IsNegative() {
			return true
		}
	}
	return false
}

// ResolveThresholds evaluates the configured thresholds against one day of import rates
func ResolveThresholds(rates []Rate, config ThresholdConfig) ([]decimal.Decimal, error) {
	specs := config.Select(rates)
	if len(specs) != TierCount-1 {
		return nil, fmt.Errorf("%w: %d thresholds must be specified, got %d", ErrConfig, TierCount-1, len(specs))
	}

	thresholds := make([]decimal.Decimal, 0, len(specs))
	for _, spec := range specs {
		v, err := spec.resolve(rates)
		if err != nil {
			return nil, err
		}
		thresholds = append(thresholds, v)
	}
	return thresholds, nil
}

func (s ThresholdSpec) resolve(rates []Rate) (decimal.Decimal, error) {
	switch s.Kind {
	case ThresholdFixed:
		return s.Price, nil
	case ThresholdLowest:
		return rankedPrice(rates, s.Hours, false)
	case ThresholdHighest:
		return rankedPrice(rates, s.Hours, true)
	}
	return decimal.Zero, fmt.Errorf("%w: unknown threshold %s", ErrConfig, s)
}

// rankedPrice sorts the day's prices and picks the price of the last slot within
// the requested number of hours, plus thresholdOffset
func rankedPrice(rates []Rate, hours float64, descending bool) (decimal.Decimal, error) {
	if len(rates) == 0 {
		return decimal.Zero, fmt.Errorf("%w: no rates to rank", ErrNotReady)
	}

	prices := make([]decimal.Decimal, len(rates))
	for i, r := range rates {
		prices[i] = r.Price
	}
	sort.Slice(prices, func(i, j int) bool {
		if descending {
			return prices[i].GreaterThan(prices[j])
		}
		return prices[i].LessThan(prices[j])
	})

	slots := int(math.RoundToEven(slotsPerHour * hours))
	index := slots - 1
	if index < 0 || index >= len(prices) {
		index = len(prices) - 1
	}
	return prices[index].Add(thresholdOffset), nil
}
