package tariff

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingConfig holds one pricing spec per tier for imports and for exports
type PricingConfig struct {
	Import [TierCount]PricingSpec
	Export [TierCount]PricingSpec
}

// DefaultExportPricing prices every tier's export at 0
func DefaultExportPricing() [TierCount]PricingSpec {
	var specs [TierCount]PricingSpec
	for i := range specs {
		specs[i] = FixedPrice(decimal.Zero)
	}
	return specs
}

// Schedule is everything computed for one tier: its merged periods and its prices
type Schedule struct {
	Tier    Tier
	Import  Pricing
	Export  Pricing
	Periods []Period

	tracker periodTracker
}

// ImportPrice is the buy price for the tier
func (s *Schedule) ImportPrice() decimal.Decimal { return s.Import.Value() }

// ExportPrice is the sell price for the tier
func (s *Schedule) ExportPrice() decimal.Decimal { return s.Export.Value() }

func (s *Schedule) add(importRate Rate, exportRate *Rate) {
	s.tracker.advance(importRate)
	s.Import.Add(importRate.Price)
	if exportRate != nil {
		s.Export.Add(exportRate.Price)
	}
}

func (s *Schedule) finish() {
	s.Periods = s.tracker.flush()
}

// periodTracker merges time-contiguous slots into periods.
// open is nil while no period is open.
type periodTracker struct {
	open   *Period
	closed []Period
}

// advance moves the tracker on by one slot, extending the open period when the
// slot starts where it ends and otherwise closing it and opening a new one
func (t *periodTracker) advance(r Rate) {
	switch {
	case t.open == nil:
		t.open = &Period{Start: r.Start, End: r.End}
	case r.Start.Equal(t.open.End):
		t.open.End = r.End
	default:
		t.closed = append(t.closed, *t.open)
		t.open = &Period{Start: r.Start, End: r.End}
	}
}

// flush closes any open period and returns every period seen
func (t *periodTracker) flush() []Period {
	if t.open != nil {
		t.closed = append(t.closed, *t.open)
		t.open = nil
	}
	return t.closed
}

// BuildSchedules classifies each import rate into a tier using thresholds and
// returns one Schedule per tier, in tier order. exportRates may be empty, otherwise
// they must pair up one to one with importRates.
func BuildSchedules(importRates, exportRates []Rate, thresholds []decimal.Decimal, pricing PricingConfig) ([]*Schedule, error) {
	if len(importRates) == 0 {
		return nil, fmt.Errorf("%w: no import rates for the day", ErrNotReady)
	}
	if len(thresholds) != TierCount-1 {
		return nil, fmt.Errorf("%w: %d thresholds must be specified, got %d", ErrConfig, TierCount-1, len(thresholds))
	}
	if len(exportRates) > len(importRates) {
		return nil, fmt.Errorf("%w: %d export rates for %d import rates", ErrData, len(exportRates), len(importRates))
	}

	schedules := make([]*Schedule, 0, TierCount)
	for _, tier := range Tiers {
		importPricing, err := pricing.Import[tier].New()
		if err != nil {
			return nil, fmt.Errorf("%s import pricing: %w", tier, err)
		}
		exportPricing, err := pricing.Export[tier].New()
		if err != nil {
			return nil, fmt.Errorf("%s export pricing: %w", tier, err)
		}
		schedules = append(schedules, &Schedule{
			Tier:   tier,
			Import: importPricing,
			Export: exportPricing,
		})
	}

	for i, importRate := range importRates {
		var exportRate *Rate
		if i < len(exportRates) {
			exportRate = &exportRates[i]
			if !importRate.samePeriod(*exportRate) {
				return nil, fmt.Errorf("%w: import and export rates are not for the same period: import was %s-%s, export was %s-%s",
					ErrData, importRate.Start, importRate.End, exportRate.Start, exportRate.End)
			}
		}
		schedules[Classify(importRate.Price, thresholds)].add(importRate, exportRate)
	}

	for _, s := range schedules {
		s.finish()
	}
	return schedules, nil
}

// Classify returns the first tier whose threshold is above price, or the most
// expensive tier if none is
func Classify(price decimal.Decimal, thresholds []decimal.Decimal) Tier {
	for i, threshold := range thresholds {
		if i >= TierCount-1 {
			break
		}
		if price.LessThan(threshold) {
			return Tiers[i]
		}
	}
	return OnPeak
}
