package tariff

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceCap is the starting point for MinimumPricing, so a tier with no rates reports the cap
var PriceCap = decimal.NewFromInt(1)

// Pricing accumulates the slot prices assigned to a tier and reduces them to one tier price.
// Value may be called any number of times.
type Pricing interface {
	Add(price decimal.Decimal)
	Value() decimal.Decimal
}

// AveragePricing reports the mean price, or 0 if no prices were added.
// Negative means are reported as 0.
type AveragePricing struct {
	sum   decimal.Decimal
	count int64
}

func (p *AveragePricing) Add(price decimal.Decimal) {
	p.sum = p.sum.Add(price)
	p.count++
}

func (p *AveragePricing) Value() decimal.Decimal {
	if p.count == 0 {
		return decimal.Zero
	}
	return clampNegative(p.sum.Div(decimal.NewFromInt(p.count)))
}

// MinimumPricing reports the lowest price seen, starting from PriceCap.
// Negative minimums are reported as 0.
type MinimumPricing struct {
	min decimal.Decimal
}

// NewMinimumPricing creates a MinimumPricing starting at PriceCap
func NewMinimumPricing() *MinimumPricing {
	return &MinimumPricing{min: PriceCap}
}

func (p *MinimumPricing) Add(price decimal.Decimal) {
	if price.LessThan(p.min) {
		p.min = price
	}
}

func (p *MinimumPricing) Value() decimal.Decimal {
	return clampNegative(p.min)
}

// MaximumPricing reports the highest price seen, starting from 0
type MaximumPricing struct {
	max decimal.Decimal
}

func (p *MaximumPricing) Add(price decimal.Decimal) {
	if price.GreaterThan(p.max) {
		p.max = price
	}
}

func (p *MaximumPricing) Value() decimal.Decimal {
	return p.max
}

// FixedPricing ignores added prices and always reports the same value.
// Typically used to force the export price to 0.
type FixedPricing struct {
	value decimal.Decimal
}

// NewFixedPricing creates a FixedPricing reporting value
func NewFixedPricing(value decimal.Decimal) *FixedPricing {
	return &FixedPricing{value: value}
}

func (p *FixedPricing) Add(decimal.Decimal) {}

func (p *FixedPricing) Value() decimal.Decimal {
	return p.value
}

func clampNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// PricingKind selects a Pricing implementation
type PricingKind int

const (
	PricingAverage PricingKind = iota
	PricingMinimum
	PricingMaximum
	PricingFixed
)

func (k PricingKind) String() string {
	switch k {
	case PricingAverage:
		return "average"
	case PricingMinimum:
		return "minimum"
	case PricingMaximum:
		return "maximum"
	case PricingFixed:
		return "fixed"
	}
	return fmt.Sprintf("pricing(%d)", int(k))
}

// PricingSpec describes how to price one tier. Value is only used by PricingFixed.
type PricingSpec struct {
	Kind  PricingKind
	Value decimal.Decimal
}

// AveragePrice, MinimumPrice, MaximumPrice and FixedPrice build PricingSpecs
func AveragePrice() PricingSpec { return PricingSpec{Kind: PricingAverage} }
func MinimumPrice() PricingSpec { return PricingSpec{Kind: PricingMinimum} }
func MaximumPrice() PricingSpec { return PricingSpec{Kind: PricingMaximum} }
func FixedPrice(v decimal.Decimal) PricingSpec {
	return PricingSpec{Kind: PricingFixed, Value: v}
}

// New creates a fresh accumulator for the spec
func (s PricingSpec) New() (Pricing, error) {
	switch s.Kind {
	case PricingAverage:
		return &AveragePricing{}, nil
	case PricingMinimum:
		return NewMinimumPricing(), nil
	case PricingMaximum:
		return &MaximumPricing{}, nil
	case PricingFixed:
		return NewFixedPricing(s.Value), nil
	}
	return nil, fmt.Errorf("%w: unknown pricing %s", ErrConfig, s.Kind)
}

func (s PricingSpec) String() string {
	if s.Kind == PricingFixed {
		return fmt.Sprintf("fixed(%s)", s.Value)
	}
	return s.Kind.String()
}
