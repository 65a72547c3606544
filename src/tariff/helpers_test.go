package tariff

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var day0 = time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// assertPrice compares decimals by value so 0.1 and 0.10 are equal
func assertPrice(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, price(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

// slots builds consecutive half hour rates starting at start
func slots(start time.Time, prices ...string) []Rate {
	rates := make([]Rate, 0, len(prices))
	for i, p := range prices {
		s := start.Add(time.Duration(i) * SlotDuration)
		rates = append(rates, Rate{Start: s, End: s.Add(SlotDuration), Price: price(p)})
	}
	return rates
}

// flatDay builds a full day of half hour rates at one price
func flatDay(start time.Time, p string) []Rate {
	prices := make([]string, 48)
	for i := range prices {
		prices[i] = p
	}
	return slots(start, prices...)
}

func allAverage() PricingConfig {
	return PricingConfig{
		Import: [TierCount]PricingSpec{AveragePrice(), AveragePrice(), AveragePrice(), AveragePrice()},
		Export: DefaultExportPricing(),
	}
}

func fixedThresholds(prices ...string) []ThresholdSpec {
	specs := make([]ThresholdSpec, 0, len(prices))
	for _, p := range prices {
		specs = append(specs, FixedThreshold(price(p)))
	}
	return specs
}
