package tariffconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ryansname/tariffctl/src/tariff"
	"github.com/shopspring/decimal"
)

// call splits "name(a, b)" into its name and trimmed arguments. A bare name has
// no arguments, as does "name()".
func call(expr string) (string, []string, error) {
	expr = strings.TrimSpace(expr)
	open := strings.Index(expr, "(")
	if open < 0 {
		return expr, nil, nil
	}
	if !strings.HasSuffix(expr, ")") {
		return "", nil, fmt.Errorf("%w: unterminated expression %q", tariff.ErrConfig, expr)
	}

	name := strings.TrimSpace(expr[:open])
	inner := strings.TrimSpace(expr[open+1 : len(expr)-1])
	if inner == "" {
		return name, nil, nil
	}

	args := strings.Split(inner, ",")
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	return name, args, nil
}

var namedPricing = map[string]func() tariff.PricingSpec{
	"average": tariff.AveragePrice,
	"minimum": tariff.MinimumPrice,
	"maximum": tariff.MaximumPrice,
}

// ParsePricing parses a pricing expression: average, minimum, maximum or fixed(price)
func ParsePricing(expr string) (tariff.PricingSpec, error) {
	name, args, err := call(expr)
	if err != nil {
		return tariff.PricingSpec{}, err
	}

	if name == "fixed" {
		if len(args) != 1 {
			return tariff.PricingSpec{}, fmt.Errorf("%w: fixed pricing takes one price, got %q", tariff.ErrConfig, expr)
		}
		price, err := decimal.NewFromString(args[0])
		if err != nil {
			return tariff.PricingSpec{}, fmt.Errorf("%w: invalid fixed price %q: %v", tariff.ErrConfig, args[0], err)
		}
		return tariff.FixedPrice(price), nil
	}

	spec, ok := namedPricing[name]
	if !ok {
		return tariff.PricingSpec{}, fmt.Errorf("%w: unknown pricing function %q", tariff.ErrConfig, name)
	}
	if len(args) != 0 {
		return tariff.PricingSpec{}, fmt.Errorf("%w: %s pricing takes no arguments, got %q", tariff.ErrConfig, name, expr)
	}
	return spec(), nil
}

// ParseThreshold parses a threshold expression: lowest(hours) or highest(hours).
// Literal prices are handled by ParseThresholdPrice.
func ParseThreshold(expr string) (tariff.ThresholdSpec, error) {
	name, args, err := call(expr)
	if err != nil {
		return tariff.ThresholdSpec{}, err
	}
	if !strings.Contains(expr, "(") {
		return tariff.ThresholdSpec{}, fmt.Errorf("%w: invalid threshold %q", tariff.ErrConfig, expr)
	}

	if name != "lowest" && name != "highest" {
		return tariff.ThresholdSpec{}, fmt.Errorf("%w: unknown threshold function %q", tariff.ErrConfig, name)
	}
	if len(args) != 1 {
		return tariff.ThresholdSpec{}, fmt.Errorf("%w: %s takes a number of hours, got %q", tariff.ErrConfig, name, expr)
	}
	hours, err := strconv.ParseFloat(args[0], 64)
	if err != nil || hours < 0 {
		return tariff.ThresholdSpec{}, fmt.Errorf("%w: invalid hours %q in %q", tariff.ErrConfig, args[0], expr)
	}

	if name == "lowest" {
		return tariff.LowestHours(hours), nil
	}
	return tariff.HighestHours(hours), nil
}

// ParseThresholdPrice parses a literal threshold price
func ParseThresholdPrice(value string) (tariff.ThresholdSpec, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return tariff.ThresholdSpec{}, fmt.Errorf("%w: invalid threshold price %q: %v", tariff.ErrConfig, value, err)
	}
	return tariff.FixedThreshold(price), nil
}
