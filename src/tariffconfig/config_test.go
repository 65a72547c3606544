package tariffconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ryansname/tariffctl/src/tariff"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const agileConfig = `
import_mpan: 1200000000001
export_mpan: "1200000000002"
tariff_name: Agile
tariff_provider: Octopus
tariff_breaks:
  - 0.15
  - lowest(6)
  - "highest(3)"
plunge_pricing_tariff_breaks: [0, 0.1, 0.2]
import_tariff_pricing: [minimum, average, average, maximum]
export_tariff_pricing: [average, average, "fixed(0.15)", average]
`

func TestParse(t *testing.T) {
	config, err := Parse([]byte(agileConfig), time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "1200000000001", config.ImportMPAN)
	assert.Equal(t, "1200000000002", config.ExportMPAN)
	assert.Equal(t, "Agile", config.Tariff.Name)
	assert.Equal(t, "Octopus", config.Tariff.Provider)
	assert.Equal(t, time.UTC, config.Tariff.Location)

	breaks := config.Tariff.Thresholds.Default
	require.Len(t, breaks, 3)
	assert.Equal(t, tariff.ThresholdFixed, breaks[0].Kind)
	assert.True(t, decimal.RequireFromString("0.15").Equal(breaks[0].Price))
	assert.Equal(t, tariff.LowestHours(6), breaks[1])
	assert.Equal(t, tariff.HighestHours(3), breaks[2])

	assert.Len(t, config.Tariff.Thresholds.Plunge, 3)

	assert.Equal(t, tariff.PricingMinimum, config.Tariff.Pricing.Import[tariff.SuperOffPeak].Kind)
	assert.Equal(t, tariff.PricingMaximum, config.Tariff.Pricing.Import[tariff.OnPeak].Kind)
	exportPartial := config.Tariff.Pricing.Export[tariff.PartialPeak]
	assert.Equal(t, tariff.PricingFixed, exportPartial.Kind)
	assert.True(t, decimal.RequireFromString("0.15").Equal(exportPartial.Value))
}

func TestParse_Defaults(t *testing.T) {
	config, err := Parse([]byte(`
import_mpan: "1200000000001"
tariff_name: Agile
tariff_provider: Octopus
tariff_breaks: [0.1, 0.2, 0.3]
tariff_pricing: [average, average, average, average]
`), time.UTC)
	require.NoError(t, err)

	assert.Empty(t, config.ExportMPAN)
	assert.Nil(t, config.Tariff.Thresholds.Plunge)
	assert.Equal(t, tariff.PricingAverage, config.Tariff.Pricing.Import[tariff.OnPeak].Kind)
	for _, spec := range config.Tariff.Pricing.Export {
		assert.Equal(t, tariff.PricingFixed, spec.Kind)
		assert.True(t, spec.Value.IsZero())
	}
}

func TestParse_ImportPricingWinsOverLegacy(t *testing.T) {
	config, err := Parse([]byte(`
import_mpan: 1
tariff_name: n
tariff_provider: p
tariff_breaks: [0.1, 0.2, 0.3]
tariff_pricing: [average, average, average, average]
import_tariff_pricing: [maximum, maximum, maximum, maximum]
`), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, tariff.PricingMaximum, config.Tariff.Pricing.Import[tariff.SuperOffPeak].Kind)
}

func TestParse_Invalid(t *testing.T) {
	const base = `
tariff_name: n
tariff_provider: p
`
	tests := []struct {
		name string
		yaml string
	}{
		{"missing import mpan", base + "tariff_breaks: [0.1, 0.2, 0.3]\ntariff_pricing: [average, average, average, average]\n"},
		{"missing name", "import_mpan: 1\ntariff_provider: p\ntariff_breaks: [0.1, 0.2, 0.3]\ntariff_pricing: [average, average, average, average]\n"},
		{"two breaks", base + "import_mpan: 1\ntariff_breaks: [0.1, 0.2]\ntariff_pricing: [average, average, average, average]\n"},
		{"two plunge breaks", base + "import_mpan: 1\ntariff_breaks: [0.1, 0.2, 0.3]\nplunge_pricing_tariff_breaks: [0, 0.1]\ntariff_pricing: [average, average, average, average]\n"},
		{"three import pricings", base + "import_mpan: 1\ntariff_breaks: [0.1, 0.2, 0.3]\ntariff_pricing: [average, average, average]\n"},
		{"no import pricing", base + "import_mpan: 1\ntariff_breaks: [0.1, 0.2, 0.3]\n"},
		{"five export pricings", base + "import_mpan: 1\ntariff_breaks: [0.1, 0.2, 0.3]\ntariff_pricing: [average, average, average, average]\nexport_tariff_pricing: [average, average, average, average, average]\n"},
		{"unknown pricing", base + "import_mpan: 1\ntariff_breaks: [0.1, 0.2, 0.3]\ntariff_pricing: [average, median, average, average]\n"},
		{"unknown threshold", base + "import_mpan: 1\ntariff_breaks: [0.1, cheapest(2), 0.3]\ntariff_pricing: [average, average, average, average]\n"},
		{"quoted number threshold", base + "import_mpan: 1\ntariff_breaks: [0.1, \"0.2\", 0.3]\ntariff_pricing: [average, average, average, average]\n"},
		{"mpan list", base + "import_mpan: [1, 2]\ntariff_breaks: [0.1, 0.2, 0.3]\ntariff_pricing: [average, average, average, average]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), time.UTC)
			assert.ErrorIs(t, err, tariff.ErrConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tariff.yaml")
	require.NoError(t, os.WriteFile(path, []byte(agileConfig), 0o600))

	config, err := Load(path, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "1200000000001", config.ImportMPAN)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), time.UTC)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
