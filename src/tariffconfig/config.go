// Package tariffconfig loads the tariff YAML file and turns its expressions
// into the specs used by the tariff engine.
package tariffconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ryansname/tariffctl/src/tariff"
	"gopkg.in/yaml.v3"
)

// MPAN is a meter point administration number. YAML integers and strings are both accepted.
type MPAN string

func (m *MPAN) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: mpan must be a number or string", tariff.ErrConfig, value.Line)
	}
	if value.Tag == "!!null" {
		*m = ""
		return nil
	}
	*m = MPAN(strings.TrimSpace(value.Value))
	return nil
}

// Threshold is one tariff break: a number, or a lowest(h)/highest(h) expression
type Threshold struct {
	tariff.ThresholdSpec
}

func (t *Threshold) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: threshold must be a number or expression", tariff.ErrConfig, value.Line)
	}

	var (
		spec tariff.ThresholdSpec
		err  error
	)
	switch value.Tag {
	case "!!int", "!!float":
		spec, err = ParseThresholdPrice(value.Value)
	case "!!str":
		spec, err = ParseThreshold(value.Value)
	default:
		err = fmt.Errorf("%w: invalid threshold %q", tariff.ErrConfig, value.Value)
	}
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	t.ThresholdSpec = spec
	return nil
}

// Pricing is one tier's pricing expression
type Pricing struct {
	tariff.PricingSpec
}

func (p *Pricing) UnmarshalYAML(value *yaml.Node) error {
	var expr string
	if err := value.Decode(&expr); err != nil {
		return fmt.Errorf("%w: line %d: pricing must be a string: %v", tariff.ErrConfig, value.Line, err)
	}
	spec, err := ParsePricing(expr)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	p.PricingSpec = spec
	return nil
}

// File mirrors the YAML tariff file
type File struct {
	ImportMPAN     MPAN        `yaml:"import_mpan"`
	ExportMPAN     MPAN        `yaml:"export_mpan"`
	TariffName     string      `yaml:"tariff_name"`
	TariffProvider string      `yaml:"tariff_provider"`
	TariffBreaks   []Threshold `yaml:"tariff_breaks"`
	PlungeBreaks   []Threshold `yaml:"plunge_pricing_tariff_breaks"`
	ImportPricing  []Pricing   `yaml:"import_tariff_pricing"`
	// LegacyPricing is the old name for ImportPricing
	LegacyPricing []Pricing `yaml:"tariff_pricing"`
	ExportPricing []Pricing `yaml:"export_tariff_pricing"`
}

// Config is the validated tariff configuration
type Config struct {
	ImportMPAN string
	ExportMPAN string
	Tariff     tariff.Config
}

// Load reads and validates the tariff file at path. Times are interpreted in loc.
func Load(path string, loc *time.Location) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading tariff config: %w", err)
	}
	return Parse(data, loc)
}

// Parse decodes and validates a tariff file
func Parse(data []byte, loc *time.Location) (Config, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("parsing tariff config: %w", err)
	}
	return file.Config(loc)
}

// Config applies defaults and validates the file
func (f File) Config(loc *time.Location) (Config, error) {
	if f.ImportMPAN == "" {
		return Config{}, fmt.Errorf("%w: import_mpan missing", tariff.ErrConfig)
	}
	if f.TariffName == "" {
		return Config{}, fmt.Errorf("%w: tariff_name missing", tariff.ErrConfig)
	}
	if f.TariffProvider == "" {
		return Config{}, fmt.Errorf("%w: tariff_provider missing", tariff.ErrConfig)
	}

	importPricing := f.ImportPricing
	if importPricing == nil {
		importPricing = f.LegacyPricing
	}
	if len(importPricing) != tariff.TierCount {
		return Config{}, fmt.Errorf("%w: %d import_pricing functions must be specified, got %d", tariff.ErrConfig, tariff.TierCount, len(importPricing))
	}

	pricing := tariff.PricingConfig{Export: tariff.DefaultExportPricing()}
	for i, p := range importPricing {
		pricing.Import[i] = p.PricingSpec
	}
	if f.ExportPricing != nil {
		if len(f.ExportPricing) != tariff.TierCount {
			return Config{}, fmt.Errorf("%w: %d export_pricing functions must be specified, got %d", tariff.ErrConfig, tariff.TierCount, len(f.ExportPricing))
		}
		for i, p := range f.ExportPricing {
			pricing.Export[i] = p.PricingSpec
		}
	}

	config := tariff.Config{
		Name:     f.TariffName,
		Provider: f.TariffProvider,
		Thresholds: tariff.ThresholdConfig{
			Default: thresholdSpecs(f.TariffBreaks),
			Plunge:  thresholdSpecs(f.PlungeBreaks),
		},
		Pricing:  pricing,
		Location: loc,
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return Config{
		ImportMPAN: string(f.ImportMPAN),
		ExportMPAN: string(f.ExportMPAN),
		Tariff:     config,
	}, nil
}

func thresholdSpecs(thresholds []Threshold) []tariff.ThresholdSpec {
	if len(thresholds) == 0 {
		return nil
	}
	specs := make([]tariff.ThresholdSpec, 0, len(thresholds))
	for _, t := range thresholds {
		specs = append(specs, t.ThresholdSpec)
	}
	return specs
}
