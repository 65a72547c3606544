package tariff

import (
	"fmt"
	"time"
)

// Config is everything the engine needs to turn rates into a tariff document
type Config struct {
	Name       string
	Provider   string
	Thresholds ThresholdConfig
	Pricing    PricingConfig
	Location   *time.Location
}

// Validate checks the threshold counts
func (c Config) Validate() error {
	if len(c.Thresholds.Default) != TierCount-1 {
		return fmt.Errorf("%w: %d tariff breaks must be specified, got %d", ErrConfig, TierCount-1, len(c.Thresholds.Default))
	}
	if len(c.Thresholds.Plunge) != 0 && len(c.Thresholds.Plunge) != TierCount-1 {
		return fmt.Errorf("%w: %d plunge pricing tariff breaks must be specified, got %d", ErrConfig, TierCount-1, len(c.Thresholds.Plunge))
	}
	return nil
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// DayBounds returns local midnight at the start and end of the day containing t
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	year, month, day := t.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Calculate computes the tariff document for the day containing day. exports
// may be nil when export rates are not tracked.
func Calculate(config Config, day time.Time, imports, exports *RateWindow) (*Document, error) {
	loc := config.location()
	start, end := DayBounds(day, loc)

	importRates := imports.Between(start, end)
	if len(importRates) == 0 {
		return nil, fmt.Errorf("%w: no import rates between %s and %s", ErrNotReady, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	var exportRates []Rate
	if exports != nil {
		exportRates = exports.Between(start, end)
	}

	importRates = ExtendForward(ExtendBackward(importRates, start), end)
	if len(exportRates) > 0 {
		exportRates = ExtendForward(ExtendBackward(exportRates, start), end)
	}

	thresholds, err := ResolveThresholds(importRates, config.Thresholds)
	if err != nil {
		return nil, err
	}

	schedules, err := BuildSchedules(importRates, exportRates, thresholds, config.Pricing)
	if err != nil {
		return nil, err
	}

	return NewDocument(config.Name, config.Provider, schedules, loc), nil
}

// Engine tracks the import and export rate windows and computes a tariff
// document once a complete window is available. It is not safe for concurrent
// use; updates are expected to arrive one at a time.
type Engine struct {
	config     Config
	importMPAN string
	exportMPAN string
	imports    RateWindow
	exports    RateWindow
	now        func() time.Time
}

// NewEngine creates an Engine. exportMPAN may be empty when exports are not tracked.
func NewEngine(config Config, importMPAN, exportMPAN string) *Engine {
	return &Engine{
		config:     config,
		importMPAN: importMPAN,
		exportMPAN: exportMPAN,
		now:        time.Now,
	}
}

// SetClock replaces the clock used to pick the day to compute
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Window returns the rate window tracked for mpan, or nil if mpan is not tracked
func (e *Engine) Window(mpan string) *RateWindow {
	switch {
	case mpan == "":
		return nil
	case mpan == e.importMPAN:
		return &e.imports
	case mpan == e.exportMPAN:
		return &e.exports
	}
	return nil
}

// Tracks reports whether updates for mpan are used
func (e *Engine) Tracks(mpan string) bool {
	return e.Window(mpan) != nil
}

// ImportMPAN is the meter point whose rates drive the tariff
func (e *Engine) ImportMPAN() string { return e.importMPAN }

// ExportMPAN is the optional export meter point
func (e *Engine) ExportMPAN() string { return e.exportMPAN }

// Update stores rates for the given meter point and day and tries to compute
// the tariff. A nil document with a nil error means mpan is not tracked.
// Errors leave the windows untouched so a later update can retry; only a
// successful computation clears them.
func (e *Engine) Update(mpan string, day Day, rates []Rate) (*Document, error) {
	window := e.Window(mpan)
	if window == nil {
		return nil, nil
	}
	window.Set(day, rates)

	if err := e.imports.Validate(); err != nil {
		return nil, err
	}

	var exports *RateWindow
	if e.exportMPAN != "" {
		exports = &e.exports
	}
	doc, err := Calculate(e.config, e.now(), &e.imports, exports)
	if err != nil {
		return nil, err
	}

	e.imports.Clear()
	e.exports.Clear()
	return doc, nil
}
