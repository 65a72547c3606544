package tariff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	importMPAN = "1200000000001"
	exportMPAN = "1200000000002"
)

func testConfig() Config {
	return Config{
		Name:       "Agile",
		Provider:   "Octopus",
		Thresholds: ThresholdConfig{Default: fixedThresholds("0.15", "0.25", "0.35")},
		Pricing:    allAverage(),
		Location:   time.UTC,
	}
}

func testEngine(exportMPAN string) *Engine {
	e := NewEngine(testConfig(), importMPAN, exportMPAN)
	e.now = func() time.Time { return day0.Add(13 * time.Hour) }
	return e
}

func TestEngine_UntrackedMPANIsIgnored(t *testing.T) {
	e := testEngine("")
	doc, err := e.Update("9999999999999", CurrentDay, flatDay(day0, "0.10"))
	assert.NoError(t, err)
	assert.Nil(t, doc)

	assert.False(t, e.Tracks(""))
	assert.False(t, e.Tracks("9999999999999"))
	assert.True(t, e.Tracks(importMPAN))
}

func TestEngine_NotReadyUntilAllDaysArrive(t *testing.T) {
	e := testEngine("")

	_, err := e.Update(importMPAN, NextDay, flatDay(day0.AddDate(0, 0, 1), "0.30"))
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = e.Update(importMPAN, CurrentDay, flatDay(day0, "0.10"))
	assert.ErrorIs(t, err, ErrNotReady)

	doc, err := e.Update(importMPAN, PreviousDay, flatDay(day0.AddDate(0, 0, -1), "0.30"))
	require.NoError(t, err)
	require.NotNil(t, doc)

	periods := doc.Seasons[FullYearSeason].TOUPeriods["SUPER_OFF_PEAK"]
	assert.Equal(t, []TOUPeriod{{FromDayOfWeek: 0, ToDayOfWeek: 6}}, periods)
	assert.InDelta(t, 0.10, doc.EnergyCharges[FullYearSeason]["SUPER_OFF_PEAK"], 1e-9)
}

func TestEngine_SuccessClearsWindows(t *testing.T) {
	e := testEngine(exportMPAN)
	fill(t, e, exportMPAN, "0.05")
	fill(t, e, importMPAN, "0.10")

	_, set := e.imports.Rates(CurrentDay)
	assert.False(t, set)
	_, set = e.exports.Rates(CurrentDay)
	assert.False(t, set)

	// A single new day is not enough after a successful computation
	_, err := e.Update(importMPAN, CurrentDay, flatDay(day0, "0.10"))
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestEngine_FailureKeepsWindows(t *testing.T) {
	e := testEngine("")
	_, err := e.Update(importMPAN, PreviousDay, flatDay(day0.AddDate(0, 0, -1), "0.10"))
	assert.ErrorIs(t, err, ErrNotReady)
	// Next day starts an hour late so the window is not contiguous
	_, err = e.Update(importMPAN, NextDay, flatDay(day0.AddDate(0, 0, 1).Add(time.Hour), "0.10"))
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = e.Update(importMPAN, CurrentDay, flatDay(day0, "0.10"))
	assert.ErrorIs(t, err, ErrNotReady)

	_, set := e.imports.Rates(PreviousDay)
	assert.True(t, set)

	doc, err := e.Update(importMPAN, NextDay, flatDay(day0.AddDate(0, 0, 1), "0.10"))
	require.NoError(t, err)
	assert.NotNil(t, doc)
}

func TestEngine_ExportPricesFlowIntoSellTariff(t *testing.T) {
	e := testEngine(exportMPAN)
	e.config.Pricing.Export = [TierCount]PricingSpec{AveragePrice(), AveragePrice(), AveragePrice(), AveragePrice()}

	fill(t, e, exportMPAN, "0.05")
	doc := fill(t, e, importMPAN, "0.10")

	require.NotNil(t, doc)
	assert.InDelta(t, 0.05, doc.SellTariff.EnergyCharges[FullYearSeason]["SUPER_OFF_PEAK"], 1e-9)
}

func TestEngine_ExportsIgnoredWithoutExportMPAN(t *testing.T) {
	e := testEngine("")
	doc, err := e.Update(exportMPAN, CurrentDay, flatDay(day0, "0.05"))
	assert.NoError(t, err)
	assert.Nil(t, doc)
	assert.Nil(t, e.Window(exportMPAN))
}

func TestEngine_MismatchedExportsAreDataErrors(t *testing.T) {
	e := testEngine(exportMPAN)
	e.Update(exportMPAN, PreviousDay, flatDay(day0.AddDate(0, 0, -1), "0.05"))
	// Hourly export slots cannot pair with half hourly imports
	e.Update(exportMPAN, CurrentDay, []Rate{{Start: day0, End: day0.Add(time.Hour), Price: price("0.05")}})
	e.Update(exportMPAN, NextDay, flatDay(day0.AddDate(0, 0, 1), "0.05"))

	e.Update(importMPAN, PreviousDay, flatDay(day0.AddDate(0, 0, -1), "0.10"))
	e.Update(importMPAN, NextDay, flatDay(day0.AddDate(0, 0, 1), "0.10"))
	_, err := e.Update(importMPAN, CurrentDay, slots(day0, "0.10", "0.10"))
	assert.ErrorIs(t, err, ErrData)
}

func TestEngine_PadsPartialDay(t *testing.T) {
	e := testEngine("")
	e.Update(importMPAN, PreviousDay, nil)
	e.Update(importMPAN, NextDay, nil)
	// Current day only has rates from 02:00 to 03:00, the rest is padded
	doc, err := e.Update(importMPAN, CurrentDay, slots(day0.Add(2*time.Hour), "0.10", "0.40"))
	require.NoError(t, err)

	periods := doc.Seasons[FullYearSeason].TOUPeriods
	assert.Equal(t, []TOUPeriod{{FromDayOfWeek: 0, FromHour: 0, ToDayOfWeek: 6, ToHour: 2, ToMinute: 30}}, periods["SUPER_OFF_PEAK"])
	assert.Equal(t, []TOUPeriod{{FromDayOfWeek: 0, FromHour: 2, FromMinute: 30, ToDayOfWeek: 6, ToHour: 0}}, periods["ON_PEAK"])
}

func TestConfig_Validate(t *testing.T) {
	c := testConfig()
	assert.NoError(t, c.Validate())

	c.Thresholds.Plunge = fixedThresholds("0.01")
	assert.ErrorIs(t, c.Validate(), ErrConfig)

	c.Thresholds = ThresholdConfig{Default: fixedThresholds("0.01", "0.02")}
	assert.ErrorIs(t, c.Validate(), ErrConfig)
}

func TestDayBounds(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	// Clocks go forward on 2024-03-31, the day is 23 hours long
	start, end := DayBounds(time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC), london)
	assert.Equal(t, 23*time.Hour, end.Sub(start))
	assert.Equal(t, 0, start.Hour())
}

// fill sends all three days for mpan and returns the last result
func fill(t *testing.T, e *Engine, mpan, p string) *Document {
	t.Helper()
	e.Update(mpan, PreviousDay, flatDay(day0.AddDate(0, 0, -1), p))
	e.Update(mpan, NextDay, flatDay(day0.AddDate(0, 0, 1), p))
	doc, _ := e.Update(mpan, CurrentDay, flatDay(day0, p))
	return doc
}
