package main

import (
	"context"
	"errors"
	"time"

	"github.com/ryansname/tariffctl/src/tariff"
	"github.com/sirupsen/logrus"
)

// Outcomes of processing a rate update
const (
	OutcomeIgnored  = "ignored"
	OutcomeNotReady = "not ready"
	OutcomeFailed   = "failed"
	OutcomePushed   = "pushed"
)

// DaySummary describes one day of a rate window
type DaySummary struct {
	Set   bool
	Slots int
}

// WindowSummary describes the rate window held for one meter point
type WindowSummary struct {
	MPAN string
	Days [3]DaySummary
}

// TariffStatus is a snapshot of the tariff worker's state for the debug console
type TariffStatus struct {
	UpdatedAt time.Time
	Outcome   string
	Error     string
	Import    WindowSummary
	Export    WindowSummary
	Document  *tariff.Document
	PushedAt  time.Time
	Updates   int
}

func summarizeWindow(engine *tariff.Engine, mpan string) WindowSummary {
	summary := WindowSummary{MPAN: mpan}
	window := engine.Window(mpan)
	if window == nil {
		return summary
	}
	for _, day := range []tariff.Day{tariff.PreviousDay, tariff.CurrentDay, tariff.NextDay} {
		rates, set := window.Rates(day)
		summary.Days[day] = DaySummary{Set: set, Slots: len(rates)}
	}
	return summary
}

// tariffUpdater applies rate updates to the engine one at a time and pushes
// every computed tariff to the Powerwall
type tariffUpdater struct {
	engine    *tariff.Engine
	setTariff func(*tariff.Document) error
	now       func() time.Time
	status    TariffStatus
}

func newTariffUpdater(engine *tariff.Engine, setTariff func(*tariff.Document) error) *tariffUpdater {
	return &tariffUpdater{
		engine:    engine,
		setTariff: setTariff,
		now:       time.Now,
	}
}

// apply processes one update and returns the resulting status
func (u *tariffUpdater) apply(update RateUpdate) TariffStatus {
	u.status.Updates++
	u.status.UpdatedAt = u.now()
	u.status.Error = ""

	doc, err := u.engine.Update(update.MPAN, update.Day, update.Rates)
	switch {
	case err == nil && doc == nil:
		logrus.Debugf("Ignoring rates for untracked mpan %s", update.MPAN)
		u.status.Outcome = OutcomeIgnored
	case errors.Is(err, tariff.ErrNotReady):
		logrus.Debugf("Tariff not ready: %v", err)
		u.status.Outcome = OutcomeNotReady
		u.status.Error = err.Error()
	case err != nil:
		logrus.Errorf("Tariff calculation failed: %v", err)
		u.status.Outcome = OutcomeFailed
		u.status.Error = err.Error()
	default:
		u.push(doc)
	}

	u.status.Import = summarizeWindow(u.engine, u.engine.ImportMPAN())
	u.status.Export = summarizeWindow(u.engine, u.engine.ExportMPAN())
	return u.status
}

func (u *tariffUpdater) push(doc *tariff.Document) {
	if err := u.setTariff(doc); err != nil {
		logrus.Errorf("Failed to send tariff: %v", err)
		u.status.Outcome = OutcomeFailed
		u.status.Error = err.Error()
		return
	}
	logrus.Infof("Powerwall tariff %q updated", doc.Name)
	u.status.Outcome = OutcomePushed
	u.status.Document = doc
	u.status.PushedAt = u.now()
}

// tariffWorker feeds rate updates into the engine and pushes computed tariffs
func tariffWorker(
	ctx context.Context,
	rateChan <-chan RateUpdate,
	engine *tariff.Engine,
	powerwall *Powerwall,
	statusChan chan<- TariffStatus,
) {
	logrus.Infof("Tariff worker started (import mpan %s, export mpan %q)", engine.ImportMPAN(), engine.ExportMPAN())
	updater := newTariffUpdater(engine, powerwall.SetTariff)

	for {
		select {
		case update := <-rateChan:
			status := updater.apply(update)
			if statusChan != nil {
				// Drop the snapshot rather than block when nobody is reading
				select {
				case statusChan <- status:
				default:
				}
			}

		case <-ctx.Done():
			logrus.Info("Tariff worker stopped")
			return
		}
	}
}
