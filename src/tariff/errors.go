package tariff

import "errors"

var (
	// ErrNotReady means the rate data is incomplete. Wait for the next update.
	ErrNotReady = errors.New("rates not ready")

	// ErrConfig means the tariff configuration cannot be applied to the rates.
	ErrConfig = errors.New("invalid tariff configuration")

	// ErrData means import and export rates disagree about their periods.
	ErrData = errors.New("inconsistent rate data")
)
