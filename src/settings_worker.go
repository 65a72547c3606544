package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Powerwall operation modes accepted by OPERATION_MODE
var operationModes = map[string]bool{
	"self_consumption": true,
	"backup":           true,
	"autonomous":       true,
}

// SettingsRequest changes Powerwall settings. Only the fields present are changed.
type SettingsRequest struct {
	ReservePercentage  *float64 `json:"reserve_percentage,omitempty"`
	Mode               *string  `json:"mode,omitempty"`
	AllowGridCharging  *bool    `json:"allow_grid_charging,omitempty"`
	AllowBatteryExport *bool    `json:"allow_battery_export,omitempty"`
}

func decodeSettingsRequest(payload []byte) (SettingsRequest, error) {
	var request SettingsRequest
	if err := json.Unmarshal(payload, &request); err != nil {
		return SettingsRequest{}, fmt.Errorf("decoding settings request: %w", err)
	}
	return request, nil
}

// Commands converts the request into the API calls that apply it. An invalid
// field rejects the whole request.
func (r SettingsRequest) Commands() ([]TeslaCommand, error) {
	var commands []TeslaCommand

	if r.ReservePercentage != nil {
		reserve := *r.ReservePercentage
		if math.IsNaN(reserve) || reserve < 0 || reserve > 100 {
			return nil, fmt.Errorf("reserve_percentage must be between 0 and 100, got %v", reserve)
		}
		commands = append(commands, TeslaCommand{
			Command: commandBackupReserve,
			Body:    map[string]any{"backup_reserve_percent": int(math.Round(reserve))},
		})
	}

	if r.Mode != nil {
		if !operationModes[*r.Mode] {
			return nil, fmt.Errorf("unknown mode %q", *r.Mode)
		}
		commands = append(commands, TeslaCommand{
			Command: commandOperationMode,
			Body:    map[string]any{"default_real_mode": *r.Mode},
		})
	}

	if r.AllowGridCharging != nil {
		commands = append(commands, TeslaCommand{
			Command: commandImportExport,
			Body:    map[string]any{"disallow_charge_from_grid_with_solar_installed": !*r.AllowGridCharging},
		})
	}

	if r.AllowBatteryExport != nil {
		rule := "pv_only"
		if *r.AllowBatteryExport {
			rule = "battery_ok"
		}
		commands = append(commands, TeslaCommand{
			Command: commandImportExport,
			Body:    map[string]any{"customer_preferred_export_rule": rule},
		})
	}

	return commands, nil
}

// settingsWorker applies Powerwall settings requests
func settingsWorker(
	ctx context.Context,
	settingsChan <-chan SettingsRequest,
	powerwall *Powerwall,
) {
	logrus.Info("Settings worker started")

	for {
		select {
		case request := <-settingsChan:
			commands, err := request.Commands()
			if err != nil {
				logrus.Errorf("Rejecting Powerwall settings request: %v", err)
				continue
			}
			if len(commands) == 0 {
				logrus.Debug("Powerwall settings request changed nothing")
				continue
			}
			for _, cmd := range commands {
				if err := powerwall.Send(cmd); err != nil {
					logrus.Errorf("Failed to send %s: %v", cmd.Command, err)
					continue
				}
				logrus.Infof("Powerwall %s: %v", cmd.Command, cmd.Body)
			}

		case <-ctx.Done():
			logrus.Info("Settings worker stopped")
			return
		}
	}
}
