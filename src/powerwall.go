package main

import (
	"github.com/ryansname/tariffctl/src/tariff"
)

// Tesla energy site commands sent through tesla_custom.api
const (
	commandTimeOfUseSettings = "TIME_OF_USE_SETTINGS"
	commandBackupReserve     = "BACKUP_RESERVE"
	commandOperationMode     = "OPERATION_MODE"
	commandImportExport      = "ENERGY_SITE_IMPORT_EXPORT_CONFIG"
)

// TeslaCommand is one tesla_custom.api call against the energy site
type TeslaCommand struct {
	Command string
	Body    map[string]any
}

// Powerwall sends commands to one Tesla energy site via Home Assistant
type Powerwall struct {
	sender *MQTTSender
	siteID string
}

// NewPowerwall creates a Powerwall for the given energy site
func NewPowerwall(sender *MQTTSender, siteID string) *Powerwall {
	return &Powerwall{sender: sender, siteID: siteID}
}

// Send sends a tesla_custom.api service call via the Node-RED proxy.
// Body fields are merged into parameters alongside path_vars, since the
// tesla_custom service pops path_vars and passes the rest as kwargs.
func (p *Powerwall) Send(cmd TeslaCommand) error {
	params := map[string]any{
		"path_vars": map[string]any{
			"site_id": p.siteID,
		},
	}
	for k, v := range cmd.Body {
		params[k] = v
	}
	return p.sender.CallService("tesla_custom", "api", "", map[string]any{
		"command":    cmd.Command,
		"parameters": params,
	})
}

// SetTariff replaces the site's time-of-use tariff with doc
func (p *Powerwall) SetTariff(doc *tariff.Document) error {
	return p.Send(tariffCommand(doc))
}

func tariffCommand(doc *tariff.Document) TeslaCommand {
	return TeslaCommand{
		Command: commandTimeOfUseSettings,
		Body: map[string]any{
			"tou_settings": map[string]any{
				"tariff_content": doc,
			},
		},
	}
}
