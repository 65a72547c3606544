package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ryansname/tariffctl/src/tariff"
	"github.com/sirupsen/logrus"
)

// Topics subscribed to by the MQTT worker
const (
	TopicEventsPrefix      = "tariffctl/events/"
	TopicEvents            = TopicEventsPrefix + "+"
	TopicPowerwallSettings = "tariffctl/powerwall/set_settings"
)

// Octopus Energy rate event types, one per day of the rate window
var rateEventDays = map[string]tariff.Day{
	"octopus_energy_electricity_previous_day_rates": tariff.PreviousDay,
	"octopus_energy_electricity_current_day_rates":  tariff.CurrentDay,
	"octopus_energy_electricity_next_day_rates":     tariff.NextDay,
}

var errUnknownEvent = errors.New("unknown event type")

// RateUpdate is one day of rates for one meter point
type RateUpdate struct {
	MPAN  string
	Day   tariff.Day
	Rates []tariff.Rate
}

type rateEvent struct {
	MPAN  json.RawMessage `json:"mpan"`
	Rates []tariff.Rate   `json:"rates"`
}

// decodeRateEvent decodes a forwarded rate event published on topic
func decodeRateEvent(topic string, payload []byte) (RateUpdate, error) {
	eventType := strings.TrimPrefix(topic, TopicEventsPrefix)
	day, ok := rateEventDays[eventType]
	if !ok {
		return RateUpdate{}, fmt.Errorf("%w: %s", errUnknownEvent, eventType)
	}

	var event rateEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return RateUpdate{}, fmt.Errorf("decoding %s: %w", eventType, err)
	}

	mpan, err := decodeMPAN(event.MPAN)
	if err != nil {
		return RateUpdate{}, fmt.Errorf("decoding %s: %w", eventType, err)
	}

	return RateUpdate{MPAN: mpan, Day: day, Rates: event.Rates}, nil
}

// decodeMPAN accepts the MPAN as a JSON string or number
func decodeMPAN(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", errors.New("mpan missing")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("invalid mpan %s", raw)
	}
	return n.String(), nil
}

// decodeSwitchState reads a Home Assistant switch state payload
func decodeSwitchState(payload []byte) bool {
	return strings.EqualFold(strings.TrimSpace(string(payload)), "on")
}

// eventWorker routes inbound MQTT messages to the worker that handles them.
// Malformed messages are logged and dropped.
func eventWorker(
	ctx context.Context,
	msgChan <-chan InboundMessage,
	rateChan chan<- RateUpdate,
	settingsChan chan<- SettingsRequest,
	enabledChan chan<- bool,
) {
	logrus.Info("Event worker started")

	for {
		select {
		case msg := <-msgChan:
			switch {
			case strings.HasPrefix(msg.Topic, TopicEventsPrefix):
				update, err := decodeRateEvent(msg.Topic, msg.Payload)
				if errors.Is(err, errUnknownEvent) {
					logrus.Debugf("Ignoring event: %v", err)
					continue
				}
				if err != nil {
					logrus.Errorf("Dropping rate event: %v", err)
					continue
				}
				logrus.Debugf("%s day rates for mpan %s: %d slots", update.Day, update.MPAN, len(update.Rates))
				send(ctx, rateChan, update)

			case msg.Topic == TopicPowerwallSettings:
				request, err := decodeSettingsRequest(msg.Payload)
				if err != nil {
					logrus.Errorf("Dropping settings request: %v", err)
					continue
				}
				send(ctx, settingsChan, request)

			case msg.Topic == TopicTariffctlEnabledState:
				send(ctx, enabledChan, decodeSwitchState(msg.Payload))

			default:
				logrus.Debugf("Ignoring message on %s", msg.Topic)
			}

		case <-ctx.Done():
			logrus.Info("Event worker stopped")
			return
		}
	}
}

// send delivers v on ch unless ctx is cancelled first
func send[T any](ctx context.Context, ch chan<- T, v T) {
	select {
	case ch <- v:
	case <-ctx.Done():
	}
}
