package main

import (
	"context"
	"encoding/json"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// MQTTMessage represents an outgoing MQTT message
type MQTTMessage struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// TopicCallService is the Node-RED proxy topic that forwards service calls to Home Assistant
const TopicCallService = "nodered/proxy/call_service"

// MQTTSender wraps a channel for sending MQTT messages with helper methods
type MQTTSender struct {
	ch chan<- MQTTMessage
}

// NewMQTTSender creates a new MQTTSender wrapping the given channel
func NewMQTTSender(ch chan<- MQTTMessage) *MQTTSender {
	return &MQTTSender{ch: ch}
}

// Send sends a raw MQTTMessage
func (s *MQTTSender) Send(msg MQTTMessage) {
	s.ch <- msg
}

// CallService sends a Home Assistant service call via the Node-RED proxy.
// entityID and data are omitted from the payload when empty.
func (s *MQTTSender) CallService(domain, service, entityID string, data map[string]any) error {
	call := map[string]any{
		"domain":  domain,
		"service": service,
	}
	if entityID != "" {
		call["entity_id"] = entityID
	}
	if len(data) > 0 {
		call["data"] = data
	}

	payload, err := json.Marshal(call)
	if err != nil {
		return err
	}

	s.Send(MQTTMessage{
		Topic:   TopicCallService,
		Payload: payload,
		QoS:     1,
		Retain:  false,
	})
	return nil
}

// Switch discovery and state topics for the tariffctl_enabled switch
const (
	TopicTariffctlEnabledConfig  = "homeassistant/switch/tariffctl_enabled/config"
	TopicTariffctlEnabledState   = "homeassistant/switch/tariffctl_enabled/state"
	TopicTariffctlEnabledCommand = "homeassistant/switch/tariffctl_enabled/set"
)

// CreateTariffctlSwitch creates the tariffctl_enabled switch via MQTT discovery
func (s *MQTTSender) CreateTariffctlSwitch() error {
	type haDeviceConfig struct {
		Identifiers  []string `json:"identifiers"`
		Name         string   `json:"name"`
		Manufacturer string   `json:"manufacturer,omitempty"`
	}

	type haSwitchConfig struct {
		Name         string         `json:"name"`
		StateTopic   string         `json:"state_topic"`
		CommandTopic string         `json:"command_topic"`
		UniqueId     string         `json:"unique_id"`
		Icon         string         `json:"icon,omitempty"`
		Optimistic   bool           `json:"optimistic"`
		Device       haDeviceConfig `json:"device"`
	}

	config := haSwitchConfig{
		Name:         "Enabled",
		StateTopic:   TopicTariffctlEnabledState,
		CommandTopic: TopicTariffctlEnabledCommand,
		UniqueId:     "tariffctl_enabled",
		Icon:         "mdi:home-lightning-bolt",
		Optimistic:   true,
		Device: haDeviceConfig{
			Identifiers:  []string{"tariffctl"},
			Name:         "Tariffctl",
			Manufacturer: "Custom",
		},
	}

	payload, err := json.Marshal(config)
	if err != nil {
		return err
	}

	s.Send(MQTTMessage{
		Topic:   TopicTariffctlEnabledConfig,
		Payload: payload,
		QoS:     2,
		Retain:  true,
	})

	return nil
}

// isDiscoveryTopic checks if a topic is an MQTT discovery config topic
func isDiscoveryTopic(topic string) bool {
	return strings.HasSuffix(topic, "/config")
}

// publish sends msg on client and waits for the broker to acknowledge it
func publish(client mqtt.Client, msg MQTTMessage) error {
	token := client.Publish(msg.Topic, msg.QoS, msg.Retain, msg.Payload)
	token.Wait()
	return token.Error()
}

// mqttSenderWorker publishes outgoing messages, queuing them until a connected client arrives
func mqttSenderWorker(
	ctx context.Context,
	outgoingChan <-chan MQTTMessage,
	clientChan <-chan mqtt.Client,
) {
	logrus.Info("MQTT sender worker started")

	var client mqtt.Client
	var messageQueue []MQTTMessage

	for {
		select {
		case newClient := <-clientChan:
			logrus.Debug("MQTT sender worker received new client")
			client = newClient

			if client != nil && client.IsConnected() {
				queuedCount := len(messageQueue)
				for _, msg := range messageQueue {
					if err := publish(client, msg); err != nil {
						logrus.Errorf("Failed to publish queued message to %s: %v", msg.Topic, err)
					}
				}
				messageQueue = nil
				if queuedCount > 0 {
					logrus.Infof("MQTT sender worker processed %d queued messages", queuedCount)
				}
			}

		case msg := <-outgoingChan:
			if client != nil && client.IsConnected() {
				if err := publish(client, msg); err != nil {
					logrus.Errorf("Failed to publish to %s: %v", msg.Topic, err)
				}
			} else {
				messageQueue = append(messageQueue, msg)
				logrus.Debugf("MQTT sender worker queued message (total queued: %d)", len(messageQueue))
			}

		case <-ctx.Done():
			logrus.Info("MQTT sender worker stopped")
			return
		}
	}
}
