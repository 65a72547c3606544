package main

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// InboundMessage is a message received on one of the subscribed topics
type InboundMessage struct {
	Topic   string
	Payload []byte
}

// MQTTConfig holds the broker connection settings
type MQTTConfig struct {
	Broker   string
	Username string
	Password string
	ClientID string
}

// mqttWorker manages the MQTT connection and forwards messages to a channel
func mqttWorker(
	ctx context.Context,
	config MQTTConfig,
	topics []string,
	msgChan chan<- InboundMessage,
	clientChan chan<- mqtt.Client,
) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:1883", config.Broker))
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logrus.Warnf("MQTT connection lost: %v", err)
	})

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		logrus.Infof("Connected to MQTT broker at %s", config.Broker)

		// Send the new client to the sender worker
		select {
		case clientChan <- client:
			logrus.Debug("Sent new MQTT client to sender worker")
		case <-ctx.Done():
			return
		}

		for _, topic := range topics {
			token := client.Subscribe(topic, 1, func(client mqtt.Client, msg mqtt.Message) {
				inbound := InboundMessage{
					Topic:   msg.Topic(),
					Payload: append([]byte(nil), msg.Payload()...),
				}
				select {
				case msgChan <- inbound:
				case <-ctx.Done():
					return
				}
			})

			if token.Wait() && token.Error() != nil {
				logrus.Errorf("Failed to subscribe to topic %s: %v", topic, token.Error())
			} else {
				logrus.Infof("Subscribed to topic: %s", topic)
			}
		}
	})

	client := mqtt.NewClient(opts)

	logrus.Infof("Connecting to MQTT broker at %s...", config.Broker)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		logrus.Errorf("Failed to connect to MQTT broker: %v", token.Error())
		return
	}

	<-ctx.Done()

	if client.IsConnected() {
		client.Disconnect(250)
		logrus.Info("Disconnected from MQTT broker")
	}
}
