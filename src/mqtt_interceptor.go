package main

import (
	"context"

	"github.com/sirupsen/logrus"
)

// mqttInterceptorWorker filters MQTT messages based on a switch state.
// It forwards messages from inputChan to outputChan only if the switch is enabled.
// Discovery topics (ending in /config) are always forwarded.
func mqttInterceptorWorker(
	ctx context.Context,
	name string,
	inputChan <-chan MQTTMessage,
	outputChan chan<- MQTTMessage,
	enabledChan <-chan bool,
	forceEnable bool,
) {
	logrus.Infof("%s interceptor started", name)
	enabled := true

	for {
		select {
		case newEnabled := <-enabledChan:
			if newEnabled != enabled {
				logrus.Infof("%s enabled: %v", name, newEnabled)
				enabled = newEnabled
			}

		case msg := <-inputChan:
			if forceEnable || enabled || isDiscoveryTopic(msg.Topic) {
				select {
				case outputChan <- msg:
				case <-ctx.Done():
					return
				}
			} else {
				logrus.Warnf("%s disabled, dropping message to %s", name, msg.Topic)
			}

		case <-ctx.Done():
			logrus.Infof("%s interceptor stopped", name)
			return
		}
	}
}
