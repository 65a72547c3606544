package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"
	"github.com/ryansname/tariffctl/src/tariff"
	"github.com/ryansname/tariffctl/src/tariffconfig"
	"github.com/sirupsen/logrus"
)

// SafeGo launches a goroutine with panic recovery and retry logic.
// On panic, retries with exponential backoff (max 10 retries).
// Retry count resets if worker ran for 2+ minutes before failing.
// After exhausting retries, cancels context to trigger shutdown.
func SafeGo(
	ctx context.Context,
	cancel context.CancelFunc,
	name string,
	fn func(ctx context.Context),
) {
	const maxRetries = 10
	const maxDelay = 10 * time.Minute
	const resetAfter = 2 * time.Minute

	go func() {
		retries := 0
		delay := time.Second

		for {
			startTime := time.Now()
			var panicValue any

			func() {
				defer func() {
					panicValue = recover()
				}()
				fn(ctx)
			}()

			// Returned normally, either cancelled or finished
			if panicValue == nil {
				return
			}

			if time.Since(startTime) >= resetAfter {
				retries = 0
				delay = time.Second
			}

			retries++
			logrus.Errorf("Panic in %s (attempt %d/%d): %v", name, retries, maxRetries, panicValue)

			if retries >= maxRetries {
				logrus.Errorf("%s failed after %d retries, shutting down", name, maxRetries)
				cancel()
				return
			}

			logrus.Warnf("%s will retry in %v", name, delay)
			select {
			case <-time.After(delay):
				delay = min(delay*2, maxDelay)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func main() {
	logrus.Info("Starting tariffctl...")

	if err := godotenv.Load(); err != nil {
		logrus.Warnf("Error loading .env file: %v", err)
	}

	appConfig, err := loadAppConfig()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	logrus.SetLevel(appConfig.LogLevel)

	tariffConfig, err := tariffconfig.Load(appConfig.TariffConfig, appConfig.Location)
	if err != nil {
		logrus.Fatalf("Invalid tariff configuration: %v", err)
	}
	engine := tariff.NewEngine(tariffConfig.Tariff, tariffConfig.ImportMPAN, tariffConfig.ExportMPAN)

	ctx, cancel := context.WithCancel(context.Background())

	// Channels between workers
	msgChan := make(chan InboundMessage, 10)
	rateChan := make(chan RateUpdate, 10)
	settingsChan := make(chan SettingsRequest, 10)
	enabledChan := make(chan bool, 1)
	interceptChan := make(chan MQTTMessage, 100)
	mqttOutgoingChan := make(chan MQTTMessage, 100) // Larger buffer for queuing
	mqttClientChan := make(chan mqtt.Client, 1)     // Buffered to prevent blocking onConnect

	SafeGo(ctx, cancel, "mqtt-sender-worker", func(ctx context.Context) {
		mqttSenderWorker(ctx, mqttOutgoingChan, mqttClientChan)
	})

	SafeGo(ctx, cancel, "mqtt-interceptor", func(ctx context.Context) {
		mqttInterceptorWorker(ctx, "Tariffctl", interceptChan, mqttOutgoingChan, enabledChan, appConfig.ForceEnable)
	})

	mqttSender := NewMQTTSender(interceptChan)
	powerwall := NewPowerwall(mqttSender, appConfig.SiteID)

	if err := mqttSender.CreateTariffctlSwitch(); err != nil {
		cancel()
		logrus.Fatalf("Failed to create tariffctl switch: %v", err)
	}

	var statusChan chan TariffStatus
	if appConfig.DebugConsole {
		statusChan = make(chan TariffStatus, 10)
		SafeGo(ctx, cancel, "debug-worker", func(ctx context.Context) {
			debugWorker(ctx, cancel, statusChan, powerwall)
		})
	}

	SafeGo(ctx, cancel, "tariff-worker", func(ctx context.Context) {
		tariffWorker(ctx, rateChan, engine, powerwall, statusChan)
	})

	SafeGo(ctx, cancel, "settings-worker", func(ctx context.Context) {
		settingsWorker(ctx, settingsChan, powerwall)
	})

	SafeGo(ctx, cancel, "event-worker", func(ctx context.Context) {
		eventWorker(ctx, msgChan, rateChan, settingsChan, enabledChan)
	})

	topics := []string{TopicEvents, TopicPowerwallSettings, TopicTariffctlEnabledState}
	SafeGo(ctx, cancel, "mqtt-worker", func(ctx context.Context) {
		mqttWorker(ctx, appConfig.MQTT, topics, msgChan, mqttClientChan)
	})

	// Wait for interrupt signal or context cancellation (from panic)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logrus.Info("Shutting down...")
	case <-ctx.Done():
		logrus.Warn("Shutting down due to error...")
	}
	cancel()
}
