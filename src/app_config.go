package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// AppConfig is the process configuration read from the environment
type AppConfig struct {
	MQTT         MQTTConfig
	SiteID       string
	TariffConfig string
	Location     *time.Location
	LogLevel     logrus.Level
	ForceEnable  bool
	DebugConsole bool
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// loadAppConfig reads the process configuration from the environment
func loadAppConfig() (AppConfig, error) {
	config := AppConfig{
		MQTT: MQTTConfig{
			Broker:   getenv("MQTT_BROKER", "homeassistant.lan"),
			Username: os.Getenv("MQTT_USERNAME"),
			Password: os.Getenv("MQTT_PASSWORD"),
			ClientID: getenv("MQTT_CLIENT_ID", "tariffctl"),
		},
		SiteID:       os.Getenv("POWERWALL_SITE_ID"),
		TariffConfig: getenv("TARIFF_CONFIG", "tariff.yaml"),
	}

	var errs []error
	if config.MQTT.Username == "" || config.MQTT.Password == "" {
		errs = append(errs, errors.New("MQTT_USERNAME and MQTT_PASSWORD must be set"))
	}
	if config.SiteID == "" {
		errs = append(errs, errors.New("POWERWALL_SITE_ID must be set"))
	}

	location, err := time.LoadLocation(getenv("TARIFF_TIMEZONE", "Europe/London"))
	if err != nil {
		errs = append(errs, fmt.Errorf("TARIFF_TIMEZONE: %w", err))
	}
	config.Location = location

	level, err := logrus.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	config.LogLevel = level

	if config.ForceEnable, err = getenvBool("FORCE_ENABLE"); err != nil {
		errs = append(errs, err)
	}
	if config.DebugConsole, err = getenvBool("DEBUG_CONSOLE"); err != nil {
		errs = append(errs, err)
	}

	return config, errors.Join(errs...)
}
