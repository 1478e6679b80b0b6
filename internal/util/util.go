package util

import (
	"github.com/berfenger/thinq2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		ThinQ: config.ThinQConfig{
			AccessToken:   "test-token",
			Country:       "KR",
			ClientID:      "thinq2mqtt-test",
			TimeoutMillis: 2000,
		},
		Push: config.PushConfig{
			Host:  "localhost",
			Port:  8883,
			Topic: "app/clients/thinq2mqtt-test/push",
		},
		MQTT: config.MQTTConfig{
			Host:              "localhost",
			Port:              1883,
			BaseTopic:         "thinq",
			HADiscoveryEnable: true,
			HADiscoveryTopic:  "homeassistant",
		},
		Dispatcher: config.DispatcherConfig{
			PendingCapacity:     16,
			PendingWindowMillis: 2000,
			StaleAfterSeconds:   600,
		},
		Control: config.ControlConfig{
			TimeoutMillis: 2000,
		},
		Port: 8080,
	}
}
