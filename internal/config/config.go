package config

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel   zapcore.Level
	ThinQ      ThinQConfig      `mapstructure:"thinq"`
	Push       PushConfig       `mapstructure:"push"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
	Control    ControlConfig    `mapstructure:"control"`
	Port       uint             `mapstructure:"port"`
	HttpLog    bool             `mapstructure:"http_log"`
}

type ThinQConfig struct {
	AccessToken   string `mapstructure:"access_token"`
	Country       string
	ClientID      string `mapstructure:"client_id"`
	APIKey        string `mapstructure:"api_key"`
	BaseURL       string `mapstructure:"base_url"`
	TimeoutMillis uint32 `mapstructure:"timeout_millis"`
	// Bootstrap registers every supported device of the account on start.
	Bootstrap bool
}

// PushConfig describes the ThinQ IoT broker connection. Certificates are
// issued outside this process. An empty Host is resolved from the account
// route at startup.
type PushConfig struct {
	Enable   bool
	Host     string
	Port     int
	Topic    string
	ClientID string `mapstructure:"client_id"`
	CAFile   string `mapstructure:"ca_file"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

type MQTTConfig struct {
	Enable            bool
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

type DispatcherConfig struct {
	PendingCapacity     int    `mapstructure:"pending_capacity"`
	PendingWindowMillis uint32 `mapstructure:"pending_window_millis"`
	StaleAfterSeconds   uint32 `mapstructure:"stale_after_seconds"`
}

type ControlConfig struct {
	TimeoutMillis uint32 `mapstructure:"timeout_millis"`
}

func (c ThinQConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

func (c DispatcherConfig) PendingWindow() time.Duration {
	return time.Duration(c.PendingWindowMillis) * time.Millisecond
}

func (c DispatcherConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterSeconds) * time.Second
}

func (c ControlConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

// Validate checks bounds and normalises topics in place. Every violation is
// reported, not only the first.
func (c *Config) Validate() error {
	var err error

	if c.ThinQ.AccessToken == "" {
		err = multierr.Append(err, errors.New("config param thinq.access_token is required"))
	}
	if c.ThinQ.Country == "" && c.ThinQ.BaseURL == "" {
		err = multierr.Append(err, errors.New("config param thinq.country is required"))
	}
	if c.Dispatcher.PendingCapacity <= 0 {
		err = multierr.Append(err, errors.New("config param dispatcher.pending_capacity should be > 0"))
	}
	if c.Dispatcher.PendingWindowMillis < 100 {
		err = multierr.Append(err, errors.New("config param dispatcher.pending_window_millis should be >= 100"))
	}
	if c.Dispatcher.StaleAfterSeconds == 0 {
		err = multierr.Append(err, errors.New("config param dispatcher.stale_after_seconds should be > 0"))
	}
	if c.Control.TimeoutMillis < 500 {
		err = multierr.Append(err, errors.New("config param control.timeout_millis should be >= 500"))
	}
	if c.Push.Enable {
		if c.Push.Topic == "" {
			err = multierr.Append(err, errors.New("config param push.topic is required when push is enabled"))
		}
		if c.Push.CertFile == "" || c.Push.KeyFile == "" {
			err = multierr.Append(err, errors.New("config params push.cert_file and push.key_file are required when push is enabled"))
		}
	}

	if c.MQTT.Enable {
		baseTopic, terr := CheckMQTTTopic(c.MQTT.BaseTopic)
		if terr != nil {
			err = multierr.Append(err, errors.New("invalid base topic. can only contain letters, numbers and underscores"))
		}
		c.MQTT.BaseTopic = baseTopic

		hadBaseTopic, terr := CheckMQTTTopic(c.MQTT.HADiscoveryTopic)
		if terr != nil {
			err = multierr.Append(err, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores"))
		}
		c.MQTT.HADiscoveryTopic = hadBaseTopic
	}
	return err
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	const redacted = "*redacted*"
	if c.ThinQ.AccessToken != "" {
		c.ThinQ.AccessToken = redacted
	}
	if c.ThinQ.APIKey != "" {
		c.ThinQ.APIKey = redacted
	}
	c.MQTT.Username = redacted
	c.MQTT.Password = redacted
	return c
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
