package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
	MQTT_PAYLOAD_ON      = "on"
	MQTT_PAYLOAD_OFF     = "off"
)

var ErrInvalidCommand = errors.New("invalid command")

// OptsFromConfig builds the options of the local bridge broker connection.
func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("thinq2mqtt_%s", uuid.NewString()[:8]))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

// PushOptsFromConfig builds the options of the ThinQ IoT push connection.
// The connection uses mutual TLS with the certificate files of the
// registered client and reconnects on its own.
func PushOptsFromConfig(cfg *config.Config) (*mqtt.ClientOptions, error) {
	tlsConfig, err := pushTLSConfig(cfg.Push)
	if err != nil {
		return nil, err
	}
	clientID := cfg.Push.ClientID
	if clientID == "" {
		clientID = cfg.ThinQ.ClientID
	}
	if clientID == "" {
		clientID = uuid.NewString()
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("ssl://%s:%d", cfg.Push.Host, cfg.Push.Port))
	opts.SetClientID(clientID)
	opts.SetTLSConfig(tlsConfig)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)
	return opts, nil
}

func pushTLSConfig(cfg config.PushConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.CAFile != "" {
		ca, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("push: read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("push: no certificate found in %s", cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}
	if cfg.CertFile != "" || cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("push: load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}

func CreateMQTTClient(baseTopic string, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return NewMQTTClient(baseTopic, mqtt.NewClient(opts))
}

func NewMQTTClient(baseTopic string, client mqtt.Client) *MQTTClient {
	return &MQTTClient{
		client:        client,
		base:          baseTopic,
		commandRegexp: commandExtractor(baseTopic),
	}
}

type MQTTClient struct {
	client        mqtt.Client
	base          string
	commandRegexp *regexp.Regexp
}

// ParsedMQTTCommand is a property write received on a device command topic.
// Location is empty for Main resources.
type ParsedMQTTCommand struct {
	DeviceId string
	Location string
	Resource string
	Property string
	Payload  string
}

func (c *MQTTClient) baseTopic() string {
	return c.base
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) DeviceStateTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/state", c.baseTopic(), deviceID)
}

func (c *MQTTClient) DeviceAvailabilityTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/availability", c.baseTopic(), deviceID)
}

func (c *MQTTClient) DeviceNotificationTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/notification", c.baseTopic(), deviceID)
}

func (c *MQTTClient) DeviceCommandTopic(deviceID, location, resource, property string) string {
	if location != "" {
		return fmt.Sprintf("%s/%s/%s/%s/%s/set", c.baseTopic(), deviceID, strings.ToLower(location), resource, property)
	}
	return fmt.Sprintf("%s/%s/%s/%s/set", c.baseTopic(), deviceID, resource, property)
}

func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	return parseCommand(c.commandRegexp, msg.Topic(), msg.Payload())
}

func parseCommand(r *regexp.Regexp, topic string, payload []byte) (*ParsedMQTTCommand, error) {
	matches := r.FindAllStringSubmatch(topic, 1)
	if len(matches) == 0 || len(matches[0]) != 5 {
		return nil, ErrInvalidCommand
	}
	return &ParsedMQTTCommand{
		DeviceId: matches[0][1],
		Location: matches[0][2],
		Resource: matches[0][3],
		Property: matches[0][4],
		Payload:  string(payload),
	}, nil
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT publish timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

// SubscribeToCommandTopics subscribes to the Main and per-location device
// command topics.
func (c *MQTTClient) SubscribeToCommandTopics(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	filters := map[string]byte{
		fmt.Sprintf("%s/+/+/+/set", c.baseTopic()):   1,
		fmt.Sprintf("%s/+/+/+/+/set", c.baseTopic()): 1,
	}
	token := c.client.SubscribeMultiple(filters, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Unsubscribe(topic string, continuation func(error), timeout time.Duration) {
	token := c.client.Unsubscribe(topic)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT unsubscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT connect timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) IsConnected() bool {
	return c.client.IsConnected()
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func commandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^%s/([A-Za-z0-9_\-]+)/(?:([A-Za-z0-9_]+)/)?([a-z0-9_]+)/([a-z0-9_]+)/set$`,
		regexp.QuoteMeta(baseTopic)))
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}
