// Package telemetry is an optional, strictly additive bridge that mirrors
// the leader's switch/train state to an external MQTT broker with
// Home-Assistant-style discovery, for dashboards and observability. It
// never feeds back into planning or execution; disabling it changes
// nothing about how the system plans or drives trains.
package telemetry

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// Client wraps paho's MQTT client with connection setup for the handful of
// URL schemes the bridge supports.
type Client struct {
	client mqtt.Client
	logger *logrus.Logger
}

// NewClient connects to brokerURL, which may use the ws://, wss://,
// mqtt://, or mqtts:// scheme.
func NewClient(brokerURL, clientID string, logger *logrus.Logger) (*Client, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	parsed, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("telemetry: invalid broker URL: %w", err)
	}

	opts := mqtt.NewClientOptions()
	var dial string
	switch parsed.Scheme {
	case "ws", "wss":
		dial = brokerURL
		if parsed.Scheme == "wss" {
			opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true})
		}
	case "mqtt":
		dial = strings.Replace(brokerURL, "mqtt://", "tcp://", 1)
	case "mqtts":
		dial = strings.Replace(brokerURL, "mqtts://", "ssl://", 1)
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true})
	default:
		return nil, fmt.Errorf("telemetry: unsupported broker scheme %q", parsed.Scheme)
	}

	opts.AddBroker(dial)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectTimeout(5 * time.Second)
	if parsed.User != nil {
		user := parsed.User.Username()
		pass, _ := parsed.User.Password()
		opts.SetUsername(user)
		opts.SetPassword(pass)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.WithError(err).Warn("telemetry: MQTT connection lost")
	})

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("telemetry: connect: %w", token.Error())
	}
	return &Client{client: c, logger: logger}, nil
}

// Publish sends payload to topic, waiting up to 5s for broker
// acknowledgment.
func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	token := c.client.Publish(topic, 1, retained, payload)
	const timeout = 5 * time.Second
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("telemetry: publish to %s timed out after %s", topic, timeout)
	}
	return token.Error()
}

// Disconnect closes the broker connection.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}
