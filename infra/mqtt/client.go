// Package mqtt publishes run summaries for downstream analysis jobs that
// re-read the feature table when a run completes.
package mqtt

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Config holds the broker settings for the run notifier.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	// QoS is a pointer so an explicit 0 is distinguishable from unset.
	QoS *int `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "nemflow"
	}
	if c.Topic == "" {
		c.Topic = "nemflow/runs"
	}
	if c.QoS == nil {
		qos := 1
		c.QoS = &qos
	}
}

// Validate checks the broker settings when the notifier is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return errors.New("notifier: broker is required")
	}
	if c.QoS != nil && (*c.QoS < 0 || *c.QoS > 2) {
		return fmt.Errorf("notifier: qos %d outside [0,2]", *c.QoS)
	}
	return nil
}

// Publisher abstracts the MQTT client for tests.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte) error
	Close()
}

// PahoClient wraps the Eclipse Paho client.
type PahoClient struct {
	client paho.Client
}

// NewPahoClient connects to the broker.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := paho.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &PahoClient{client: client}, nil
}

// Publish sends the payload and waits for the broker acknowledgment.
func (c *PahoClient) Publish(topic string, payload []byte, qos byte) error {
	token := c.client.Publish(topic, qos, false, payload)
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (c *PahoClient) Close() {
	if c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}
