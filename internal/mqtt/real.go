package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/valve-controller/internal/valve"
)

// RealClient talks to an actual MQTT broker.
type RealClient struct {
	client paho.Client

	mu      sync.Mutex
	handler CommandHandler
}

// NewRealClient connects to the given broker. The command subscription is
// restored automatically after a reconnect.
func NewRealClient(broker, clientID string) (*RealClient, error) {
	c := &RealClient{}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			c.resubscribe()
		})

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return c, nil
}

// PublishStatus sends a valve status report to the broker, retained so a
// late-joining monitor sees the current report immediately.
func (c *RealClient) PublishStatus(reports []valve.Report, now time.Time) error {
	payload, err := FormatStatusPayload(reports, now)
	if err != nil {
		return fmt.Errorf("format status payload: %w", err)
	}

	token := c.client.Publish(TopicStatus, 0, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish status timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish status: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event to the broker.
func (c *RealClient) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) - lifecycle events should not be lost
	token := c.client.Publish(TopicSystem, 1, event.Retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// SubscribeCommands registers the handler and subscribes to the command
// topic. Payloads that fail to decode are logged and dropped; nothing
// propagates back into the paho client.
func (c *RealClient) SubscribeCommands(handler CommandHandler) error {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()

	return c.subscribe(handler)
}

func (c *RealClient) subscribe(handler CommandHandler) error {
	token := c.client.Subscribe(TopicCommand, 1, func(_ paho.Client, msg paho.Message) {
		cmd, err := DecodeCommand(msg.Payload())
		if err != nil {
			log.Printf("warning: %v", err)
			return
		}
		handler(cmd)
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicCommand, err)
	}
	return nil
}

// resubscribe restores the command subscription after a reconnect.
func (c *RealClient) resubscribe() {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()

	if handler == nil {
		return
	}
	if err := c.subscribe(handler); err != nil {
		log.Printf("resubscribe after reconnect: %v", err)
	}
}

// IsConnected reports whether the broker connection is up.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}
