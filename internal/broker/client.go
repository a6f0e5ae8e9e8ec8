package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/smazurov/lightnode/internal/metrics"
)

// ErrNotConnected is returned when publishing without a broker connection.
var ErrNotConnected = errors.New("not connected to broker")

// Options configures the broker connection.
type Options struct {
	Server   string
	Port     int
	Username string
	Password string
	ClientID string
	Feeds    Feeds
	QoS      byte
	Timeout  time.Duration // connect/subscribe wait
	Backoff  Backoff
}

// Client keeps an MQTT session subscribed to the rig's feeds.
// Reconnects use Backoff rather than the library's own retry.
type Client struct {
	opts    Options
	handler func(topic string, payload []byte)
	logger  *slog.Logger

	newClient func(*mqtt.ClientOptions) mqtt.Client

	mu           sync.Mutex
	client       mqtt.Client
	ctx          context.Context
	cancel       context.CancelFunc
	reconnecting bool
	wg           sync.WaitGroup
}

// NewClient creates a client delivering messages to handler.
func NewClient(opts Options, handler func(topic string, payload []byte), logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Port == 0 {
		opts.Port = 1883
	}
	if opts.ClientID == "" {
		opts.ClientID = "lightnode"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Backoff.MaxAttempts == 0 {
		opts.Backoff = DefaultBackoff
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		opts:      opts,
		handler:   handler,
		logger:    logger.With("component", "mqtt-client"),
		newClient: mqtt.NewClient,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// URL returns the broker address.
func (c *Client) URL() string {
	return "tcp://" + net.JoinHostPort(c.opts.Server, strconv.Itoa(c.opts.Port))
}

func (c *Client) clientOptions() *mqtt.ClientOptions {
	o := mqtt.NewClientOptions().
		AddBroker(c.URL()).
		SetClientID(c.opts.ClientID).
		SetUsername(c.opts.Username).
		SetPassword(c.opts.Password).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(c.opts.Timeout).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost).
		SetDefaultPublishHandler(c.onMessage)
	return o
}

// Connect dials the broker once. A failure is logged and returned; the rig keeps
// running offline and Start can be used to retry in the background.
func (c *Client) Connect() error {
	if c.opts.Server == "" {
		return errors.New("no broker server configured")
	}

	c.mu.Lock()
	if c.client == nil {
		c.client = c.newClient(c.clientOptions())
	}
	client := c.client
	c.mu.Unlock()

	token := client.Connect()
	if !token.WaitTimeout(c.opts.Timeout) {
		return fmt.Errorf("connect to %s: timed out", c.URL())
	}
	if err := token.Error(); err != nil {
		c.logger.Error("Failed to connect to MQTT broker", "url", c.URL(), "error", err)
		return fmt.Errorf("connect to %s: %w", c.URL(), err)
	}
	return nil
}

// Start connects, falling back to the reconnect loop when the first attempt fails.
func (c *Client) Start() {
	if err := c.Connect(); err != nil {
		c.reconnect()
	}
}

func (c *Client) onConnect(client mqtt.Client) {
	metrics.SetBrokerConnected(true)
	c.logger.Info("Connected to MQTT broker", "url", c.URL())

	for _, topic := range c.opts.Feeds.Topics() {
		token := client.Subscribe(topic, c.opts.QoS, c.onMessage)
		go func(topic string, token mqtt.Token) {
			if !token.WaitTimeout(c.opts.Timeout) {
				c.logger.Warn("Subscribe timed out", "topic", topic)
				return
			}
			if err := token.Error(); err != nil {
				c.logger.Warn("Subscribe failed", "topic", topic, "error", err)
				return
			}
			c.logger.Info("Subscribed", "topic", topic, "qos", c.opts.QoS)
		}(topic, token)
	}
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	metrics.SetBrokerConnected(false)
	c.logger.Warn("Disconnected from MQTT broker", "error", err)
	c.reconnect()
}

func (c *Client) onMessage(_ mqtt.Client, msg mqtt.Message) {
	if c.handler != nil {
		c.handler(msg.Topic(), msg.Payload())
	}
}

// reconnect starts the backoff loop unless one is already running.
func (c *Client) reconnect() {
	c.mu.Lock()
	if c.reconnecting || c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			c.reconnecting = false
			c.mu.Unlock()
		}()

		err := c.opts.Backoff.Retry(c.ctx, c.Connect, func(attempt int, err error) {
			metrics.IncBrokerReconnect()
			c.logger.Warn("Reconnect failed", "attempt", attempt, "retry_in", c.opts.Backoff.Delay(attempt), "error", err)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("Giving up on MQTT broker", "error", err)
		}
	}()
}

// Publish sends payload to topic.
func (c *Client) Publish(topic string, payload []byte) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}

	token := client.Publish(topic, c.opts.QoS, false, payload)
	if !token.WaitTimeout(c.opts.Timeout) {
		return fmt.Errorf("publish to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	c.logger.Info("Published", "topic", topic)
	return nil
}

// IsConnected reports whether the broker session is up.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil && c.client.IsConnected()
}

// Close stops reconnecting and disconnects.
func (c *Client) Close() {
	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(250)
	}
	metrics.SetBrokerConnected(false)
	c.logger.Info("MQTT client stopped")
}
