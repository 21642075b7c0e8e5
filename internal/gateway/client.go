package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/nexhome-core/internal/device"
	"github.com/nerrad567/nexhome-core/internal/infrastructure/config"
	"github.com/nerrad567/nexhome-core/internal/infrastructure/mqtt"
)

// defaultRequestTimeout bounds a state query or discovery round trip when
// none is configured.
const defaultRequestTimeout = 5 * time.Second

// MQTTClient is the subset of *mqtt.Client the gateway client needs.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// Logger is the logging interface used by the gateway client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// CommandObserver is told about every command the gateway accepted.
type CommandObserver func(address string, cmd Command)

// Client sends device commands to a Nexhome gateway and answers state
// queries and discovery through request/response topics.
//
// Requests are correlated by a UUID carried in both the topic and payload.
// All methods are safe for concurrent use.
type Client struct {
	mqtt    MQTTClient
	topics  mqtt.Topics
	serial  string
	qos     byte
	timeout time.Duration

	pending   map[string]chan responseMessage
	pendingMu sync.Mutex
	started   bool

	observers  []CommandObserver
	observerMu sync.RWMutex

	logger Logger
}

// New creates a client for the gateway described by cfg. Call Start before
// issuing queries.
func New(client MQTTClient, cfg config.GatewayConfig, requestTimeout time.Duration) *Client {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return &Client{
		mqtt:    client,
		topics:  mqtt.NewTopics(cfg.Serial),
		serial:  cfg.Serial,
		qos:     byte(cfg.QoS), // #nosec G115 -- validated 0..2 by config
		timeout: requestTimeout,
		pending: make(map[string]chan responseMessage),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// OnCommand registers an observer called after each successful DeviceControl.
func (c *Client) OnCommand(observer CommandObserver) {
	c.observerMu.Lock()
	c.observers = append(c.observers, observer)
	c.observerMu.Unlock()
}

// Start subscribes to the gateway's response topics.
func (c *Client) Start() error {
	if err := c.mqtt.Subscribe(c.topics.AllResponses(), c.qos, c.handleResponse); err != nil {
		return fmt.Errorf("subscribing to gateway responses: %w", err)
	}

	c.pendingMu.Lock()
	c.started = true
	c.pendingMu.Unlock()

	c.logger.Info("gateway client started", "serial", c.serial)
	return nil
}

// Stop unsubscribes and abandons in-flight requests.
func (c *Client) Stop() {
	c.pendingMu.Lock()
	c.started = false
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	if err := c.mqtt.Unsubscribe(c.topics.AllResponses()); err != nil {
		c.logger.Debug("unsubscribing gateway responses", "error", err)
	}
}

// IsConnected reports whether the underlying broker connection is up.
func (c *Client) IsConnected() bool {
	return c.mqtt.IsConnected()
}

// DeviceControl sends cmd to the device at address.
//
// The publish runs on its own goroutine; if ctx ends first DeviceControl
// returns ctx.Err() and the publish may still complete. Publish errors are
// returned as-is.
func (c *Client) DeviceControl(ctx context.Context, cmd Command, address string) error {
	if cmd.Identifier == "" || address == "" {
		return fmt.Errorf("%w: identifier and address are required", ErrInvalidCommand)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(commandMessage{
		ID:         uuid.NewString(),
		Serial:     c.serial,
		Address:    address,
		Identifier: cmd.Identifier,
		Value:      cmd.Value,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- c.mqtt.Publish(c.topics.Command(address), payload, c.qos, false)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return err
		}
	}

	c.logger.Debug("command sent", "address", address, "identifier", cmd.Identifier, "value", cmd.Value)
	c.notifyCommand(address, cmd)
	return nil
}

func (c *Client) notifyCommand(address string, cmd Command) {
	c.observerMu.RLock()
	observers := c.observers
	c.observerMu.RUnlock()

	for _, observe := range observers {
		observe(address, cmd)
	}
}

// Query reads the requested identifiers. Identifiers the gateway does not
// report are simply absent from the result.
//
// Parameters:
//   - ctx: Bounds the wait together with the client's request timeout
//   - params: Identifier/address pairs to read
//
// Returns:
//   - []Value: Reported values; nil for an empty request
//   - error: ErrNotStarted, ErrTimeout, ErrGateway or a publish failure
func (c *Client) Query(ctx context.Context, params []Param) ([]Value, error) {
	if len(params) == 0 {
		return nil, nil
	}

	resp, err := c.request(ctx, requestMessage{Params: params})
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// ListDevices asks the gateway for every device it knows.
func (c *Client) ListDevices(ctx context.Context) ([]device.Device, error) {
	resp, err := c.request(ctx, requestMessage{Action: actionListDevices})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	devices := make([]device.Device, 0, len(resp.Devices))
	for _, d := range resp.Devices {
		devices = append(devices, d.ToDevice(now))
	}
	return devices, nil
}

// request publishes req and waits for the matching response.
func (c *Client) request(ctx context.Context, req requestMessage) (responseMessage, error) {
	req.ID = uuid.NewString()

	ch, err := c.register(req.ID)
	if err != nil {
		return responseMessage{}, err
	}
	defer c.unregister(req.ID)

	payload, err := json.Marshal(req)
	if err != nil {
		return responseMessage{}, fmt.Errorf("encoding request: %w", err)
	}
	if err := c.mqtt.Publish(c.topics.Request(req.ID), payload, c.qos, false); err != nil {
		return responseMessage{}, fmt.Errorf("publishing request: %w", err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return responseMessage{}, ctx.Err()
	case <-timer.C:
		return responseMessage{}, fmt.Errorf("%w after %v", ErrTimeout, c.timeout)
	case resp, ok := <-ch:
		if !ok {
			return responseMessage{}, ErrNotStarted
		}
		if resp.Error != "" {
			return responseMessage{}, fmt.Errorf("%w: %s", ErrGateway, resp.Error)
		}
		return resp, nil
	}
}

func (c *Client) register(id string) (chan responseMessage, error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	if !c.started {
		return nil, ErrNotStarted
	}
	ch := make(chan responseMessage, 1)
	c.pending[id] = ch
	return ch, nil
}

func (c *Client) unregister(id string) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// handleResponse routes a gateway response to its waiting request.
// Responses nobody waits for (late or foreign) are dropped.
func (c *Client) handleResponse(topic string, payload []byte) error {
	var resp responseMessage
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("decoding gateway response on %s: %w", topic, err)
	}
	if resp.ID == "" {
		resp.ID = topic[strings.LastIndex(topic, "/")+1:]
	}

	c.pendingMu.Lock()
	ch, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}
	c.pendingMu.Unlock()

	if !ok {
		c.logger.Debug("dropping unmatched gateway response", "id", resp.ID)
		return nil
	}

	ch <- resp
	return nil
}
