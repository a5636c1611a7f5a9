// Package amqprpc implements the remote-call collaborator over RabbitMQ:
// a client that forwards contract calls as request/reply exchanges with
// correlation IDs, exposes its channel state for the safe-release policy,
// and declares which contracts the remote service backs.
package amqprpc

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ferrule/intercede-go/contracts"
)

const (
	defaultExchange    = "intercede.rpc"
	defaultCallTimeout = 30 * time.Second

	errorCodeHeader    = "x-error-code"
	errorMessageHeader = "x-error-message"
)

// callOutcome is what a pending call eventually receives.
type callOutcome struct {
	resp *contracts.CallResponse
	err  error
}

// Client is a remote-call proxy over an AMQP request/reply channel. It
// implements contracts.RemoteProxy, contracts.ChannelStater, and
// contracts.Releaser.
type Client struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	service    string
	exchange   string
	replyQueue string
	timeout    time.Duration
	supported  map[reflect.Type]bool
	logger     *slog.Logger

	mu      sync.Mutex
	state   contracts.ChannelState
	pending map[string]chan callOutcome
}

var (
	_ contracts.RemoteProxy   = (*Client)(nil)
	_ contracts.ChannelStater = (*Client)(nil)
	_ contracts.Releaser      = (*Client)(nil)
)

// Option configures the client.
type Option func(*Client)

// WithCallTimeout sets the per-call timeout applied when the caller's
// context carries no deadline of its own.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithExchange sets the RPC exchange name.
func WithExchange(name string) Option {
	return func(c *Client) {
		c.exchange = name
	}
}

// WithContracts declares the contract struct types the remote service backs
// beyond the primary one.
func WithContracts(types ...reflect.Type) Option {
	return func(c *Client) {
		for _, t := range types {
			c.supported[t] = true
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Dial connects to the broker, declares the RPC exchange and an exclusive
// reply queue, and starts consuming replies.
func Dial(url, service string, options ...Option) (*Client, error) {
	if service == "" {
		return nil, fmt.Errorf("%w: service name is required", ErrInvalidConfiguration)
	}

	c := &Client{
		service:   service,
		exchange:  defaultExchange,
		timeout:   defaultCallTimeout,
		supported: make(map[reflect.Type]bool),
		logger:    slog.Default(),
		state:     contracts.ChannelOpen,
		pending:   make(map[string]chan callOutcome),
	}
	for _, opt := range options {
		opt(c)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqprpc: failed to connect: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqprpc: failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(c.exchange, "direct", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqprpc: failed to declare exchange: %w", err)
	}

	replyQueue, err := channel.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqprpc: failed to declare reply queue: %w", err)
	}
	c.replyQueue = replyQueue.Name

	deliveries, err := channel.Consume(c.replyQueue, "", true, true, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqprpc: failed to consume replies: %w", err)
	}

	c.conn = conn
	c.channel = channel

	go c.dispatch(deliveries)
	go c.watch(channel.NotifyClose(make(chan *amqp.Error, 1)))

	c.logger.Debug("amqp rpc client connected",
		"service", service,
		"exchange", c.exchange,
		"replyQueue", c.replyQueue,
	)
	return c, nil
}

// ServiceName implements contracts.RemoteProxy.
func (c *Client) ServiceName() string {
	return c.service
}

// SupportsContract implements contracts.RemoteProxy.
func (c *Client) SupportsContract(contract reflect.Type) bool {
	return c.supported[contract]
}

// ChannelState implements contracts.ChannelStater.
func (c *Client) ChannelState() contracts.ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Call publishes the request with a fresh correlation ID and blocks until
// the matching reply arrives, the context is done, or the channel fails.
func (c *Client) Call(ctx context.Context, req *contracts.CallRequest) (*contracts.CallResponse, error) {
	c.mu.Lock()
	switch c.state {
	case contracts.ChannelClosed:
		c.mu.Unlock()
		return nil, ErrChannelClosed
	case contracts.ChannelFaulted:
		c.mu.Unlock()
		return nil, ErrChannelFaulted
	}
	correlationID := uuid.NewString()
	outcome := make(chan callOutcome, 1)
	c.pending[correlationID] = outcome
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, correlationID)
		c.mu.Unlock()
	}()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, c.timeout, ErrCallTimeout)
		defer cancel()
	}

	err := c.channel.PublishWithContext(ctx, c.exchange, req.Service, false, false, amqp.Publishing{
		ContentType:   "application/json",
		Type:          req.Method,
		CorrelationId: correlationID,
		ReplyTo:       c.replyQueue,
		Timestamp:     time.Now(),
		Body:          req.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("amqprpc: publish %s/%s failed: %w", req.Service, req.Method, err)
	}

	select {
	case out := <-outcome:
		if out.err != nil {
			return nil, out.err
		}
		return out.resp, nil
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}
}

// dispatch routes reply deliveries to their pending calls by correlation ID.
func (c *Client) dispatch(deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		c.mu.Lock()
		outcome, ok := c.pending[d.CorrelationId]
		if ok {
			delete(c.pending, d.CorrelationId)
		}
		c.mu.Unlock()
		if !ok {
			c.logger.Debug("dropping uncorrelated reply", "correlationId", d.CorrelationId)
			continue
		}
		outcome <- replyOutcome(&d)
	}
}

// replyOutcome converts a delivery into a response or a remote error, based
// on the error headers set by the remote side.
func replyOutcome(d *amqp.Delivery) callOutcome {
	if msg, ok := d.Headers[errorMessageHeader].(string); ok {
		code, _ := d.Headers[errorCodeHeader].(string)
		return callOutcome{err: &contracts.CallError{
			Service: d.Exchange,
			Method:  d.Type,
			Message: fmt.Sprintf("%s: %s", code, msg),
		}}
	}
	return callOutcome{resp: &contracts.CallResponse{Data: d.Body}}
}

// watch tracks the channel close notification. An orderly shutdown marks the
// channel closed; a broker- or network-initiated close marks it faulted and
// fails every pending call.
func (c *Client) watch(closed <-chan *amqp.Error) {
	amqpErr := <-closed

	c.mu.Lock()
	defer c.mu.Unlock()

	var failure error
	if amqpErr != nil {
		c.state = contracts.ChannelFaulted
		failure = fmt.Errorf("%w: %v", ErrChannelFaulted, amqpErr)
		c.logger.Error("amqp channel faulted", "service", c.service, "error", amqpErr)
	} else {
		if c.state == contracts.ChannelOpen {
			c.state = contracts.ChannelClosed
		}
		failure = ErrChannelClosed
	}

	for id, outcome := range c.pending {
		outcome <- callOutcome{err: failure}
		delete(c.pending, id)
	}
}

// Close implements contracts.Releaser. Closing an already closed channel
// returns ErrChannelClosed; closing a faulted one returns ErrChannelFaulted.
// The safe-release policy in the interception core suppresses exactly these.
func (c *Client) Close() error {
	c.mu.Lock()
	switch c.state {
	case contracts.ChannelClosed:
		c.mu.Unlock()
		return ErrChannelClosed
	case contracts.ChannelFaulted:
		c.mu.Unlock()
		return ErrChannelFaulted
	}
	c.state = contracts.ChannelClosed
	c.mu.Unlock()

	if err := c.channel.Close(); err != nil {
		c.conn.Close()
		return fmt.Errorf("amqprpc: close channel: %w", err)
	}
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("amqprpc: close connection: %w", err)
	}
	return nil
}
