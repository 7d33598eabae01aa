// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deal-compass-workers/internal/common/config"
	"deal-compass-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	dialHealthTimeout     = 10 * time.Second
)

// Client wraps the Zeebe gRPC client with broker health checks and retry.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	// RequestTimeout bounds each attempt made by ExecuteWithRetry; zero leaves it to ctx.
	RequestTimeout time.Duration
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
}

// ConfigFrom maps the camunda config section onto client settings.
func ConfigFrom(cfg config.CamundaConfig) *ClientConfig {
	cc := &ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      dialHealthTimeout,
		RequestTimeout:         config.GetDuration(cfg.RequestTimeout),
		MaxRetries:             cfg.RetryAttempts,
		BaseDelay:              config.GetDuration(cfg.RetryBaseDelay),
		MaxDelay:               config.GetDuration(cfg.RetryMaxDelay),
	}
	if cc.MaxRetries <= 0 {
		cc.MaxRetries = defaultRetryAttempts
	}
	if cc.BaseDelay <= 0 {
		cc.BaseDelay = defaultRetryBaseDelay
	}
	if cc.MaxDelay < cc.BaseDelay {
		cc.MaxDelay = defaultRetryMaxDelay
	}
	return cc
}

// NewClientWithConfig dials the gateway and checks the topology before returning.
func NewClientWithConfig(cfg *ClientConfig) (*Client, error) {
	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.GatewayAddress,
		UsePlaintextConnection: cfg.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("create zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: cfg}
	if err := c.HealthCheck(context.Background()); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("zeebe gateway %s unreachable: %w", cfg.GatewayAddress, err)
	}
	return c, nil
}

func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ExecuteWithRetry runs command, backing off exponentially while the gateway
// reports a transient failure.
func (c *Client) ExecuteWithRetry(
	ctx context.Context,
	command func(context.Context) (interface{}, error),
	operation string,
) (interface{}, error) {
	delay := c.config.BaseDelay
	for attempt := 0; ; attempt++ {
		result, err := c.attempt(ctx, command)
		if err == nil {
			return result, nil
		}
		if !isTransient(err) || attempt >= c.config.MaxRetries {
			return nil, mapZeebeError(err, operation, attempt+1)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("zeebe %s cancelled after %d attempts: %w", operation, attempt+1, ctx.Err())
		}
		if delay *= 2; delay > c.config.MaxDelay {
			delay = c.config.MaxDelay
		}
	}
}

func (c *Client) attempt(ctx context.Context, command func(context.Context) (interface{}, error)) (interface{}, error) {
	if c.config.RequestTimeout <= 0 {
		return command(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()
	return command(ctx)
}

// Gateway errors arrive as gRPC statuses; plain errors from dialing fall back to text.
var transientPhrases = []string{"connection refused", "connection reset", "broken pipe", "deadline exceeded"}

func isTransient(err error) bool {
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
			return true
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range transientPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

func mapZeebeError(err error, operation string, attempts int) error {
	wrapped := fmt.Errorf("zeebe %s failed after %d attempt(s): %w", operation, attempts, err)

	code := codes.Unknown
	if st, ok := status.FromError(err); ok {
		code = st.Code()
	}
	msg := strings.ToLower(err.Error())

	switch {
	case code == codes.DeadlineExceeded || strings.Contains(msg, "deadline exceeded"):
		return errors.NewTimeoutError("zeebe", wrapped)
	case code == codes.NotFound || strings.Contains(msg, "not found"):
		return errors.NewResourceNotFoundError("zeebe", wrapped.Error())
	case code == codes.AlreadyExists:
		return errors.NewBusinessRuleError(wrapped.Error(), "resource already exists")
	case code == codes.PermissionDenied || code == codes.Unauthenticated:
		return errors.NewAuthenticationError(wrapped.Error())
	default:
		return errors.NewExternalServiceError("zeebe", wrapped)
	}
}

func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe topology: %w", err)
	}
	return nil
}
