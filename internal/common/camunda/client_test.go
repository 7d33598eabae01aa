package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"deal-compass-workers/internal/common/config"
	commonerrors "deal-compass-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newTestClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{MaxRetries: maxRetries, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}}
}

func TestConfigFrom(t *testing.T) {
	tests := []struct {
		name     string
		input    config.CamundaConfig
		expected ClientConfig
	}{
		{
			name:  "retry settings from config",
			input: config.CamundaConfig{BrokerAddress: "zeebe:26500", RequestTimeout: 15000, RetryAttempts: 5, RetryBaseDelay: 200, RetryMaxDelay: 3000},
			expected: ClientConfig{
				GatewayAddress: "zeebe:26500", UsePlaintextConnection: true, ConnectionTimeout: 10 * time.Second,
				RequestTimeout: 15 * time.Second, MaxRetries: 5, BaseDelay: 200 * time.Millisecond, MaxDelay: 3 * time.Second,
			},
		},
		{
			name:  "unset retry settings fall back",
			input: config.CamundaConfig{BrokerAddress: "zeebe:26500"},
			expected: ClientConfig{
				GatewayAddress: "zeebe:26500", UsePlaintextConnection: true, ConnectionTimeout: 10 * time.Second,
				MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, *ConfigFrom(tt.input))
		})
	}
}

func TestExecuteWithRetry_RecoversFromTransientError(t *testing.T) {
	calls := 0
	result, err := newTestClient(3).ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("rpc error: code = Unavailable")
		}
		return "ok", nil
	}, "publish message")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_PermanentErrorStopsImmediately(t *testing.T) {
	calls := 0
	_, err := newTestClient(3).ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("process definition not found")
	}, "create instance")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, commonerrors.ErrCodeNotFound, commonerrors.CodeOf(err))
}

func TestExecuteWithRetry_ExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := newTestClient(2).ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("context deadline exceeded")
	}, "activate jobs")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, commonerrors.ErrCodeTimeout, commonerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "zeebe")
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{config: &ClientConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}}

	_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
		cancel()
		return nil, errors.New("connection refused")
	}, "topology")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteWithRetry_BoundsEachAttempt(t *testing.T) {
	c := newTestClient(0)
	c.config.RequestTimeout = 5 * time.Millisecond

	_, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		<-ctx.Done()
		return nil, ctx.Err()
	}, "topology")

	assert.Equal(t, commonerrors.ErrCodeTimeout, commonerrors.CodeOf(err))
}

func TestExecuteWithRetry_GRPCStatus(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		expectedCalls int
		expectedCode  commonerrors.ErrorCode
	}{
		{"unavailable is retried", status.Error(codes.Unavailable, "gateway restarting"), 3, commonerrors.ErrCodeExternalService},
		{"resource exhausted is retried", status.Error(codes.ResourceExhausted, "backpressure"), 3, commonerrors.ErrCodeExternalService},
		{"invalid argument is final", status.Error(codes.InvalidArgument, "bad variables"), 1, commonerrors.ErrCodeExternalService},
		{"not found is final", status.Error(codes.NotFound, "no such job"), 1, commonerrors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, err := newTestClient(2).ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
				calls++
				return nil, tt.err
			}, "complete job")

			assert.Equal(t, tt.expectedCalls, calls)
			assert.Equal(t, tt.expectedCode, commonerrors.CodeOf(err))
		})
	}
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		err      error
		expected commonerrors.ErrorCode
	}{
		{errors.New("connection refused"), commonerrors.ErrCodeExternalService},
		{errors.New("context deadline exceeded"), commonerrors.ErrCodeTimeout},
		{status.Error(codes.DeadlineExceeded, "slow broker"), commonerrors.ErrCodeTimeout},
		{errors.New("job not found"), commonerrors.ErrCodeNotFound},
		{status.Error(codes.AlreadyExists, "instance exists"), commonerrors.ErrCodeBusinessRule},
		{status.Error(codes.PermissionDenied, "nope"), commonerrors.ErrCodeAuthentication},
		{status.Error(codes.Unauthenticated, "no token"), commonerrors.ErrCodeAuthentication},
		{errors.New("something odd"), commonerrors.ErrCodeExternalService},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, commonerrors.CodeOf(mapZeebeError(tt.err, "op", 1)), tt.err.Error())
	}
	assert.True(t, isTransient(errors.New("Broken Pipe")))
	assert.False(t, isTransient(errors.New("invalid argument")))
	assert.False(t, isTransient(status.Error(codes.InvalidArgument, "connection refused")))
}
