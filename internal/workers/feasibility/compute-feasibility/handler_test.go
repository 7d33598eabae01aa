package computefeasibility

import (
	"context"
	"testing"
	"time"

	commonerrors "deal-compass-workers/internal/common/errors"
	"deal-compass-workers/internal/common/logger"
	"deal-compass-workers/internal/engine/pipeline"
	"deal-compass-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestInput() *Input {
	return &Input{
		DealID:       "deal-cdmx-001",
		ContractType: models.ContractManagement,
		Inputs: models.FeasibilityInputs{
			Rooms:           150,
			Segment:         "upscale",
			ADR:             4200,
			Occupancy:       0.70,
			RampUpYears:     2,
			CapexPerKey:     2_400_000,
			FFEPerKey:       450_000,
			BaseFee:         0.03,
			IncentiveFee:    0.08,
			FnBRevenuePct:   0.25,
			OtherRevenuePct: 0.06,
			GOPMargin:       0.38,
			FXRate:          17.5,
		},
	}
}

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(createTestConfig(), pipeline.NewRunner(nil), nil, &testLogger{t: t})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		modify         func(in *Input)
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:   "management contract in range",
			modify: func(in *Input) {},
			validateOutput: func(t *testing.T, output *Output) {
				require.Len(t, output.Feasibility.Years, 5)
				assert.Len(t, output.Feasibility.Sensitivities, 5)
				assert.Equal(t, models.ContractManagement, output.BrandEconomics.ContractType)
				assert.Greater(t, output.BrandEconomics.BaseFeeAnnual, 0.0)
				assert.Zero(t, output.BrandEconomics.RoyaltyFeeAnnual)
				assert.Greater(t, output.OwnerEconomics.YieldOnCost, 0.0)
				assert.Equal(t, 0.09, output.OwnerEconomics.MinYieldOnCost)
				assert.Empty(t, output.InputFlags)
			},
		},
		{
			name:   "franchise contract earns royalties",
			modify: func(in *Input) { in.ContractType = models.ContractFranchise },
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.ContractFranchise, output.BrandEconomics.ContractType)
				assert.Greater(t, output.BrandEconomics.RoyaltyFeeAnnual, 0.0)
				assert.Zero(t, output.BrandEconomics.BaseFeeAnnual)
			},
		},
		{
			name: "missing assumptions come from the segment preset",
			modify: func(in *Input) {
				in.Inputs.ADR = 0
				in.Inputs.GOPMargin = 0
				in.Inputs.FXRate = 0
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 3500.0, output.Inputs.ADR)
				assert.InDelta(t, 0.35, output.Inputs.GOPMargin, 1e-9)
				assert.Equal(t, 17.5, output.Inputs.FXRate)
				assert.Empty(t, output.InputFlags)
			},
		},
		{
			name:   "out of range ADR is flagged",
			modify: func(in *Input) { in.Inputs.ADR = 6000 },
			validateOutput: func(t *testing.T, output *Output) {
				require.Len(t, output.InputFlags, 1)
				assert.Contains(t, output.InputFlags[0], "ADR 6000")
			},
		},
		{
			name:   "unknown segment falls back to midscale",
			modify: func(in *Input) { in.Inputs.Segment = "glamping" },
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 0.095, output.OwnerEconomics.MinYieldOnCost)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := createTestInput()
			tt.modify(input)

			output, err := newTestHandler(t).Execute(context.Background(), input)

			require.NoError(t, err)
			require.NotNil(t, output)
			tt.validateOutput(t, output)
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(in *Input)
		field  string
	}{
		{"zero rooms", func(in *Input) { in.Inputs.Rooms = 0 }, "inputs.rooms"},
		{"occupancy above one", func(in *Input) { in.Inputs.Occupancy = 1.4 }, "inputs.occupancy"},
		{"negative capex", func(in *Input) { in.Inputs.CapexPerKey = -1 }, "inputs.capexPerKey"},
		{"unknown contract type", func(in *Input) { in.ContractType = "lease" }, "contractType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := createTestInput()
			tt.modify(input)

			output, err := newTestHandler(t).Execute(context.Background(), input)

			require.Error(t, err)
			assert.Nil(t, output)
			stdErr, ok := commonerrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, commonerrors.ErrCodeInvalidFeasibilityInput, stdErr.Code)
			assert.Contains(t, stdErr.Details, tt.field)
			assert.False(t, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestHandler(t).Execute(ctx, createTestInput())

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeTimeout, commonerrors.CodeOf(err))
}

func TestHandler_Execute_Deterministic(t *testing.T) {
	h := newTestHandler(t)
	first, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	second, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
