package generatesensitivityheatmap

import (
	"context"
	"testing"
	"time"

	commonerrors "deal-compass-workers/internal/common/errors"
	"deal-compass-workers/internal/common/logger"
	"deal-compass-workers/internal/engine/heatmap"
	"deal-compass-workers/internal/engine/presets"
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

func createTestInput(metric string) *Input {
	return &Input{
		DealID:       "deal-cun-007",
		ContractType: models.ContractManagement,
		Metric:       metric,
		Inputs: models.FeasibilityInputs{
			Rooms:        150,
			Segment:      "upscale",
			ADR:          3500,
			Occupancy:    0.65,
			RampUpYears:  2,
			CapexPerKey:  2_800_000,
			FFEPerKey:    450_000,
			BaseFee:      0.03,
			IncentiveFee: 0.08,
			GOPMargin:    0.38,
			FXRate:       17.5,
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
	return NewHandler(createTestConfig(), nil, nil, &testLogger{t: t})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:  "yield on cost grid",
			input: createTestInput(models.HeatmapMetricYieldOnCost),
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.HeatmapMetricYieldOnCost, output.Heatmap.Metric)
				assert.Equal(t, 0.65, output.BaseCell.Occupancy)
				assert.Equal(t, 3500.0, output.BaseCell.ADR)
				assert.Greater(t, output.BaseCell.Value, 0.0)
				assert.Less(t, output.BaseCell.Value, 1.0)
			},
		},
		{
			name:  "net fees grid",
			input: createTestInput(models.HeatmapMetricNetFees),
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.HeatmapMetricNetFees, output.Heatmap.Metric)
				assert.Greater(t, output.BaseCell.Value, 1000.0, "fees are currency, not a ratio")
			},
		},
		{
			name:  "unknown metric falls back to yield on cost",
			input: createTestInput("irr"),
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.HeatmapMetricYieldOnCost, output.Heatmap.Metric)
			},
		},
		{
			name:  "empty metric falls back to yield on cost",
			input: createTestInput(""),
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.HeatmapMetricYieldOnCost, output.Heatmap.Metric)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := newTestHandler(t).Execute(context.Background(), tt.input)

			require.NoError(t, err)
			require.Len(t, output.Heatmap.Cells, 7)

			total := 0
			for _, n := range output.TierCounts {
				total += n
			}
			assert.Equal(t, 42, total)
			assert.Len(t, output.TierCounts, 4)

			tt.validateOutput(t, output)
		})
	}
}

func TestHandler_Execute_MatchesEngine(t *testing.T) {
	input := createTestInput(models.HeatmapMetricNetFees)
	input.ContractType = models.ContractFranchise

	output, err := newTestHandler(t).Execute(context.Background(), input)
	require.NoError(t, err)

	rubric := presets.Default()
	expected := heatmap.New(rubric).Generate(rubric.FillDefaults(input.Inputs), models.ContractFranchise, models.HeatmapMetricNetFees)
	assert.Equal(t, expected, output.Heatmap)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(in *Input)
	}{
		{"zero ADR", func(in *Input) { in.Inputs.ADR = 0 }},
		{"zero rooms", func(in *Input) { in.Inputs.Rooms = 0 }},
		{"bad contract type", func(in *Input) { in.ContractType = "lease" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := createTestInput(models.HeatmapMetricYieldOnCost)
			tt.modify(input)

			output, err := newTestHandler(t).Execute(context.Background(), input)

			require.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, commonerrors.ErrCodeInvalidFeasibilityInput, commonerrors.CodeOf(err))
		})
	}
}

func TestHandler_Execute_DeadlineExceeded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestHandler(t).Execute(ctx, createTestInput(models.HeatmapMetricYieldOnCost))

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeHeatmapFailed, commonerrors.CodeOf(err))
}
