// internal/workers/feasibility/generate-sensitivity-heatmap/handler.go
package generatesensitivityheatmap

import (
	"context"
	"encoding/json"
	"fmt"

	"deal-compass-workers/internal/common/errors"
	"deal-compass-workers/internal/common/logger"
	"deal-compass-workers/internal/common/metrics"
	"deal-compass-workers/internal/common/observability"
	"deal-compass-workers/internal/common/validation"
	"deal-compass-workers/internal/engine/heatmap"
	"deal-compass-workers/internal/engine/presets"
	"deal-compass-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-sensitivity-heatmap"
)

type Handler struct {
	config       *Config
	rubric       *presets.Rubric
	generator    *heatmap.Generator
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, rubric *presets.Rubric, obs *observability.Observability, log logger.Logger) *Handler {
	if rubric == nil {
		rubric = presets.Default()
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		rubric:       rubric,
		generator:    heatmap.New(rubric),
		obs:          obs,
		logger:       l,
		errorHandler: errors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	timer := metrics.StartJob(TaskType)
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, timer, errors.NewInvalidFeasibilityInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, timer, err)
		return
	}

	h.logger.Info("heatmap generated", map[string]interface{}{
		"dealId":   input.DealID,
		"metric":   output.Heatmap.Metric,
		"segment":  output.Heatmap.Segment,
		"baseTier": output.BaseCell.Tier,
	})
	h.completeJob(client, job, timer, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if res := validation.HeatmapSchema.ValidateGo(input); !res.Valid {
		return nil, errors.NewInvalidFeasibilityInputError(res.Error())
	}

	metric := input.Metric
	if metric != models.HeatmapMetricNetFees && metric != models.HeatmapMetricYieldOnCost {
		if metric != "" {
			h.logger.Warn("unknown heatmap metric, using yield on cost", map[string]interface{}{"metric": metric})
		}
		metric = models.HeatmapMetricYieldOnCost
	}

	in := h.rubric.FillDefaults(input.Inputs)
	hm := h.generator.Generate(in, input.ContractType, metric)

	if err := ctx.Err(); err != nil {
		return nil, errors.NewHeatmapFailedError(fmt.Sprintf("generation aborted: %v", err))
	}
	if len(hm.Cells) == 0 || len(hm.Cells[hm.BaseRow]) == 0 {
		return nil, errors.NewHeatmapFailedError("empty grid")
	}

	counts := map[string]int{
		models.TierStrong:   0,
		models.TierGood:     0,
		models.TierMarginal: 0,
		models.TierWeak:     0,
	}
	for _, row := range hm.Cells {
		for _, cell := range row {
			counts[cell.Tier]++
		}
	}

	return &Output{
		Heatmap:    hm,
		BaseCell:   hm.Cells[hm.BaseRow][hm.BaseCol],
		TierCounts: counts,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, timer *metrics.JobTimer, output *Output) {
	ctx := context.Background()
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.failJob(client, job, timer, errors.NewExternalServiceError("zeebe", err))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
	h.obs.RecordJob(ctx, TaskType, observability.StatusCompleted, timer.Done(""))
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, timer *metrics.JobTimer, err error) {
	ctx := context.Background()
	res := h.errorHandler.HandleJobError(ctx, client, job, err)
	h.obs.RecordJob(ctx, TaskType, observability.StatusFailed, timer.Done(string(res.StandardError.Code)))
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
