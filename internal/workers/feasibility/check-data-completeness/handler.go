// internal/workers/feasibility/check-data-completeness/handler.go
package checkdatacompleteness

import (
	"context"
	"encoding/json"
	"fmt"

	"deal-compass-workers/internal/common/errors"
	"deal-compass-workers/internal/common/logger"
	"deal-compass-workers/internal/common/metrics"
	"deal-compass-workers/internal/common/observability"
	"deal-compass-workers/internal/engine/completeness"
	"deal-compass-workers/internal/engine/pipeline"
	"deal-compass-workers/internal/engine/presets"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "check-data-completeness"
)

type Handler struct {
	config       *Config
	rubric       *presets.Rubric
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
		h.failJob(client, job, timer, errors.NewBusinessRuleError("Invalid job variables", fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, timer, err)
		return
	}

	h.logger.Info("completeness scored", map[string]interface{}{
		"dealId":     input.Deal.ID,
		"score":      output.Score,
		"missing":    len(output.Missing),
		"readyForIC": output.ReadyForIC,
	})
	h.completeJob(client, job, timer, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input.Deal.ID == "" {
		return nil, errors.NewBusinessRuleError("Deal is required", "deal.id is empty")
	}
	if input.ContactCount < 0 {
		return nil, errors.NewBusinessRuleError("Invalid contact count", fmt.Sprintf("contactCount: %d", input.ContactCount))
	}

	hasInputs := input.HasFeasibilityInputs
	if input.Inputs != nil {
		hasInputs = pipeline.HasFeasibilityInputs(*input.Inputs)
	}

	score := completeness.ComputeCompleteness(input.Deal, hasInputs, input.ContactCount)
	minScore := h.rubric.Thresholds.MinCompleteness

	return &Output{
		CompletenessScore: score,
		ReadyForIC:        score.Score >= minScore,
		MinCompleteness:   minScore,
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
