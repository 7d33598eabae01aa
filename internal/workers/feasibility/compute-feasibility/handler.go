// internal/workers/feasibility/compute-feasibility/handler.go
package computefeasibility

import (
	"context"
	"encoding/json"
	"fmt"

	"deal-compass-workers/internal/common/errors"
	"deal-compass-workers/internal/common/logger"
	"deal-compass-workers/internal/common/metrics"
	"deal-compass-workers/internal/common/observability"
	"deal-compass-workers/internal/common/validation"
	"deal-compass-workers/internal/engine/economics"
	"deal-compass-workers/internal/engine/pipeline"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "compute-feasibility"
)

type Handler struct {
	config       *Config
	runner       *pipeline.Runner
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, runner *pipeline.Runner, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		runner:       runner,
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

	if res := validation.ComputeFeasibilitySchema.ValidateJSON(job.Variables); !res.Valid {
		h.failJob(client, job, timer, errors.NewInvalidFeasibilityInputError(res.Error()))
		return
	}

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

	h.logger.Info("feasibility computed", map[string]interface{}{
		"dealId":        input.DealID,
		"segment":       output.Inputs.Segment,
		"averageNoi":    output.Feasibility.AverageNOI,
		"yieldOnCost":   output.OwnerEconomics.YieldOnCost,
		"simplePayback": output.Feasibility.SimplePayback.String(),
	})
	h.completeJob(client, job, timer, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if res := validation.ComputeFeasibilitySchema.ValidateGo(input); !res.Valid {
		return nil, errors.NewInvalidFeasibilityInputError(res.Error())
	}

	in := h.runner.Rubric().FillDefaults(input.Inputs)
	contract := economics.NormalizeContractType(input.ContractType)
	out, brand, owner := h.runner.Economics(in, contract)

	if err := ctx.Err(); err != nil {
		return nil, errors.NewTimeoutError("feasibility projection", err)
	}

	return &Output{
		Inputs:         in,
		Feasibility:    out,
		BrandEconomics: brand,
		OwnerEconomics: owner,
		InputFlags:     h.runner.Rubric().RangeFlags(in),
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
