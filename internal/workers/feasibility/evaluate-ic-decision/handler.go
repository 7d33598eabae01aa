// internal/workers/feasibility/evaluate-ic-decision/handler.go
package evaluateicdecision

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"deal-compass-workers/internal/common/errors"
	"deal-compass-workers/internal/common/logger"
	"deal-compass-workers/internal/common/metrics"
	"deal-compass-workers/internal/common/observability"
	"deal-compass-workers/internal/common/validation"
	"deal-compass-workers/internal/engine/pipeline"
	"deal-compass-workers/internal/engine/presets"
	"deal-compass-workers/internal/models"
	"deal-compass-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "evaluate-ic-decision"
)

type DealStore interface {
	Get(ctx context.Context, dealID string) (*models.DealSnapshot, error)
	FeasibilityInputs(ctx context.Context, dealID string) (*models.FeasibilityInputs, error)
	ContactCount(ctx context.Context, dealID string) (int, error)
	Invalidate(ctx context.Context, dealID string) error
}

type DecisionStore interface {
	Save(ctx context.Context, rec *store.DecisionRecord) error
	Latest(ctx context.Context, dealID string) (*store.DecisionRecord, error)
}

type Handler struct {
	config       *Config
	runner       *pipeline.Runner
	deals        DealStore
	decisions    DecisionStore
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, runner *pipeline.Runner, deals DealStore, decisions DecisionStore, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		runner:       runner,
		deals:        deals,
		decisions:    decisions,
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
	input.ProcessInstanceKey = job.ProcessInstanceKey

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, timer, err)
		return
	}

	h.logger.Info("ic decision evaluated", map[string]interface{}{
		"dealId":     output.DealID,
		"decisionId": output.DecisionID,
		"decision":   output.Decision,
		"icScore":    output.ICScore,
		"confidence": output.Confidence,
		"changed":    output.DecisionChanged,
		"redFlags":   len(output.ICDecision.RedFlags),
	})
	h.completeJob(client, job, timer, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if res := validation.EvaluateICDecisionSchema.ValidateGo(input); !res.Valid {
		return nil, errors.NewInvalidFeasibilityInputError(res.Error())
	}

	thresholds, err := h.thresholds(input.Thresholds)
	if err != nil {
		return nil, err
	}

	if input.RefreshCache {
		if err := h.deals.Invalidate(ctx, input.DealID); err != nil {
			h.logger.Warn("deal cache invalidation failed", map[string]interface{}{
				"dealId": input.DealID,
				"error":  err.Error(),
			})
		}
	}

	deal, err := h.loadDeal(ctx, input)
	if err != nil {
		return nil, err
	}

	inputs, err := h.loadInputs(ctx, input)
	if err != nil {
		return nil, err
	}

	contacts, err := h.loadContactCount(ctx, input)
	if err != nil {
		return nil, err
	}

	result := h.runner.Run(pipeline.Job{
		Deal:         *deal,
		Inputs:       h.runner.Prepare(inputs, deal.Segment),
		ContractType: input.ContractType,
		ContactCount: contacts,
		Thresholds:   thresholds,
	})
	if err := ctx.Err(); err != nil {
		return nil, errors.NewTimeoutError("ic evaluation", err)
	}

	previous := h.previousDecision(ctx, input.DealID)

	rec := &store.DecisionRecord{
		DealID:             input.DealID,
		ProcessInstanceKey: input.ProcessInstanceKey,
		Decision:           result.Decision,
	}
	if err := h.decisions.Save(ctx, rec); err != nil {
		return nil, errors.NewDecisionPersistFailedError(input.DealID, err)
	}

	d := result.Decision
	metrics.RecordDecision(d.Decision, d.Confidence, d.ICScore)
	h.obs.RecordDecision(ctx, d.Decision, d.Segment)

	out := &Output{
		DecisionID:       rec.ID,
		DealID:           input.DealID,
		DealName:         deal.Name,
		City:             deal.City,
		Decision:         d.Decision,
		ICScore:          d.ICScore,
		Confidence:       d.Confidence,
		DataCompleteness: d.DataCompleteness,
		YieldOnCost:      result.Owner.YieldOnCost,
		UnleveragedIRR:   result.Owner.UnleveragedIRR,
		DecidedAt:        rec.CreatedAt.Format(time.RFC3339),
		ICDecision:       d,
	}
	if previous != nil {
		out.PreviousDecision = previous.Decision.Decision
		out.DecisionChanged = previous.Decision.Decision != d.Decision
	}
	return out, nil
}

// previousDecision is best effort; a failed lookup only loses the change marker.
func (h *Handler) previousDecision(ctx context.Context, dealID string) *store.DecisionRecord {
	rec, err := h.decisions.Latest(ctx, dealID)
	if err != nil {
		if !stderrors.Is(err, store.ErrDecisionNotFound) {
			h.logger.Warn("previous decision lookup failed", map[string]interface{}{
				"dealId": dealID,
				"error":  err.Error(),
			})
		}
		return nil
	}
	return rec
}

// thresholds overlays raw onto the configured thresholds. nil means no override.
func (h *Handler) thresholds(raw json.RawMessage) (*presets.Thresholds, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	th := h.runner.Rubric().Thresholds
	minRooms := make(map[string]int, len(th.MinRooms))
	for k, v := range th.MinRooms {
		minRooms[k] = v
	}
	th.MinRooms = minRooms

	if err := json.Unmarshal(raw, &th); err != nil {
		return nil, errors.NewInvalidFeasibilityInputError(fmt.Sprintf("thresholds: %v", err))
	}
	if th.NoGoScore > th.GoScore {
		return nil, errors.NewInvalidFeasibilityInputError(
			fmt.Sprintf("thresholds: noGoScore %d above goScore %d", th.NoGoScore, th.GoScore))
	}
	return &th, nil
}

func (h *Handler) loadDeal(ctx context.Context, input *Input) (*models.DealSnapshot, error) {
	if input.Deal != nil {
		deal := *input.Deal
		if deal.ID == "" {
			deal.ID = input.DealID
		}
		return &deal, nil
	}

	deal, err := h.deals.Get(ctx, input.DealID)
	if err != nil {
		return nil, lookupError(input.DealID, "load deal", err)
	}
	return deal, nil
}

func (h *Handler) loadInputs(ctx context.Context, input *Input) (models.FeasibilityInputs, error) {
	if input.Inputs != nil {
		return *input.Inputs, nil
	}

	stored, err := h.deals.FeasibilityInputs(ctx, input.DealID)
	if err != nil {
		return models.FeasibilityInputs{}, lookupError(input.DealID, "load feasibility inputs", err)
	}
	if stored == nil {
		h.logger.Warn("no feasibility inputs on record", map[string]interface{}{"dealId": input.DealID})
		return models.FeasibilityInputs{}, nil
	}
	return *stored, nil
}

func (h *Handler) loadContactCount(ctx context.Context, input *Input) (int, error) {
	if input.ContactCount != nil {
		return *input.ContactCount, nil
	}
	n, err := h.deals.ContactCount(ctx, input.DealID)
	if err != nil {
		return 0, lookupError(input.DealID, "count contacts", err)
	}
	return n, nil
}

func lookupError(dealID, operation string, err error) error {
	switch {
	case stderrors.Is(err, store.ErrDealNotFound):
		return errors.NewDealNotFoundError(dealID)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewQueryTimeoutError(operation)
	default:
		return errors.NewDealLookupFailedError(dealID, err)
	}
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
