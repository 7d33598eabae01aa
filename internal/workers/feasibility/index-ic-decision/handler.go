// internal/workers/feasibility/index-ic-decision/handler.go
package indexicdecision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"deal-compass-workers/internal/common/errors"
	"deal-compass-workers/internal/common/logger"
	"deal-compass-workers/internal/common/metrics"
	"deal-compass-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	TaskType = "index-ic-decision"
)

type Handler struct {
	config       *Config
	esClient     *elasticsearch.Client
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

func NewHandler(config *Config, esClient *elasticsearch.Client, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		esClient:     esClient,
		obs:          obs,
		logger:       l,
		errorHandler: errors.NewErrorHandler(l),
		now:          time.Now,
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

	h.logger.Info("ic decision indexed", map[string]interface{}{
		"dealId":  input.DealID,
		"index":   output.Index,
		"result":  output.Result,
		"version": output.Version,
	})
	h.completeJob(client, job, timer, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.DealID == "" || input.ICDecision.Decision == "" {
		return nil, errors.NewBusinessRuleError("Nothing to index", "dealId and icDecision.decision are required")
	}

	body, err := json.Marshal(h.buildDocument(input))
	if err != nil {
		return nil, errors.NewDecisionIndexFailedError(h.config.Index, err)
	}

	req := esapi.IndexRequest{
		Index:      h.config.Index,
		DocumentID: input.DealID,
		Body:       bytes.NewReader(body),
		Refresh:    h.config.Refresh,
	}

	res, err := req.Do(ctx, h.esClient)
	if err != nil {
		return nil, errors.NewDecisionIndexFailedError(h.config.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return nil, errors.NewDecisionIndexFailedError(h.config.Index, fmt.Errorf("%s: %s", res.Status(), msg))
	}

	var indexed struct {
		ID      string `json:"_id"`
		Result  string `json:"result"`
		Version int64  `json:"_version"`
	}
	if err := json.NewDecoder(res.Body).Decode(&indexed); err != nil {
		return nil, errors.NewDecisionIndexFailedError(h.config.Index, fmt.Errorf("decode response: %w", err))
	}

	return &Output{
		Indexed:    true,
		Index:      h.config.Index,
		DocumentID: indexed.ID,
		Result:     indexed.Result,
		Version:    indexed.Version,
	}, nil
}

func (h *Handler) buildDocument(input *Input) DecisionDocument {
	d := input.ICDecision
	decidedAt := input.DecidedAt
	if decidedAt == "" {
		decidedAt = h.now().UTC().Format(time.RFC3339)
	}
	redFlags := d.RedFlags
	if redFlags == nil {
		redFlags = []string{}
	}

	return DecisionDocument{
		DecisionID:       input.DecisionID,
		DealID:           input.DealID,
		DealName:         input.DealName,
		City:             input.City,
		Segment:          d.Segment,
		Decision:         d.Decision,
		Confidence:       d.Confidence,
		ICScore:          d.ICScore,
		DataCompleteness: d.DataCompleteness,
		VolatilityRatio:  d.VolatilityRatio,
		YieldOnCost:      input.YieldOnCost,
		IRR:              input.UnleveragedIRR,
		RedFlags:         redFlags,
		Narrative:        d.Narrative,
		DecidedAt:        decidedAt,
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
