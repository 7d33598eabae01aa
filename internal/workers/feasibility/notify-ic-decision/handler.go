// internal/workers/feasibility/notify-ic-decision/handler.go
package notifyicdecision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"deal-compass-workers/internal/common/aws"
	"deal-compass-workers/internal/common/errors"
	"deal-compass-workers/internal/common/logger"
	"deal-compass-workers/internal/common/metrics"
	"deal-compass-workers/internal/common/observability"
	"deal-compass-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-ic-decision"
)

type Handler struct {
	config       *Config
	sesClient    aws.SESService
	snsClient    aws.SNSService
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, sesClient aws.SESService, snsClient aws.SNSService, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sesClient:    sesClient,
		snsClient:    snsClient,
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

	h.logger.Info("ic decision notification sent", map[string]interface{}{
		"dealId":         input.DealID,
		"notificationId": output.NotificationID,
		"email":          output.EmailStatus,
		"sns":            output.SNSStatus,
	})
	h.completeJob(client, job, timer, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.DealID == "" || input.ICDecision.Decision == "" {
		return nil, errors.NewBusinessRuleError("Nothing to notify", "dealId and icDecision.decision are required")
	}

	msg, err := render(h.buildMessageData(input))
	if err != nil {
		return nil, errors.NewNotificationSendFailedError("template", err)
	}

	output := &Output{
		NotificationID: uuid.New().String(),
		EmailStatus:    StatusDisabled,
		SNSStatus:      StatusDisabled,
	}

	if h.config.EmailEnabled {
		id, err := h.sendEmail(ctx, input, msg)
		if err != nil {
			return nil, err
		}
		output.EmailStatus = StatusSent
		output.EmailMessageID = id
	}

	if h.config.SNSEnabled {
		if !alertWorthy(input.ICDecision.Decision) {
			output.SNSStatus = StatusSkipped
		} else {
			id, err := h.publishAlert(ctx, input, msg)
			if err != nil {
				return nil, err
			}
			output.SNSStatus = StatusSent
			output.SNSMessageID = id
		}
	}

	output.Status = overallStatus(output.EmailStatus, output.SNSStatus)
	output.SentAt = time.Now().UTC().Format(time.RFC3339)
	return output, nil
}

func (h *Handler) sendEmail(ctx context.Context, input *Input, msg renderedMessage) (string, error) {
	to := input.Recipients
	if len(to) == 0 {
		to = h.config.ICDistribution
	}

	id, err := aws.SendEmail(ctx, h.sesClient, aws.EmailMessage{
		From:    h.config.FromEmail,
		To:      to,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
	if err != nil {
		return "", errors.NewNotificationSendFailedError("email", err)
	}
	return id, nil
}

func (h *Handler) publishAlert(ctx context.Context, input *Input, msg renderedMessage) (string, error) {
	attrs := map[string]string{
		"dealId":   input.DealID,
		"decision": input.ICDecision.Decision,
		"icScore":  fmt.Sprintf("%d", input.ICDecision.ICScore),
	}
	id, err := aws.PublishAlert(ctx, h.snsClient, h.config.TopicARN, msg.Subject, msg.Text, attrs)
	if err != nil {
		return "", errors.NewNotificationSendFailedError("sns", err)
	}
	return id, nil
}

func (h *Handler) buildMessageData(input *Input) messageData {
	d := input.ICDecision
	var board string
	if h.config.BoardURL != "" {
		board = strings.ReplaceAll(h.config.BoardURL, "{dealId}", input.DealID)
	}
	name := input.DealName
	if name == "" {
		name = input.DealID
	}

	return messageData{
		DealName:     name,
		City:         input.City,
		Decision:     decisionLabel(d.Decision),
		Score:        d.ICScore,
		Confidence:   d.Confidence,
		Completeness: d.DataCompleteness,
		Yield:        percent(input.YieldOnCost),
		IRR:          percent(input.UnleveragedIRR),
		Conditions:   d.Conditions,
		RedFlags:     d.RedFlags,
		Narrative:    d.Narrative,
		BoardURL:     board,
	}
}

// Only clear outcomes page the topic; conditional approvals go by mail.
func alertWorthy(decision string) bool {
	return decision == models.DecisionGo || decision == models.DecisionNoGo
}

func overallStatus(email, sns string) string {
	if email == StatusSent || sns == StatusSent {
		return StatusSent
	}
	if email == StatusDisabled && sns == StatusDisabled {
		return StatusDisabled
	}
	return StatusSkipped
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
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
