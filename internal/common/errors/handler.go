package errors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Resolution is what HandleJobError will do with a failed job.
type Resolution struct {
	StandardError *StandardError
	BPMNError     *BPMNError
	// Retries > 0 fails the job back to the broker; 0 throws the BPMN error.
	Retries int
}

func (r Resolution) Throw() bool {
	return r.Retries == 0
}

// Resolve normalizes err and decides between a retrying fail and a BPMN throw.
// Remaining retries on the job cap the configured count.
func Resolve(job entities.Job, err error) Resolution {
	stdErr := normalizeError(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	retries := bpmnErr.Retries
	if job.Retries <= 1 {
		retries = 0
	} else if int(job.Retries)-1 < retries {
		retries = int(job.Retries) - 1
	}

	return Resolution{StandardError: stdErr, BPMNError: bpmnErr, Retries: retries}
}

func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) Resolution {
	res := Resolve(job, err)
	h.logError(job, res)

	if res.Throw() {
		h.throwBPMNError(ctx, client, job, res.BPMNError)
	} else {
		h.failJobWithRetries(ctx, client, job, res.BPMNError, res.Retries)
	}
	return res
}

func normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) failJobWithRetries(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, retries int) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(int32(retries)).
		ErrorMessage(bpmnErr.Message)

	if varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			h.send(ctx, job, func(ctx context.Context) error { _, err := withVars.Send(ctx); return err })
			return
		}
	}
	h.send(ctx, job, func(ctx context.Context) error { _, err := cmd.Send(ctx); return err })
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			h.send(ctx, job, func(ctx context.Context) error { _, err := withVars.Send(ctx); return err })
			return
		}
	}
	h.send(ctx, job, func(ctx context.Context) error { _, err := cmd.Send(ctx); return err })
}

func (h *ErrorHandler) send(ctx context.Context, job entities.Job, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		h.logger.Error("failed to report job failure", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *ErrorHandler) logError(job entities.Job, res Resolution) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(res.StandardError.Code),
		"bpmnErrorCode":    res.BPMNError.Code,
		"message":          res.BPMNError.Message,
		"details":          res.StandardError.Details,
		"retryable":        res.StandardError.Retryable,
		"retries":          res.Retries,
		"errorCategory":    GetErrorCategory(res.StandardError.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
