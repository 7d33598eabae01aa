package camunda

import (
	"sync"

	"deal-compass-workers/internal/common/config"
	"deal-compass-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Worker is one open job subscription.
type Worker struct {
	taskType  string
	jobWorker worker.JobWorker
}

func (w *Worker) TaskType() string {
	return w.taskType
}

// Fleet tracks the workers opened by the manager so they can be closed together.
type Fleet struct {
	client zbc.Client
	logger logger.Logger

	mu      sync.Mutex
	workers []*Worker
}

func NewFleet(client zbc.Client, log logger.Logger) *Fleet {
	return &Fleet{client: client, logger: log}
}

// Start opens a job worker for taskType unless it is disabled in config.
func (f *Fleet) Start(taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) *Worker {
	if !wcfg.Enabled {
		f.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jw := f.client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	w := &Worker{taskType: taskType, jobWorker: jw}
	f.mu.Lock()
	f.workers = append(f.workers, w)
	f.mu.Unlock()

	f.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return w
}

func (f *Fleet) TaskTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, len(f.workers))
	for i, w := range f.workers {
		types[i] = w.taskType
	}
	return types
}

// Stop closes every worker and waits for in-flight jobs to drain.
func (f *Fleet) Stop() {
	f.mu.Lock()
	workers := f.workers
	f.workers = nil
	f.mu.Unlock()

	for _, w := range workers {
		f.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
		w.jobWorker.Close()
	}
	for _, w := range workers {
		w.jobWorker.AwaitClose()
	}
}
