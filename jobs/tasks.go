package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskArchiveExport is the task type exporting one accounting period.
	TaskArchiveExport = "archive:export"
)

// ArchiveExportPayload describes the period to archive. Dates use the
// 2006-01-02 layout.
type ArchiveExportPayload struct {
	PeriodStart string `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string `json:"period_end" validate:"required,datetime=2006-01-02"`
	PeriodTag   string `json:"period_tag" validate:"required,max=64,excludesall=/\\"`
}

// NewArchiveExportTask constructs an Asynq task.
func NewArchiveExportTask(payload ArchiveExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskArchiveExport, data, asynq.MaxRetry(3), asynq.Timeout(2*time.Hour)), nil
}

// EnqueueArchiveExport enqueues an archive export. Exports of the same tag
// are deduplicated while one is queued.
func (c *Client) EnqueueArchiveExport(ctx context.Context, payload ArchiveExportPayload) (*asynq.TaskInfo, error) {
	task, err := NewArchiveExportTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.TaskID("archive:"+payload.PeriodTag))
}
