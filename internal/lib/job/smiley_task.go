package job

import (
	"time"

	"github.com/hibiken/asynq"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// TaskSmileyRefresh rebuilds the Redis smiley cache from Postgres.
const TaskSmileyRefresh = "smileys:refresh"

// NewSmileyRefreshTask builds the refresh task. It carries no payload, and
// Unique keeps at most one pending refresh in the queue.
func NewSmileyRefreshTask() *asynq.Task {
	return asynq.NewTask(
		TaskSmileyRefresh,
		nil,
		asynq.MaxRetry(3),
		asynq.Queue(QueueDefault),
		asynq.Timeout(30*time.Second),
		asynq.Unique(time.Minute),
	)
}
