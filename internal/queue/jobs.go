package queue

import (
	"github.com/hibiken/asynq"
)

const (
	// PurgeExpiredTask removes verification records past their retention
	// deadline. It is registered on a periodic schedule by the worker binary.
	PurgeExpiredTask = "verification:purge_expired"
)

// NewPurgeExpiredTask builds the purge task. The task carries no payload; the
// cutoff is computed when the worker runs it.
func NewPurgeExpiredTask() *asynq.Task {
	return asynq.NewTask(PurgeExpiredTask, nil)
}
