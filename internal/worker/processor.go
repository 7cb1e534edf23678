package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/echefulouis/drug-verification-system/internal/queue"
)

// RecordPurger deletes records whose retention deadline has passed.
type RecordPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	records RecordPurger
	logger  *zap.Logger
}

// NewProcessor constructs a worker processor.
func NewProcessor(records RecordPurger, logger *zap.Logger) *Processor {
	return &Processor{records: records, logger: logger}
}

// Handler registers the purge job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.PurgeExpiredTask, p.handlePurgeExpired)
	return mux
}

func (p *Processor) handlePurgeExpired(ctx context.Context, _ *asynq.Task) error {
	purged, err := p.records.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		p.logger.Error("purge expired records failed", zap.Error(err))
		return err
	}
	p.logger.Info("expired records purged", zap.Int64("count", purged))
	return nil
}
