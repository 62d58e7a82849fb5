package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/volunteerhub/backend/pkg/queue"
)

// ImageDeleter removes an image object from storage.
type ImageDeleter interface {
	DeleteImage(ctx context.Context, key string) error
}

// CleanupProcessor drains the deferred image cleanup queue. Record mutations
// enqueue replaced or orphaned image keys; this worker deletes them from
// storage, retrying failed jobs before moving them to the DLQ.
type CleanupProcessor struct {
	images ImageDeleter
	queue  *queue.Queue
	logger *zap.Logger
}

// NewCleanupProcessor creates an image cleanup processor.
func NewCleanupProcessor(images ImageDeleter, q *queue.Queue, logger *zap.Logger) *CleanupProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupProcessor{images: images, queue: q, logger: logger}
}

// Process executes one image delete job.
func (p *CleanupProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeImageDelete {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ImageDeletePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.Key == "" {
		return fmt.Errorf("empty image key")
	}
	if err := p.images.DeleteImage(ctx, payload.Key); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	p.logger.Info("image deleted", zap.String("key", payload.Key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *CleanupProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("cleanup worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
