package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one batch of files picked up by the watcher.
type Job struct {
	ID          uuid.UUID
	Paths       []string
	SubmittedAt time.Time
}

// NewJob stamps a job for paths.
func NewJob(paths []string) Job {
	return Job{ID: uuid.New(), Paths: paths, SubmittedAt: time.Now()}
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Handler processes one job.
type Handler func(ctx context.Context, job Job) error
