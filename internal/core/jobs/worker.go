package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Worker polls the queue and dispatches jobs to registered handlers.
type Worker struct {
	queue    *Queue
	interval time.Duration

	mu       sync.Mutex
	handlers map[string]Handler

	stop chan struct{}
	done chan struct{}
}

func NewWorker(queue *Queue, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Worker{
		queue:    queue,
		interval: interval,
		handlers: make(map[string]Handler),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Register adds a handler for its job type.
func (w *Worker) Register(h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[h.GetType()] = h
}

// Start runs the polling loop until Stop is called or ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		log.Info().Dur("interval", w.interval).Msg("job worker started")
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
				w.drain(ctx)
			}
		}
	}()
}

// Stop halts the polling loop and waits for the current job to finish.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
}

// drain processes jobs until the queue is empty.
func (w *Worker) drain(ctx context.Context) {
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			log.Error().Err(err).Msg("dequeue failed")
			return
		}
		if job == nil {
			return
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job *Job) {
	w.mu.Lock()
	handler, ok := w.handlers[job.Type]
	w.mu.Unlock()

	if !ok {
		log.Error().Str("type", job.Type).Str("job", job.ID.String()).Msg("no handler registered")
		if err := w.queue.MarkFailed(ctx, job.ID, errUnknownType(job.Type)); err != nil {
			log.Error().Err(err).Msg("mark failed errored")
		}
		return
	}

	result, err := handler.Handle(ctx, job)
	if err != nil {
		log.Error().Err(err).Str("type", job.Type).Str("job", job.ID.String()).Msg("job failed")
		if markErr := w.queue.MarkFailed(ctx, job.ID, err); markErr != nil {
			log.Error().Err(markErr).Msg("mark failed errored")
		}
		return
	}

	if err := w.queue.MarkCompleted(ctx, job.ID, result); err != nil {
		log.Error().Err(err).Msg("mark completed errored")
		return
	}
	log.Info().Str("type", job.Type).Str("job", job.ID.String()).Msg("job completed")
}

type errUnknownType string

func (e errUnknownType) Error() string {
	return "no handler for job type " + string(e)
}
