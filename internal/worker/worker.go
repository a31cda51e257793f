// Package worker drains the mail queue on a fixed cadence. Each cycle
// snapshots every live job and, per job, sends up to SendLimit recipients
// in one transport batch: fully drained jobs are removed, partially
// drained jobs keep their remainder for the next cycle, and a transport
// failure marks the job failed without consuming recipients.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mailspool/internal/metrics"
	"mailspool/internal/models"
	"mailspool/internal/queue"
	"mailspool/internal/template"
	"mailspool/internal/transport"
)

// StatusStore receives job status transitions for external observers.
// Writes are best-effort: failures are logged, never fatal.
type StatusStore interface {
	SetStatus(ctx context.Context, jobID string, status models.JobStatus) error
	SetFailure(ctx context.Context, jobID string, errMsg string) error
}

type Config struct {
	// Interval is the time between drain cycles.
	Interval time.Duration

	// SendLimit caps recipients dispatched per job per cycle. It is a
	// per-job ceiling: a cycle with several running jobs can exceed it
	// in aggregate.
	SendLimit int

	// SubjectFallback is used when a recipient's data has no subject.
	SubjectFallback string

	// BodyKind selects text or HTML markup for rendered bodies.
	BodyKind models.BodyKind
}

type Worker struct {
	cfg        Config
	queue      queue.Queue
	transports *transport.Registry
	status     StatusStore
	limiter    *rate.Limiter
	log        *zap.Logger
}

func New(
	cfg Config,
	q queue.Queue,
	transports *transport.Registry,
	status StatusStore,
	limiter *rate.Limiter,
	log *zap.Logger,
) *Worker {
	if cfg.SubjectFallback == "" {
		cfg.SubjectFallback = "No Subject"
	}
	if cfg.BodyKind == "" {
		cfg.BodyKind = models.BodyHTML
	}
	return &Worker{
		cfg:        cfg,
		queue:      q,
		transports: transports,
		status:     status,
		limiter:    limiter,
		log:        log,
	}
}

// Run drives the recurring drain loop until the context is cancelled.
// Each cycle runs to completion before the next tick is consumed, so
// cycles never overlap.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("dispatch worker started",
		zap.Duration("interval", w.cfg.Interval),
		zap.Int("send_limit", w.cfg.SendLimit),
	)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("dispatch worker stopped")
			return
		case <-ticker.C:
			w.DrainCycle(ctx)
		}
	}
}

// DrainCycle executes one full pass over the queue. Exported so tests can
// step the worker without the timer.
func (w *Worker) DrainCycle(ctx context.Context) {
	jobs := w.queue.GetAllJobs()
	metrics.DrainCycles.Inc()
	metrics.QueueDepth.Set(float64(len(jobs)))

	if len(jobs) == 0 {
		return
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		w.runJob(ctx, job)
	}

	metrics.QueueDepth.Set(float64(w.queue.Len()))
}

// runJob isolates one job's processing: a panic or failure here must not
// take down the cycle for the remaining jobs, let alone the timer.
func (w *Worker) runJob(ctx context.Context, job models.MailJob) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("panic while processing mail job",
				zap.String("job_id", job.ID),
				zap.Any("panic", r),
			)
		}
	}()
	w.processJob(ctx, job)
}

func (w *Worker) processJob(ctx context.Context, job models.MailJob) {
	log := w.log.With(zap.String("job_id", job.ID))

	// A job with nothing left to send is finalized without touching the
	// transport. Removal and the completed status are one event.
	if len(job.Recipients) == 0 {
		w.queue.RemoveJob(job.ID)
		w.writeStatus(ctx, job.ID, models.StatusCompleted)
		metrics.JobsCompleted.Inc()
		log.Info("job had no recipients, finalized as completed")
		return
	}

	if w.queue.UpdateStatus(job.ID, models.StatusRunning) {
		w.writeStatus(ctx, job.ID, models.StatusRunning)
	}

	limit := w.cfg.SendLimit
	if limit > len(job.Recipients) {
		limit = len(job.Recipients)
	}
	toSend := job.Recipients[:limit]
	remaining := job.Recipients[limit:]

	batch := make([]models.RenderedMessage, 0, len(toSend))
	for _, r := range toSend {
		subject := r.Data["subject"]
		if subject == "" {
			subject = w.cfg.SubjectFallback
		}
		batch = append(batch, models.RenderedMessage{
			To:      r.Email,
			Subject: subject,
			Body:    template.Render(job.TemplateBody, r.Data),
		})
	}

	log.Info("dispatching batch",
		zap.Int("batch_size", len(batch)),
		zap.Int("remaining", len(remaining)),
	)

	if err := w.sendBatch(ctx, job.SenderID, batch); err != nil {
		// The job keeps its full recipient set: a failed batch is never
		// partially consumed, and there is no automatic retry. External
		// resubmission is required.
		log.Error("batch send failed", zap.Error(err))
		w.writeFailure(ctx, job.ID, err.Error())
		metrics.SendFailures.Inc()
		metrics.JobsFailed.Inc()
		return
	}

	metrics.MailsSent.Add(float64(len(batch)))

	if len(remaining) == 0 {
		w.queue.RemoveJob(job.ID)
		w.writeStatus(ctx, job.ID, models.StatusCompleted)
		metrics.JobsCompleted.Inc()
		log.Info("job fully processed, removed from queue")
		return
	}

	job.Recipients = remaining
	w.queue.UpdateJob(job.ID, job)
	log.Info("job partially processed, remainder re-queued",
		zap.Int("remaining", len(remaining)),
	)
}

func (w *Worker) sendBatch(ctx context.Context, senderID string, batch []models.RenderedMessage) error {
	tr, err := w.transports.Lookup(senderID)
	if err != nil {
		return err
	}
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return tr.SendBatch(ctx, batch, w.cfg.BodyKind)
}

func (w *Worker) writeStatus(ctx context.Context, jobID string, status models.JobStatus) {
	if err := w.status.SetStatus(ctx, jobID, status); err != nil {
		w.log.Error("failed to write job status",
			zap.String("job_id", jobID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

func (w *Worker) writeFailure(ctx context.Context, jobID string, errMsg string) {
	if err := w.status.SetFailure(ctx, jobID, errMsg); err != nil {
		w.log.Error("failed to write job failure",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
	}
}
