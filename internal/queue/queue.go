package queue

import (
	"errors"

	"mailspool/internal/models"
)

// ErrDuplicateID signals an id collision on Enqueue. Job ids come from a
// UUID generator, so hitting this is a programming error, not user input.
var ErrDuplicateID = errors.New("queue: duplicate job id")

// Queue is the contract the dispatch worker and the submission path share.
// The in-memory implementation below is the only one today; a durable
// broker can be slotted in without touching the worker.
type Queue interface {
	// Enqueue appends a job. Fails with ErrDuplicateID if id is already live.
	Enqueue(id string, job models.MailJob) error

	// Dequeue removes and returns the head job. ok is false when empty.
	Dequeue() (job models.MailJob, ok bool)

	// Peek returns the head job without removing it. ok is false when empty.
	Peek() (job models.MailJob, ok bool)

	// Len reports the number of live jobs.
	Len() int

	// UpdateJob replaces the payload for id. Absent ids are a no-op: the
	// worker may race a concurrent removal and must not fail on it.
	UpdateJob(id string, job models.MailJob)

	// UpdateStatus sets the job status and reports whether it changed,
	// letting callers skip redundant external status writes.
	UpdateStatus(id string, status models.JobStatus) bool

	// RemoveJob deletes the job. Absent ids are a no-op.
	RemoveJob(id string)

	// GetAllJobs returns a snapshot of all live jobs in insertion order.
	// Mutating the result never touches queue state.
	GetAllJobs() []models.MailJob
}
