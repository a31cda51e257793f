package queue

import (
	"sync"

	"mailspool/internal/models"
)

// MemoryQueue is an ordered in-memory job queue guarded by a single mutex.
// Submission and the worker's drain cycle touch it concurrently, so every
// operation takes the lock for its whole effect.
type MemoryQueue struct {
	mu   sync.Mutex
	jobs []models.MailJob
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Enqueue(id string, job models.MailJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.indexOf(id) >= 0 {
		return ErrDuplicateID
	}

	job.ID = id
	job.RemainingCount = len(job.Recipients)
	q.jobs = append(q.jobs, job.Clone())
	return nil
}

func (q *MemoryQueue) Dequeue() (models.MailJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return models.MailJob{}, false
	}
	head := q.jobs[0]
	q.jobs = append(q.jobs[:0:0], q.jobs[1:]...)
	return head, true
}

func (q *MemoryQueue) Peek() (models.MailJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return models.MailJob{}, false
	}
	return q.jobs[0].Clone(), true
}

func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *MemoryQueue) UpdateJob(id string, job models.MailJob) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(id)
	if i < 0 {
		return
	}
	job.ID = id
	job.RemainingCount = len(job.Recipients)
	q.jobs[i] = job.Clone()
}

func (q *MemoryQueue) UpdateStatus(id string, status models.JobStatus) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(id)
	if i < 0 || q.jobs[i].Status == status {
		return false
	}
	q.jobs[i].Status = status
	return true
}

func (q *MemoryQueue) RemoveJob(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(id)
	if i < 0 {
		return
	}
	q.jobs = append(q.jobs[:i:i], q.jobs[i+1:]...)
}

func (q *MemoryQueue) GetAllJobs() []models.MailJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.MailJob, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j.Clone())
	}
	return out
}

// indexOf must be called with q.mu held.
func (q *MemoryQueue) indexOf(id string) int {
	for i, j := range q.jobs {
		if j.ID == id {
			return i
		}
	}
	return -1
}
