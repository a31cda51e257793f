package models

import "time"

type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// BodyKind selects how the transport marks up message bodies.
type BodyKind string

const (
	BodyText BodyKind = "text"
	BodyHTML BodyKind = "html"
)

// Recipient is one destination address plus the data used to render
// its copy of the template.
type Recipient struct {
	Email string            `json:"email"`
	Data  map[string]string `json:"data,omitempty"`
}

// MailJob is one bulk send request. Recipients shrinks as the worker
// drains the job across cycles; order is preserved so a partial send
// resumes where it left off.
type MailJob struct {
	ID           string      `json:"id"`
	TemplateBody string      `json:"template_body"`
	SenderID     string      `json:"sender_id"`
	Recipients   []Recipient `json:"recipients"`

	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	// RemainingCount mirrors len(Recipients) for observability only.
	RemainingCount int `json:"remaining_count"`
}

// RenderedMessage is a single ready-to-send email.
type RenderedMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Clone returns a copy whose recipient slice does not alias the receiver's.
func (j MailJob) Clone() MailJob {
	out := j
	out.Recipients = make([]Recipient, len(j.Recipients))
	copy(out.Recipients, j.Recipients)
	return out
}
