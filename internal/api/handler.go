// Package api is the HTTP boundary of the mailer: job submission and
// status queries. Submission is fire-and-forget — the queue id comes back
// immediately and progress is observable only through the status route.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mailspool/internal/csvparser"
	"mailspool/internal/db"
	"mailspool/internal/models"
	"mailspool/internal/queue"
	"mailspool/internal/transport"
)

// TemplateResolver resolves a template id to its body at submission time.
type TemplateResolver interface {
	Resolve(id string) (string, error)
}

// MetadataStore records submission metadata and serves status queries.
// Implemented by db.Store.
type MetadataStore interface {
	RecordSubmission(ctx context.Context, jobID, senderID, templateID string, recipientCount int) error
	GetStatus(ctx context.Context, jobID string) (db.StatusRecord, error)
}

type Handler struct {
	Queue      queue.Queue
	Senders    *transport.Registry
	Templates  TemplateResolver
	Store      MetadataStore
	Log        *zap.Logger
	MaxCSVRows int
}

// Routes wires the mailer endpoints onto a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/mailer", h.QueueMail)
	mux.HandleFunc("POST /api/mailer/csv", h.QueueMailCSV)
	mux.HandleFunc("GET /api/mailer/{id}/status", h.Status)
	return mux
}

type queueMailRequest struct {
	RecipientList     []string                     `json:"recipient_list"`
	SenderID          string                       `json:"sender_id"`
	TemplateID        string                       `json:"template_id"`
	UseCustomTemplate bool                         `json:"use_custom_template"`
	RecipientData     map[string]map[string]string `json:"recipient_data"`
}

func (h *Handler) QueueMail(w http.ResponseWriter, r *http.Request) {
	var req queueMailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.RecipientList) == 0 {
		writeError(w, http.StatusBadRequest, "recipient_list is required and must be non-empty")
		return
	}
	if req.UseCustomTemplate {
		writeError(w, http.StatusBadRequest, "custom templates are not supported yet")
		return
	}

	recipients := make([]models.Recipient, 0, len(req.RecipientList))
	for _, email := range req.RecipientList {
		recipients = append(recipients, models.Recipient{
			Email: email,
			Data:  req.RecipientData[email],
		})
	}

	h.submit(w, r, req.SenderID, req.TemplateID, recipients)
}

// QueueMailCSV accepts a CSV body with an Email column; the remaining
// columns become per-recipient template data. sender_id and template_id
// arrive as query parameters.
func (h *Handler) QueueMailCSV(w http.ResponseWriter, r *http.Request) {
	recipients, err := csvparser.ParseRecipients(r.Body, h.MaxCSVRows)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.submit(w, r,
		r.URL.Query().Get("sender_id"),
		r.URL.Query().Get("template_id"),
		recipients,
	)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, senderID, templateID string, recipients []models.Recipient) {
	if _, err := h.Senders.Lookup(senderID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid sender_id")
		return
	}

	templateBody, err := h.Templates.Resolve(templateID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template_id")
		return
	}

	jobID := uuid.NewString()
	job := models.MailJob{
		TemplateBody: templateBody,
		SenderID:     senderID,
		Recipients:   recipients,
		Status:       models.StatusQueued,
		CreatedAt:    time.Now(),
	}

	if err := h.Queue.Enqueue(jobID, job); err != nil {
		h.Log.Error("failed to enqueue mail job", zap.String("job_id", jobID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.Store.RecordSubmission(r.Context(), jobID, senderID, templateID, len(recipients)); err != nil {
		// The job is queued and will be processed; only external
		// observability of this id is degraded.
		h.Log.Error("failed to record submission metadata", zap.String("job_id", jobID), zap.Error(err))
	}

	h.Log.Info("mail job queued",
		zap.String("job_id", jobID),
		zap.String("template_id", templateID),
		zap.Int("recipients", len(recipients)),
	)

	writeJSON(w, http.StatusOK, map[string]string{"queue_id": jobID})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	rec, err := h.Store.GetStatus(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown job id")
			return
		}
		h.Log.Error("status lookup failed", zap.String("job_id", jobID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
