package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailspool/internal/db"
	"mailspool/internal/models"
	"mailspool/internal/queue"
	"mailspool/internal/transport"
)

type nopTransport struct{}

func (nopTransport) SendBatch(ctx context.Context, messages []models.RenderedMessage, kind models.BodyKind) error {
	return nil
}

type fakeTemplates struct {
	bodies map[string]string
}

func (f fakeTemplates) Resolve(id string) (string, error) {
	body, ok := f.bodies[id]
	if !ok {
		return "", fmt.Errorf("unknown template %q", id)
	}
	return body, nil
}

type fakeMetadata struct {
	submissions map[string]int
	statuses    map[string]db.StatusRecord
}

func newFakeMetadata() *fakeMetadata {
	return &fakeMetadata{
		submissions: map[string]int{},
		statuses:    map[string]db.StatusRecord{},
	}
}

func (f *fakeMetadata) RecordSubmission(ctx context.Context, jobID, senderID, templateID string, recipientCount int) error {
	f.submissions[jobID] = recipientCount
	return nil
}

func (f *fakeMetadata) GetStatus(ctx context.Context, jobID string) (db.StatusRecord, error) {
	rec, ok := f.statuses[jobID]
	if !ok {
		return db.StatusRecord{}, db.ErrNotFound
	}
	return rec, nil
}

func newTestHandler(t *testing.T) (*Handler, *queue.MemoryQueue, *fakeMetadata) {
	t.Helper()
	q := queue.NewMemoryQueue()
	reg := transport.NewRegistry()
	reg.Register("VSB", nopTransport{})
	meta := newFakeMetadata()
	h := &Handler{
		Queue:   q,
		Senders: reg,
		Templates: fakeTemplates{bodies: map[string]string{
			"capstone_invite": "<p>Hi {{ name }}</p>",
		}},
		Store: meta,
		Log:   zap.NewNop(),
	}
	return h, q, meta
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestQueueMail(t *testing.T) {
	h, q, meta := newTestHandler(t)
	mux := h.Routes()

	rec := postJSON(t, mux, "/api/mailer", map[string]any{
		"recipient_list": []string{"a@x.com", "b@x.com"},
		"sender_id":      "VSB",
		"template_id":    "capstone_invite",
		"recipient_data": map[string]map[string]string{
			"a@x.com": {"name": "Ada"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	jobID := resp["queue_id"]
	require.NotEmpty(t, jobID)

	require.Equal(t, 1, q.Len())
	job, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, jobID, job.ID)
	assert.Equal(t, "<p>Hi {{ name }}</p>", job.TemplateBody)
	require.Len(t, job.Recipients, 2)
	assert.Equal(t, "a@x.com", job.Recipients[0].Email)
	assert.Equal(t, map[string]string{"name": "Ada"}, job.Recipients[0].Data)
	assert.Empty(t, job.Recipients[1].Data)

	assert.Equal(t, 2, meta.submissions[jobID])
}

func TestQueueMailValidation(t *testing.T) {
	h, q, _ := newTestHandler(t)
	mux := h.Routes()

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			name: "empty recipient list",
			body: map[string]any{"recipient_list": []string{}, "sender_id": "VSB", "template_id": "capstone_invite"},
			want: "recipient_list",
		},
		{
			name: "unknown sender",
			body: map[string]any{"recipient_list": []string{"a@x.com"}, "sender_id": "NOPE", "template_id": "capstone_invite"},
			want: "sender_id",
		},
		{
			name: "unknown template",
			body: map[string]any{"recipient_list": []string{"a@x.com"}, "sender_id": "VSB", "template_id": "missing"},
			want: "template_id",
		},
		{
			name: "custom templates rejected",
			body: map[string]any{"recipient_list": []string{"a@x.com"}, "sender_id": "VSB", "template_id": "capstone_invite", "use_custom_template": true},
			want: "not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, mux, "/api/mailer", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	assert.Equal(t, 0, q.Len(), "rejected submissions must not enqueue")
}

func TestQueueMailCSV(t *testing.T) {
	h, q, _ := newTestHandler(t)
	mux := h.Routes()

	csvBody := "Email,name\na@x.com,Ada\nb@x.com,Bob\n"
	req := httptest.NewRequest(http.MethodPost,
		"/api/mailer/csv?sender_id=VSB&template_id=capstone_invite",
		strings.NewReader(csvBody),
	)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, q.Len())

	job, ok := q.Peek()
	require.True(t, ok)
	require.Len(t, job.Recipients, 2)
	assert.Equal(t, "Ada", job.Recipients[0].Data["name"])
}

func TestStatusEndpoint(t *testing.T) {
	h, _, meta := newTestHandler(t)
	mux := h.Routes()

	meta.statuses["known"] = db.StatusRecord{Status: models.StatusFailed, Error: "send failed"}

	req := httptest.NewRequest(http.MethodGet, "/api/mailer/known/status", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got db.StatusRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, "send failed", got.Error)

	req = httptest.NewRequest(http.MethodGet, "/api/mailer/unknown/status", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
