package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailspool/internal/models"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) AccessToken(ctx context.Context) (string, error) {
	return s.token, s.err
}

func TestEWSSendBatch(t *testing.T) {
	var gotAuth, gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewEWSClient(srv.URL, staticTokens{token: "tok-123"}, 5*time.Second)

	err := client.SendBatch(context.Background(), []models.RenderedMessage{
		{To: "a@x.com", Subject: "Schedule", Body: "Hello Ada"},
		{To: "b@x.com", Subject: "Schedule", Body: "Hello Bob"},
	}, models.BodyHTML)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "text/xml", gotContentType)

	// One envelope carrying every message of the batch.
	assert.Contains(t, gotBody, "m:CreateItem")
	assert.Contains(t, gotBody, `MessageDisposition="SendAndSaveCopy"`)
	assert.Contains(t, gotBody, "a@x.com")
	assert.Contains(t, gotBody, "b@x.com")
	assert.Contains(t, gotBody, "Hello Ada")
	assert.Contains(t, gotBody, "Hello Bob")
	assert.Contains(t, gotBody, `BodyType="HTML"`)
}

func TestEWSSendBatchTextBodyKind(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
	}))
	defer srv.Close()

	client := NewEWSClient(srv.URL, staticTokens{token: "tok"}, 5*time.Second)
	err := client.SendBatch(context.Background(), []models.RenderedMessage{
		{To: "a@x.com", Subject: "s", Body: "plain"},
	}, models.BodyText)
	require.NoError(t, err)
	assert.Contains(t, gotBody, `BodyType="Text"`)
}

func TestEWSSendBatchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "ErrorInvalidRecipients", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewEWSClient(srv.URL, staticTokens{token: "tok"}, 5*time.Second)
	err := client.SendBatch(context.Background(), []models.RenderedMessage{
		{To: "a@x.com", Subject: "s", Body: "b"},
	}, models.BodyText)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSend)
	assert.Contains(t, err.Error(), "ErrorInvalidRecipients")
}

func TestEWSSendBatchTokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("transport must not be called when the token refresh fails")
	}))
	defer srv.Close()

	client := NewEWSClient(srv.URL, staticTokens{err: errors.New("refresh failed")}, 5*time.Second)
	err := client.SendBatch(context.Background(), []models.RenderedMessage{
		{To: "a@x.com", Subject: "s", Body: "b"},
	}, models.BodyText)

	assert.ErrorIs(t, err, ErrSend)
}

func TestEWSSendBatchEmpty(t *testing.T) {
	client := NewEWSClient("http://unused", staticTokens{token: "tok"}, time.Second)
	err := client.SendBatch(context.Background(), nil, models.BodyText)
	assert.ErrorIs(t, err, ErrSend)
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	ews := NewEWSClient("http://unused", staticTokens{token: "tok"}, time.Second)
	reg.Register("VSB", ews)

	got, err := reg.Lookup("VSB")
	require.NoError(t, err)
	assert.Same(t, ews, got)

	_, err = reg.Lookup("OTHER")
	assert.ErrorIs(t, err, ErrUnknownSender)
}
