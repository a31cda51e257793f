// Package transport sends batches of rendered messages to the upstream
// mail system. One outbound call carries the whole batch; retry policy
// lives entirely in the dispatch worker, never here.
package transport

import (
	"context"
	"errors"
	"fmt"

	"mailspool/internal/models"
)

// ErrSend wraps any upstream send failure, carrying the transport detail.
var ErrSend = errors.New("transport: send failed")

// ErrUnknownSender is returned for sender ids with no configured profile.
var ErrUnknownSender = errors.New("transport: unknown sender id")

// Transport sends one batch of rendered messages in a single upstream
// request. Implementations do not retry internally.
type Transport interface {
	SendBatch(ctx context.Context, messages []models.RenderedMessage, kind models.BodyKind) error
}

// Registry maps sender profiles to their transports. Exactly one profile
// is configured today; submission validation rejects everything else.
type Registry struct {
	profiles map[string]Transport
}

func NewRegistry() *Registry {
	return &Registry{profiles: make(map[string]Transport)}
}

func (r *Registry) Register(senderID string, t Transport) {
	r.profiles[senderID] = t
}

func (r *Registry) Lookup(senderID string) (Transport, error) {
	t, ok := r.profiles[senderID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSender, senderID)
	}
	return t, nil
}
