// Package token caches the bearer token for the mail transport. The cache
// is process-wide state: valid tokens are served from memory, expired ones
// trigger a refresh-token grant against the OAuth endpoint, and every
// successful refresh is persisted so restarts survive without re-auth.
package token

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrRefresh wraps any failure to obtain a fresh access token. Callers
// treat it as a hard failure for the current send attempt.
var ErrRefresh = errors.New("token: refresh failed")

type Config struct {
	// FilePath is where token state is persisted between runs.
	FilePath string

	// TokenURL, ClientID and Scopes configure the refresh-token grant.
	TokenURL string
	ClientID string
	Scopes   []string

	// RefreshMaxElapsed bounds retries of a single refresh attempt.
	RefreshMaxElapsed time.Duration
}

type Cache struct {
	cfg   Config
	oauth oauth2.Config
	log   *zap.Logger

	mu    sync.Mutex
	state StoredToken
}

// NewCache loads persisted token state if present. A missing file is not
// an error: the first AccessToken call will refresh from whatever
// bootstrap refresh token the file (or config) eventually provides.
func NewCache(cfg Config, log *zap.Logger) (*Cache, error) {
	c := &Cache{
		cfg: cfg,
		oauth: oauth2.Config{
			ClientID: cfg.ClientID,
			Scopes:   cfg.Scopes,
			Endpoint: oauth2.Endpoint{TokenURL: cfg.TokenURL},
		},
		log: log,
	}

	state, err := LoadStoredToken(cfg.FilePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		log.Info("no persisted token state, starting empty", zap.String("path", cfg.FilePath))
		return c, nil
	}

	c.state = state
	log.Info("loaded persisted token state",
		zap.String("path", cfg.FilePath),
		zap.Time("expires_at", state.Expiry),
	)
	return c, nil
}

// AccessToken returns a usable bearer token, refreshing it first when the
// cached one is empty or expired. Refreshes are serialized under the cache
// mutex: concurrent callers during a refresh all observe its single result
// rather than racing rotated refresh tokens against each other.
func (c *Cache) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid() {
		return c.state.AccessToken, nil
	}

	c.log.Info("access token expired, refreshing", zap.Time("expired_at", c.state.Expiry))
	if err := c.refreshLocked(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefresh, err)
	}

	c.log.Info("access token refreshed", zap.Time("expires_at", c.state.Expiry))
	return c.state.AccessToken, nil
}

// valid must be called with c.mu held.
func (c *Cache) valid() bool {
	return c.state.AccessToken != "" && time.Now().Before(c.state.Expiry)
}

// refreshLocked exchanges the cached refresh token for a new access token,
// retrying transient failures with exponential backoff, and persists the
// rotated state. Must be called with c.mu held.
func (c *Cache) refreshLocked(ctx context.Context) error {
	var refreshed *oauth2.Token

	operation := func() error {
		src := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: c.state.RefreshToken})
		tok, err := src.Token()
		if err != nil {
			return err
		}
		refreshed = tok
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = c.cfg.RefreshMaxElapsed
	if b.MaxElapsedTime == 0 {
		b.MaxElapsedTime = 10 * time.Second
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return err
	}

	c.state.AccessToken = refreshed.AccessToken
	if refreshed.RefreshToken != "" {
		// The endpoint rotates refresh tokens; keep the old one otherwise.
		c.state.RefreshToken = refreshed.RefreshToken
	}
	c.state.Expiry = refreshed.Expiry

	if err := SaveStoredToken(c.cfg.FilePath, c.state); err != nil {
		// The in-memory token is good; only restart resilience is degraded.
		c.log.Error("failed to persist token state", zap.Error(err))
	}
	return nil
}
