package token

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StoredToken is the persisted OAuth credential state. It is written back
// after every successful refresh so a process restart can reuse a still
// valid refresh token instead of forcing a fresh grant.
type StoredToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expires_at,omitempty"`
}

func LoadStoredToken(path string) (StoredToken, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return StoredToken{}, err
	}
	var tok StoredToken
	if err := json.Unmarshal(content, &tok); err != nil {
		return StoredToken{}, fmt.Errorf("failed to parse token file: %w", err)
	}
	return tok, nil
}

func SaveStoredToken(path string, tok StoredToken) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token dir: %w", err)
		}
	}
	content, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}
