// Package credentials holds the long-lived bot access token used for
// outbound Graph API calls. The token can be replaced at runtime (admin
// endpoint or a watched token file) without restarting the process.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNoCredential is returned by Current when no token is configured.
	ErrNoCredential = errors.New("credentials: bot token not configured")

	// ErrNoTokenFile is returned by Reload when no token file is configured.
	ErrNoTokenFile = errors.New("credentials: no token file configured")

	// ErrEmptyToken is returned when a blank token is supplied.
	ErrEmptyToken = errors.New("credentials: token must not be empty")
)

// Provider is the read side used by the webhook dispatcher.
type Provider interface {
	Current() (string, error)
}

// Status describes the configured token without exposing it.
type Status struct {
	Configured bool      `json:"hasBotToken"`
	Preview    string    `json:"tokenPreview"`
	Source     string    `json:"source,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// Reloadable is a Provider whose token can be swapped concurrently with
// reads. There is a single writer at a time.
type Reloadable struct {
	mu        sync.RWMutex
	token     string
	source    string
	updatedAt time.Time
	path      string
}

// New returns a Reloadable seeded with token. When path is non-empty and
// token is blank, the token is read from path.
func New(token, path string) (*Reloadable, error) {
	r := &Reloadable{path: path}
	token = strings.TrimSpace(token)
	if token != "" {
		r.store(token, "env")
		return r, nil
	}
	if path != "" {
		if err := r.Reload(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Current returns the active token.
func (r *Reloadable) Current() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.token == "" {
		return "", ErrNoCredential
	}
	return r.token, nil
}

// Set replaces the active token.
func (r *Reloadable) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	r.store(token, "admin")
	return nil
}

// Reload re-reads the token file.
func (r *Reloadable) Reload() error {
	if r.path == "" {
		return ErrNoTokenFile
	}
	b, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return ErrEmptyToken
	}
	r.store(token, "file")
	return nil
}

// Path returns the watched token file, if any.
func (r *Reloadable) Path() string { return r.path }

// Status reports whether a token is set and a masked preview of it.
func (r *Reloadable) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.token == "" {
		return Status{Preview: "Not configured"}
	}
	return Status{
		Configured: true,
		Preview:    Mask(r.token),
		Source:     r.source,
		UpdatedAt:  r.updatedAt,
	}
}

func (r *Reloadable) store(token, source string) {
	r.mu.Lock()
	r.token = token
	r.source = source
	r.updatedAt = time.Now().UTC()
	r.mu.Unlock()
}

// Mask keeps the first 10 characters of a token.
func Mask(token string) string {
	if len(token) <= 10 {
		return strings.Repeat("*", len(token))
	}
	return token[:10] + "..."
}

var _ Provider = (*Reloadable)(nil)
