package auth

import (
	"context"
	"strings"
	"sync"
)

// Holder is a provider whose token can be replaced while the process runs.
// The dashboard server stores the most recent caller's token in one so the
// background polling session keeps authenticating as that caller.
type Holder struct {
	mu    sync.RWMutex
	token string
}

// Set replaces the held token. An empty token clears it.
func (h *Holder) Set(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token returns the held token, or ErrNoToken.
func (h *Holder) Token(context.Context) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.token == "" {
		return "", ErrNoToken
	}
	return h.token, nil
}
