// Package auth manages the stable anonymous user identity that keys the
// remote profile document.
package auth

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Identity holds the signed-in user id for the process lifetime.
// An empty id means "not signed in" and short-circuits remote operations.
type Identity struct {
	mu     sync.RWMutex
	uid    string
	path   string
	logger *slog.Logger
}

// NewIdentity creates an identity backed by a file at path.
func NewIdentity(path string, logger *slog.Logger) *Identity {
	return &Identity{
		path:   path,
		logger: logger,
	}
}

// SignIn loads the persisted identity, generating and persisting a fresh
// one on first launch. The generated id plays the role of an anonymous
// account: it survives restarts but not a log-out.
func (i *Identity) SignIn() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	data, err := os.ReadFile(i.path)
	if err == nil {
		uid := strings.TrimSpace(string(data))
		if uid != "" {
			i.uid = uid
			return uid, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	uid := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(i.path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(i.path, []byte(uid), 0o600); err != nil {
		return "", err
	}
	i.uid = uid
	i.logger.Info("created anonymous identity", "uid", uid)
	return uid, nil
}

// UserID returns the current user id, or "" when not signed in.
func (i *Identity) UserID() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.uid
}

// LogOut clears the authenticated identity. Remote operations issued
// afterwards are short-circuited until the next SignIn.
func (i *Identity) LogOut() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.uid = ""
	if err := os.Remove(i.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		i.logger.Warn("failed to remove identity file", "error", err)
	}
}
