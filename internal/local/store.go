// Package local persists the player profile to a single file on device
// storage. It is the fallback path when there is no connectivity and the
// source of the default profile on first launch.
package local

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/player-progress/internal/domain"
)

// Store reads and writes one serialized profile blob.
type Store struct {
	path       string
	levelCount int
	logger     *slog.Logger
}

// NewStore creates a local store writing to path.
func NewStore(path string, levelCount int, logger *slog.Logger) *Store {
	return &Store{
		path:       path,
		levelCount: levelCount,
		logger:     logger,
	}
}

// Load returns the previously saved profile, or a default profile if no
// save exists. A corrupt save is treated the same as a missing one; local
// data loss is a tolerated degraded mode.
func (s *Store) Load() *domain.PlayerProfile {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read local save, starting fresh", "path", s.path, "error", err)
		}
		return s.defaultProfile()
	}

	var profile domain.PlayerProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		s.logger.Warn("corrupt local save, starting fresh", "path", s.path, "error", err)
		return s.defaultProfile()
	}

	profile.Normalize(s.levelCount)
	return &profile
}

// Save overwrites the blob with the full profile. The write goes through a
// temp file and rename so a crash never leaves a partial save behind.
func (s *Store) Save(profile *domain.PlayerProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating save directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".profile-*")
	if err != nil {
		return fmt.Errorf("creating temp save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp save: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing save file: %w", err)
	}
	return nil
}

func (s *Store) defaultProfile() *domain.PlayerProfile {
	return domain.NewProfile(s.levelCount)
}
