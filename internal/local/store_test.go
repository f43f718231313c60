package local

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/player-progress/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "profile.json"), 10, testLogger())

	profile := store.Load()
	require.NotNil(t, profile)
	assert.Equal(t, 0, profile.Coins)
	assert.Len(t, profile.Levels, 10)
	assert.True(t, profile.Levels[0].Unlocked)
	assert.Equal(t, []int{0}, profile.UnlockedSkinIDs)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "profile.json"), 5, testLogger())

	profile := domain.NewProfile(5)
	profile.Username = "ana"
	profile.Coins = 33
	profile.UnlockedSkinIDs = []int{0, 4}
	profile.CurrentSkinID = 4
	profile.Levels[0].Stars = 3
	profile.Levels[0].BestTime = 12.5
	profile.Levels[1].Unlocked = true

	require.NoError(t, store.Save(profile))

	loaded := store.Load()
	assert.Equal(t, profile, loaded)
}

func TestLoadCorruptFileReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewStore(path, 5, testLogger())
	profile := store.Load()
	require.NotNil(t, profile)
	assert.Equal(t, 0, profile.Coins)
	assert.Len(t, profile.Levels, 5)
}

func TestLoadNormalizesShortSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	old := NewStore(path, 3, testLogger())

	profile := domain.NewProfile(3)
	profile.Levels[2].Stars = 2
	require.NoError(t, old.Save(profile))

	// A content update grows the level list; old saves are padded.
	store := NewStore(path, 6, testLogger())
	loaded := store.Load()
	require.Len(t, loaded.Levels, 6)
	assert.Equal(t, 2, loaded.Levels[2].Stars)
	assert.Equal(t, 5, loaded.Levels[5].Index)
	assert.False(t, loaded.Levels[5].Unlocked)
}

func TestSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "saves", "profile.json")
	store := NewStore(path, 5, testLogger())

	require.NoError(t, store.Save(domain.NewProfile(5)))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
