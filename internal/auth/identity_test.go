package auth

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSignInGeneratesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity")
	identity := NewIdentity(path, testLogger())

	assert.Equal(t, "", identity.UserID())

	uid, err := identity.SignIn()
	require.NoError(t, err)
	assert.NotEmpty(t, uid)
	assert.Equal(t, uid, identity.UserID())

	// A second process start finds the same id.
	again := NewIdentity(path, testLogger())
	uid2, err := again.SignIn()
	require.NoError(t, err)
	assert.Equal(t, uid, uid2)
}

func TestLogOutClearsIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity")
	identity := NewIdentity(path, testLogger())

	uid, err := identity.SignIn()
	require.NoError(t, err)

	identity.LogOut()
	assert.Equal(t, "", identity.UserID())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// Signing in again mints a fresh anonymous account.
	uid2, err := identity.SignIn()
	require.NoError(t, err)
	assert.NotEqual(t, uid, uid2)
}

func TestSignInIgnoresEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	identity := NewIdentity(path, testLogger())
	uid, err := identity.SignIn()
	require.NoError(t, err)
	assert.NotEmpty(t, uid)
}
