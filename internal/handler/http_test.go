package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/player-progress/internal/connectivity"
	"github.com/player-progress/internal/domain"
	"github.com/player-progress/internal/progress"
	"github.com/player-progress/internal/session"
	"github.com/player-progress/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memLocal struct {
	profile *domain.PlayerProfile
}

func (m *memLocal) Load() *domain.PlayerProfile {
	if m.profile == nil {
		return domain.NewProfile(5)
	}
	return m.profile.Clone()
}

func (m *memLocal) Save(profile *domain.PlayerProfile) error {
	m.profile = profile.Clone()
	return nil
}

type memIdentity struct{ uid string }

func (m *memIdentity) UserID() string { return m.uid }
func (m *memIdentity) LogOut()        { m.uid = "" }

type noopWriter struct{}

func (noopWriter) Enqueue(op worker.Op) bool { return true }

func newTestServer(t *testing.T, initialize bool) (*httptest.Server, *progress.Service) {
	t.Helper()
	sess := session.New(session.Options{
		Local:      &memLocal{},
		Writer:     noopWriter{},
		Probe:      connectivity.Always(false),
		Identity:   &memIdentity{uid: "user-1"},
		LevelCount: 5,
		Logger:     testLogger(),
	})
	if initialize {
		require.NoError(t, sess.Initialize(context.Background(), nil))
	}
	facade := progress.NewService(sess, nil, nil, nil, nil, nil, testLogger())
	h := NewHandler(facade, nil, testLogger())
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv, facade
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, APIResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.Success)

	// Not ready until the initial load has run.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ready, _ := newTestServer(t, true)
	resp, _ = doJSON(t, http.MethodGet, ready.URL+"/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCompleteLevelEndpoint(t *testing.T) {
	srv, facade := newTestServer(t, true)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/levels/0/complete", map[string]interface{}{
		"stars":        2,
		"best_time":    12.5,
		"coins_earned": 3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, body.Success)

	level := body.Data.(map[string]interface{})
	assert.Equal(t, float64(2), level["stars"])
	assert.Equal(t, 12.5, level["bestTime"])
	assert.Equal(t, 3, facade.Session().Coins())

	next, err := facade.Session().Level(1)
	require.NoError(t, err)
	assert.True(t, next.Unlocked)
}

func TestCompleteLevelBadRequests(t *testing.T) {
	srv, _ := newTestServer(t, true)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/levels/99/complete", map[string]interface{}{"stars": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/levels/0/complete", bytes.NewBufferString("{broken"))
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/levels/not-a-number/", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCoinEndpoints(t *testing.T) {
	srv, facade := newTestServer(t, true)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/coins/add", map[string]int{"amount": 10})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(10), body.Data.(map[string]interface{})["coins"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/coins/spend", map[string]int{"amount": 4})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 6, facade.Session().Coins())

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/coins/spend", map[string]int{"amount": 100})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/coins/add", map[string]int{"amount": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSkinEndpoints(t *testing.T) {
	srv, facade := newTestServer(t, true)
	facade.AddCoins(20)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/skins/buy", map[string]int{"id": 3, "price": 15})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, facade.Session().SelectedSkinID())

	// Buying an owned skin is a conflict, not a crash.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/skins/buy", map[string]int{"id": 3, "price": 15})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/skins/select", map[string]int{"id": 0})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, facade.Session().SelectedSkinID())

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/skins/select", map[string]int{"id": 9})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUsernameEndpoint(t *testing.T) {
	srv, facade := newTestServer(t, true)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/username", map[string]string{"username": "ana"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ana", facade.Session().Username())

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/username", map[string]string{"username": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProfileEndpoints(t *testing.T) {
	srv, facade := newTestServer(t, true)
	require.NoError(t, facade.CompleteLevel(context.Background(), 0, 3, 10.0, 0, false))

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/profile/stars", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body.Data.(map[string]interface{})["total_stars"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/levels/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body.Data.([]interface{}), 5)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/levels/4/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/levels/5/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
