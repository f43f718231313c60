// Package handler is the collaborator-facing boundary: menu and gameplay
// clients query and mutate player progress over HTTP and subscribe to
// record updates over the websocket endpoint.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/player-progress/internal/domain"
	"github.com/player-progress/internal/progress"
	"github.com/player-progress/internal/websocket"
)

// Handler provides HTTP handlers for the progress API
type Handler struct {
	facade *progress.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(facade *progress.Service, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		facade: facade,
		hub:    hub,
		logger: logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	r.Get("/ws", h.HandleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/profile", h.GetProfile)
		r.Get("/profile/stars", h.GetTotalStars)
		r.Get("/rankings", h.GetRankings)

		r.Route("/levels", func(r chi.Router) {
			r.Get("/", h.GetLevels)
			r.Route("/{index}", func(r chi.Router) {
				r.Get("/", h.GetLevel)
				r.Post("/complete", h.CompleteLevel)
				r.Post("/attempts", h.RecordAttempt)
				r.Post("/tries", h.SaveTries)
			})
		})

		r.Post("/coins/add", h.AddCoins)
		r.Post("/coins/spend", h.SpendCoins)
		r.Post("/skins/buy", h.BuySkin)
		r.Post("/skins/select", h.SelectSkin)
		r.Post("/username", h.SetUsername)
		r.Post("/supporter", h.MarkSupporter)
		r.Post("/game-ended", h.MarkGameEnded)
		r.Post("/played-time", h.AddPlayedTime)
		r.Post("/logout", h.LogOut)
	})

	return r
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeRejection maps a facade error onto an HTTP status.
func (h *Handler) writeRejection(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrLevelOutOfRange):
		h.writeError(w, http.StatusNotFound, err)
	case domain.IsRejection(err):
		h.writeError(w, http.StatusConflict, err)
	default:
		h.logger.Error("command failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

func (h *Handler) levelIndex(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "index"))
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck reports whether the initial profile load has completed.
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if !h.facade.Session().Ready() {
		h.writeError(w, http.StatusServiceUnavailable, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// GetProfile returns the full profile snapshot.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.facade.Session().Snapshot())
}

// GetTotalStars returns the star total across all levels.
func (h *Handler) GetTotalStars(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]int{"total_stars": h.facade.Session().TotalStars()})
}

// GetRankings returns the cached global rankings snapshot.
func (h *Handler) GetRankings(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.facade.Session().Rankings())
}

// GetLevels returns every level record.
func (h *Handler) GetLevels(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.facade.Session().Levels())
}

// GetLevel returns one level record.
func (h *Handler) GetLevel(w http.ResponseWriter, r *http.Request) {
	index, err := h.levelIndex(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	level, err := h.facade.Session().Level(index)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	h.writeSuccess(w, level)
}

// CompleteLevel records a finished run.
func (h *Handler) CompleteLevel(w http.ResponseWriter, r *http.Request) {
	index, err := h.levelIndex(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var req struct {
		Stars           int     `json:"stars"`
		BestTime        float64 `json:"best_time"`
		CoinsEarned     int     `json:"coins_earned"`
		TrophyCollected bool    `json:"trophy_collected"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.facade.CompleteLevel(r.Context(), index, req.Stars, req.BestTime, req.CoinsEarned, req.TrophyCollected); err != nil {
		h.writeRejection(w, err)
		return
	}

	level, _ := h.facade.Session().Level(index)
	h.writeSuccess(w, level)
}

// RecordAttempt bumps the attempt counter for a level.
func (h *Handler) RecordAttempt(w http.ResponseWriter, r *http.Request) {
	index, err := h.levelIndex(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if err := h.facade.RecordAttempt(index); err != nil {
		h.writeRejection(w, err)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "recorded"})
}

// SaveTries persists the attempt counter for a level.
func (h *Handler) SaveTries(w http.ResponseWriter, r *http.Request) {
	index, err := h.levelIndex(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if err := h.facade.SaveTries(index); err != nil {
		h.writeRejection(w, err)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "saved"})
}

// AddCoins credits coins.
func (h *Handler) AddCoins(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	h.facade.AddCoins(req.Amount)
	h.writeSuccess(w, map[string]int{"coins": h.facade.Session().Coins()})
}

// SpendCoins debits the balance.
func (h *Handler) SpendCoins(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if !h.facade.SpendCoins(req.Amount) {
		h.writeError(w, http.StatusConflict, domain.ErrInsufficientCoins)
		return
	}
	h.writeSuccess(w, map[string]int{"coins": h.facade.Session().Coins()})
}

// BuySkin purchases and selects a skin.
func (h *Handler) BuySkin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    int `json:"id"`
		Price int `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if err := h.facade.BuySkin(req.ID, req.Price); err != nil {
		h.writeRejection(w, err)
		return
	}
	h.writeSuccess(w, map[string]interface{}{
		"coins":         h.facade.Session().Coins(),
		"selected_skin": h.facade.Session().SelectedSkinID(),
	})
}

// SelectSkin switches the current skin.
func (h *Handler) SelectSkin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if err := h.facade.SelectSkin(req.ID); err != nil {
		h.writeRejection(w, err)
		return
	}
	h.writeSuccess(w, map[string]int{"selected_skin": h.facade.Session().SelectedSkinID()})
}

// SetUsername claims a display name.
func (h *Handler) SetUsername(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if err := h.facade.TrySetUsername(r.Context(), req.Username); err != nil {
		h.writeRejection(w, err)
		return
	}
	h.writeSuccess(w, map[string]string{"username": h.facade.Session().Username()})
}

// MarkSupporter sets the supporter flag.
func (h *Handler) MarkSupporter(w http.ResponseWriter, r *http.Request) {
	h.facade.MarkSupporter()
	h.writeSuccess(w, map[string]string{"status": "saved"})
}

// MarkGameEnded records completion of the final level.
func (h *Handler) MarkGameEnded(w http.ResponseWriter, r *http.Request) {
	h.facade.MarkGameEnded()
	h.writeSuccess(w, map[string]string{"status": "saved"})
}

// AddPlayedTime accumulates play time.
func (h *Handler) AddPlayedTime(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seconds float64 `json:"seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Seconds < 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	h.facade.AddPlayedTime(req.Seconds)
	h.writeSuccess(w, map[string]float64{"total_played_time": h.facade.Session().TotalPlayedTime()})
}

// LogOut clears the authenticated identity.
func (h *Handler) LogOut(w http.ResponseWriter, r *http.Request) {
	h.facade.LogOut()
	h.writeSuccess(w, map[string]string{"status": "logged_out"})
}
