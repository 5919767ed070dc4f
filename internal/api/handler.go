// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"showcase-sync/internal/apperrors"
	"showcase-sync/internal/catalog"
	"showcase-sync/internal/model"
	"showcase-sync/internal/syncer"
)

// Catalog is the read/admin surface of the entry store used by the API.
type Catalog interface {
	List(ctx context.Context, params catalog.ListParams) (*catalog.ListResult, error)
	FindByFullName(ctx context.Context, fullName string) (*model.CatalogEntry, error)
	IncrementViews(ctx context.Context, entryID int64) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	LastSynced(ctx context.Context) (time.Time, error)
}

// SyncService triggers sync runs.
type SyncService interface {
	SyncAll(ctx context.Context) (*model.SyncResult, error)
	SyncOne(ctx context.Context, name string) (int64, error)
}

// GitHub is the credential/quota surface of the API client.
type GitHub interface {
	FetchRateLimit(ctx context.Context) model.RateLimit
	TestToken(ctx context.Context, token string) model.TokenTestResult
}

// Rescheduler lets the settings-update path change the sync frequency.
type Rescheduler interface {
	Reschedule(frequency string) error
}

// Handler is the container for API dependencies.
type Handler struct {
	catalog   Catalog
	sync      SyncService
	gh        GitHub
	scheduler Rescheduler
	lock      *syncer.RunLock
	logger    *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(cat Catalog, sync SyncService, gh GitHub, scheduler Rescheduler, lock *syncer.RunLock, logger *slog.Logger) http.Handler {
	h := &Handler{
		catalog:   cat,
		sync:      sync,
		gh:        gh,
		scheduler: scheduler,
		lock:      lock,
		logger:    logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute)) // sync runs are slow

	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/sync", h.syncAll)
		r.Post("/sync/{name}", h.syncOne)
		r.Get("/plugins", h.listPlugins)
		r.Get("/plugins/{owner}/{name}", h.getPlugin)
		r.Delete("/plugins", h.deleteAll)
		r.Get("/status", h.status)
		r.Get("/rate-limit", h.rateLimit)
		r.Post("/token/test", h.testToken)
		r.Put("/settings/sync-frequency", h.updateFrequency)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// syncAll triggers a full sync run.
// POST /v1/sync
func (h *Handler) syncAll(w http.ResponseWriter, r *http.Request) {
	if !h.lock.TryAcquire() {
		respondWithError(w, http.StatusConflict, "A sync is already in progress")
		return
	}
	defer h.lock.Release()

	result, err := h.sync.SyncAll(r.Context())
	if err != nil {
		var cfgErr *apperrors.ConfigError
		if errors.As(err, &cfgErr) {
			respondWithError(w, http.StatusUnprocessableEntity, cfgErr.Error())
			return
		}
		h.logger.Error("Sync run failed", "error", err)
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// syncOne syncs a single named repository, bypassing classification.
// POST /v1/sync/{name}
func (h *Handler) syncOne(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	entryID, err := h.sync.SyncOne(r.Context(), name)
	if err != nil {
		var apiErr *apperrors.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			respondWithError(w, http.StatusNotFound, "Repository not found")
			return
		}
		h.logger.Error("Single-repo sync failed", "repo", name, "error", err)
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message":  "Repository synced successfully",
		"entry_id": entryID,
	})
}

// listPlugins returns a filtered page of catalog entries.
// GET /v1/plugins?search=&category=&per_page=&page=
func (h *Handler) listPlugins(w http.ResponseWriter, r *http.Request) {
	params := catalog.ListParams{
		Search:  r.URL.Query().Get("search"),
		Tag:     r.URL.Query().Get("category"),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 12),
	}
	if params.PerPage > 100 {
		params.PerPage = 100
	}

	result, err := h.catalog.List(r.Context(), params)
	if err != nil {
		h.logger.Error("Failed to list entries", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// getPlugin returns a single entry and counts the view. The counter belongs
// to this read path; sync never touches it.
// GET /v1/plugins/{owner}/{name}
func (h *Handler) getPlugin(w http.ResponseWriter, r *http.Request) {
	fullName := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")

	entry, err := h.catalog.FindByFullName(r.Context(), fullName)
	if err != nil {
		h.logger.Error("Failed to get entry", "full_name", fullName, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if entry == nil {
		respondWithError(w, http.StatusNotFound, "Plugin not found")
		return
	}

	if views, err := h.catalog.IncrementViews(r.Context(), entry.ID); err == nil {
		entry.ViewCount = views
	} else {
		h.logger.Warn("Failed to increment views", "entry_id", entry.ID, "error", err)
	}

	respondWithJSON(w, http.StatusOK, entry)
}

// deleteAll removes every catalog entry.
// DELETE /v1/plugins
func (h *Handler) deleteAll(w http.ResponseWriter, r *http.Request) {
	count, err := h.catalog.DeleteAll(r.Context())
	if err != nil {
		h.logger.Error("Failed to delete entries", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"count": count})
}

// status reports the last completed sync time.
// GET /v1/status
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	lastSynced, err := h.catalog.LastSynced(r.Context())
	if err != nil {
		h.logger.Error("Failed to read last sync time", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := map[string]any{"last_synced_at": nil}
	if !lastSynced.IsZero() {
		resp["last_synced_at"] = lastSynced.UTC().Format(time.RFC3339)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// rateLimit reports a freshly fetched quota, falling back to the persisted
// snapshot when GitHub is unreachable.
// GET /v1/rate-limit
func (h *Handler) rateLimit(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.gh.FetchRateLimit(r.Context()))
}

// testToken validates a credential against the API.
// POST /v1/token/test
func (h *Handler) testToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		respondWithError(w, http.StatusBadRequest, "No token provided")
		return
	}

	respondWithJSON(w, http.StatusOK, h.gh.TestToken(r.Context(), body.Token))
}

// updateFrequency changes the scheduled-sync frequency.
// PUT /v1/settings/sync-frequency
func (h *Handler) updateFrequency(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Frequency string `json:"frequency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.scheduler.Reschedule(body.Frequency); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"frequency": body.Frequency})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}
