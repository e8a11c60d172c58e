package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"timeclock/internal/accounting"
	"timeclock/internal/ledger"
	"timeclock/internal/metrics"
	"timeclock/internal/models"
	"timeclock/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Submitter records scans and summarizes a subject's day.
type Submitter interface {
	Submit(ctx context.Context, req models.ScanRequest) (service.Result, error)
	Today(ctx context.Context, subjectID string) (service.DayReport, error)
}

// Syncer replays the offline queue.
type Syncer interface {
	Sweep(ctx context.Context) (service.SyncReport, error)
}

// QueueReader lists what is waiting to sync.
type QueueReader interface {
	Pending() []models.PendingSubmission
}

// CacheRebuilder refreshes the local lookup cache.
type CacheRebuilder interface {
	Rebuild(ctx context.Context) (models.LookupCache, error)
}

// Handler holds the dependencies of the admin endpoints.
type Handler struct {
	submitter Submitter
	syncer    Syncer
	queue     QueueReader
	cache     CacheRebuilder
	logger    *zerolog.Logger
}

func NewHandler(submitter Submitter, syncer Syncer, queue QueueReader, cache CacheRebuilder, logger *zerolog.Logger) *Handler {
	return &Handler{
		submitter: submitter,
		syncer:    syncer,
		queue:     queue,
		cache:     cache,
		logger:    logger,
	}
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error            string `json:"error"`
	Details          string `json:"details,omitempty"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
}

type queueResponse struct {
	Pending int                        `json:"pending"`
	Items   []models.PendingSubmission `json:"items"`
}

type cacheResponse struct {
	Subjects      int    `json:"subjects"`
	Activities    int    `json:"activities"`
	Orders        int    `json:"orders"`
	LastRefreshed string `json:"last_refreshed"`
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// SubmitScan handles POST /api/v1/scans.
func (h *Handler) SubmitScan(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("scans")

	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.submitter.Submit(r.Context(), req)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, err error) {
	var cooldown *accounting.CooldownError
	switch {
	case errors.As(err, &cooldown):
		w.Header().Set("Retry-After", strconv.Itoa(cooldown.Seconds()))
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Error:            "cooldown active",
			RemainingSeconds: cooldown.Seconds(),
		})
	case errors.Is(err, models.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "invalid barcode", err)
	case errors.Is(err, service.ErrSubjectNotFound):
		writeError(w, http.StatusNotFound, "subject not found", err)
	case errors.Is(err, accounting.ErrHistoryUnavailable):
		writeError(w, http.StatusServiceUnavailable, "ledger history unavailable", err)
	default:
		h.logger.Error().Err(err).Msg("scan submission failed")
		writeError(w, http.StatusInternalServerError, "submission failed", err)
	}
}

// Sync handles POST /api/v1/sync.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("sync")

	report, err := h.syncer.Sweep(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("manual sync failed")
		writeError(w, http.StatusInternalServerError, "sync failed", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Queue handles GET /api/v1/queue.
func (h *Handler) Queue(w http.ResponseWriter, _ *http.Request) {
	metrics.IncHTTP("queue")

	items := h.queue.Pending()
	if items == nil {
		items = []models.PendingSubmission{}
	}
	writeJSON(w, http.StatusOK, queueResponse{Pending: len(items), Items: items})
}

// RefreshCache handles POST /api/v1/cache/refresh.
func (h *Handler) RefreshCache(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cache_refresh")

	c, err := h.cache.Rebuild(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ledger.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, "cache refresh failed", err)
		return
	}
	writeJSON(w, http.StatusOK, cacheResponse{
		Subjects:      len(c.Subjects),
		Activities:    len(c.Activities),
		Orders:        len(c.Orders),
		LastRefreshed: c.LastRefreshed.Format(time.RFC3339),
	})
}

// Today handles GET /api/v1/subjects/{code}/today.
func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("today")

	code := models.NormalizeCode(chi.URLParam(r, "code"))
	if err := models.ValidateCode(code); err != nil {
		writeError(w, http.StatusBadRequest, "invalid barcode", err)
		return
	}
	report, err := h.submitter.Today(r.Context(), code)
	if err != nil {
		h.logger.Error().Err(err).Str("subject_id", code).Msg("day summary failed")
		writeError(w, http.StatusInternalServerError, "day summary failed", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
