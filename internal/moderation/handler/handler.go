// Package handler exposes the moderator-facing endpoints. The router wraps
// every route here with RequireModerator.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	content "blkout/internal/content/models"
	"blkout/internal/moderation/models"
	"blkout/internal/moderation/service"
	dErrors "blkout/pkg/domain-errors"
	"blkout/pkg/platform/httputil"
	"blkout/pkg/requestcontext"
)

// Service defines the moderation operations the handler needs.
type Service interface {
	Queue(ctx context.Context, limit, offset int) ([]models.QueueItem, int, error)
	Approve(ctx context.Context, id string) (*content.Record, error)
	Publish(ctx context.Context, id string) (*content.Record, error)
	Reject(ctx context.Context, id, reason string) (*content.Record, error)
	BatchApprove(ctx context.Context, ids []string) ([]service.BatchResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the moderation routes on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/moderation/queue", h.handleQueue)
	r.Post("/moderation/{id}/approve", h.handleApprove)
	r.Post("/moderation/{id}/reject", h.handleReject)
	r.Post("/moderation/{id}/publish", h.handlePublish)
	r.Post("/moderation/batch/approve", h.handleBatchApprove)
}

type queueResponse struct {
	Success bool               `json:"success"`
	Items   []models.QueueItem `json:"items"`
	Total   int                `json:"total"`
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := 50, 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}

	items, total, err := h.service.Queue(ctx, limit, offset)
	if err != nil {
		h.logError(ctx, "queue listing failed", err)
		httputil.WriteError(w, err)
		return
	}
	if items == nil {
		items = []models.QueueItem{}
	}
	httputil.WriteJSON(w, http.StatusOK, queueResponse{Success: true, Items: items, Total: total})
}

type recordResponse struct {
	Success bool            `json:"success"`
	Record  *content.Record `json:"record"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleAction(w, r, "approve", func(ctx context.Context, id string) (*content.Record, error) {
		return h.service.Approve(ctx, id)
	})
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	h.handleAction(w, r, "publish", func(ctx context.Context, id string) (*content.Record, error) {
		return h.service.Publish(ctx, id)
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rec, err := h.service.Reject(ctx, id, req.Reason)
	if err != nil {
		h.logWarn(ctx, "rejection refused", id, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordResponse{Success: true, Record: rec})
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request, action string, op func(context.Context, string) (*content.Record, error)) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	rec, err := op(ctx, id)
	if err != nil {
		h.logWarn(ctx, action+" refused", id, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordResponse{Success: true, Record: rec})
}

type batchApproveRequest struct {
	IDs []string `json:"ids"`
}

type batchApproveResponse struct {
	Success bool                  `json:"success"`
	Results []service.BatchResult `json:"results"`
}

func (h *Handler) handleBatchApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req batchApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	results, err := h.service.BatchApprove(ctx, req.IDs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, batchApproveResponse{Success: true, Results: results})
}

func (h *Handler) logWarn(ctx context.Context, msg, id string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"submission_id", id,
		"moderator", requestcontext.Moderator(ctx),
		"error", err.Error(),
	)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}
