// Package handler exposes the public submission and content endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"blkout/internal/content/models"
	"blkout/internal/content/store"
	dErrors "blkout/pkg/domain-errors"
	"blkout/pkg/platform/httputil"
	"blkout/pkg/requestcontext"
)

// Service defines the content operations the handler needs.
type Service interface {
	Submit(ctx context.Context, channel models.Channel, kindHint models.Kind, raw map[string]any) (*models.Record, error)
	Get(ctx context.Context, id string) (*models.Record, error)
	Update(ctx context.Context, id string, patch store.Patch) (*models.Record, error)
	Delete(ctx context.Context, id string) error
	ListPublished(ctx context.Context, f store.Filter) ([]*models.Record, int, error)
	ListAll(ctx context.Context, f store.Filter) ([]*models.Record, int, error)
	RecordView(ctx context.Context, id string) (*models.Record, error)
	RecordLike(ctx context.Context, id string) (*models.Record, error)
	RecordRSVP(ctx context.Context, id string) (*models.Record, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the content routes. The caller wires the shared middleware
// chain; optional moderator resolution on /content is wired by the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/submissions", h.handleSubmit)
	r.Patch("/submissions/{id}", h.handleUpdate)
	r.Delete("/submissions/{id}", h.handleDelete)

	r.Get("/content", h.handleList)
	r.Get("/content/{id}", h.handleGet)
	r.Post("/content/{id}/view", h.handleView)
	r.Post("/content/{id}/like", h.handleLike)
	r.Post("/content/{id}/rsvp", h.handleRSVP)
}

type submitResponse struct {
	Success bool          `json:"success"`
	ID      string        `json:"id"`
	Status  models.Status `json:"status"`
	Message string        `json:"message"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rec, err := h.service.Submit(ctx, submissionChannel(r), "", raw)
	if err != nil {
		h.logWarn(ctx, "submission rejected", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, submitResponse{
		Success: true,
		ID:      rec.ID,
		Status:  rec.Status,
		Message: "submission received and queued for moderation",
	})
}

// submissionChannel infers the originating surface. The Chrome extension and
// webhook senders identify themselves with X-API-Source; browsers do not.
func submissionChannel(r *http.Request) models.Channel {
	switch strings.ToLower(r.Header.Get("X-API-Source")) {
	case "chrome-extension":
		return models.ChannelExtension
	case "webhook":
		return models.ChannelWebhook
	case "manual":
		return models.ChannelManual
	default:
		return models.ChannelWebForm
	}
}

// updateRequest is the PATCH body. Unknown fields are rejected, which is what
// keeps id, kind, status and the counters immutable through this endpoint.
type updateRequest struct {
	Title    *string          `json:"title"`
	Category *string          `json:"category"`
	Featured *bool            `json:"featured"`
	Priority *string          `json:"priority"`
	Tags     []string         `json:"tags"`
	Location *models.Location `json:"location"`

	Description     *string `json:"description"`
	Date            *string `json:"date"`
	StartTime       *string `json:"time"`
	DurationMinutes *int    `json:"duration"`
	Organizer       *string `json:"organizer"`
	Capacity        *int    `json:"capacity"`

	Excerpt *string `json:"excerpt"`
	Content *string `json:"content"`
	Author  *string `json:"author"`

	SourceURL *string `json:"sourceUrl"`
}

func (req updateRequest) toPatch() (store.Patch, error) {
	patch := store.Patch{
		Title:           req.Title,
		Category:        req.Category,
		Featured:        req.Featured,
		Tags:            req.Tags,
		Location:        req.Location,
		Description:     req.Description,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Organizer:       req.Organizer,
		Capacity:        req.Capacity,
		Excerpt:         req.Excerpt,
		Content:         req.Content,
		Author:          req.Author,
		SourceURL:       req.SourceURL,
	}
	if req.Priority != nil {
		p := models.Priority(*req.Priority)
		switch p {
		case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
			patch.Priority = &p
		default:
			return store.Patch{}, dErrors.New(dErrors.CodeBadRequest, "priority must be low, medium or high").
				WithFields(map[string]string{"priority": "must be low, medium or high"})
		}
	}
	return patch, nil
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req updateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body: "+err.Error()))
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Update(ctx, id, patch)
	if err != nil {
		h.logWarn(ctx, "update rejected", err)
		httputil.WriteError(w, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.logWarn(ctx, "delete rejected", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

type listResponse struct {
	Success bool             `json:"success"`
	Items   []*models.Record `json:"items"`
	Total   int              `json:"total"`
	HasMore bool             `json:"hasMore"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// Anonymous callers only ever see published records; moderators may
	// filter by any status.
	var (
		items []*models.Record
		total int
	)
	if requestcontext.Moderator(ctx) != "" {
		items, total, err = h.service.ListAll(ctx, filter)
	} else {
		items, total, err = h.service.ListPublished(ctx, filter)
	}
	if err != nil {
		h.logWarn(ctx, "list failed", err)
		httputil.WriteError(w, err)
		return
	}

	if items == nil {
		items = []*models.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{
		Success: true,
		Items:   items,
		Total:   total,
		HasMore: filter.Offset+len(items) < total,
	})
}

func filterFromQuery(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	var f store.Filter

	if kind := q.Get("kind"); kind != "" {
		parsed, err := models.ParseKind(kind)
		if err != nil {
			return f, err
		}
		f.Kind = parsed
	}
	if status := q.Get("status"); status != "" {
		st := models.Status(status)
		if !st.Valid() {
			return f, dErrors.Newf(dErrors.CodeBadRequest, "unknown status %q", status)
		}
		f.Statuses = []models.Status{st}
	}
	f.Category = q.Get("category")
	if featured := q.Get("featured"); featured != "" {
		v, err := strconv.ParseBool(featured)
		if err != nil {
			return f, dErrors.New(dErrors.CodeBadRequest, "featured must be true or false")
		}
		f.Featured = &v
	}

	var err error
	if f.Limit, err = intParam(q.Get("limit"), 20); err != nil {
		return f, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
	}
	if f.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		return f, dErrors.New(dErrors.CodeBadRequest, "offset must be a non-negative integer")
	}
	return f, nil
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid integer")
	}
	return v, nil
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	// Unpublished records are invisible to anonymous callers.
	if rec.Status != models.StatusPublished && requestcontext.Moderator(ctx) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "submission not found"))
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	h.handleEngagement(w, r, h.service.RecordView)
}

func (h *Handler) handleLike(w http.ResponseWriter, r *http.Request) {
	h.handleEngagement(w, r, h.service.RecordLike)
}

func (h *Handler) handleRSVP(w http.ResponseWriter, r *http.Request) {
	h.handleEngagement(w, r, h.service.RecordRSVP)
}

func (h *Handler) handleEngagement(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (*models.Record, error)) {
	ctx := r.Context()
	rec, err := op(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.logWarn(ctx, "engagement rejected", err)
		httputil.WriteError(w, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

type recordResponse struct {
	Success bool           `json:"success"`
	Record  *models.Record `json:"record"`
}

func writeRecord(w http.ResponseWriter, status int, rec *models.Record) {
	httputil.WriteJSON(w, status, recordResponse{Success: true, Record: rec})
}

func (h *Handler) logWarn(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}
