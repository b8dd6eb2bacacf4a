// Package normalizer converts heterogeneous submission payloads into the
// canonical Record shape. Each channel names fields differently (the Chrome
// extension sends "time" and "sourceUrl", web forms send "start_time" and
// "source_url", webhook senders use supabase column names), so lookups go
// through alias lists instead of a single struct decode.
package normalizer

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"blkout/internal/content/models"
	dErrors "blkout/pkg/domain-errors"
	pstrings "blkout/pkg/platform/strings"
)

// CommunityTag marks submissions that arrived without explicit tags; the
// moderation queue surfaces it as a flag.
const CommunityTag = "community-submitted"

type Normalizer struct{}

func New() *Normalizer { return &Normalizer{} }

// Normalize builds a Record from a raw payload. The kind must be present in
// the payload ("kind" or legacy "type") unless kindHint is non-empty (set by
// kind-specific endpoints). No partial records: any validation failure returns
// a bad_request error with field details and no record.
func (n *Normalizer) Normalize(channel models.Channel, kindHint models.Kind, raw map[string]any) (*models.Record, error) {
	kind := kindHint
	if kindRaw := str(raw, "kind", "type"); kindRaw != "" {
		parsed, err := models.ParseKind(kindRaw)
		if err != nil {
			return nil, err
		}
		if kind != "" && parsed != kind {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "payload kind %q does not match endpoint kind %q", parsed, kind)
		}
		kind = parsed
	}
	if kind == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "kind is required").
			WithFields(map[string]string{"kind": "required"})
	}

	rec := &models.Record{
		Kind:         kind,
		Status:       defaultStatus(channel),
		Title:        strings.TrimSpace(str(raw, "title", "name")),
		SubmittedVia: channel,
		Priority:     models.PriorityMedium,
		Category:     str(raw, "category"),
		Tags:         pstrings.DedupeTags(strs(raw, "tags")),
		Featured:     boolean(raw, "featured"),
	}

	if via := str(raw, "submittedVia", "submitted_via"); via != "" {
		rec.SubmittedVia = models.Channel(via)
	}
	if p := str(raw, "priority"); p != "" {
		rec.Priority = models.Priority(p)
	}
	if s := str(raw, "status"); s != "" {
		status := models.Status(s)
		if !status.AwaitingModeration() {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "submissions cannot start in status %q", s).
				WithFields(map[string]string{"status": "must be draft or pending"})
		}
		rec.Status = status
	}
	if len(rec.Tags) == 0 {
		rec.Tags = []string{CommunityTag}
	}

	switch kind {
	case models.KindEvent:
		rec.Event = eventDetails(raw)
	case models.KindArticle:
		rec.Article = articleDetails(raw)
	}

	if err := n.validate(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func defaultStatus(channel models.Channel) models.Status {
	// Extension and webhook submissions start as drafts; attended channels
	// (web form, manual entry) go straight to the pending queue.
	switch channel {
	case models.ChannelExtension, models.ChannelWebhook:
		return models.StatusDraft
	default:
		return models.StatusPending
	}
}

func eventDetails(raw map[string]any) *models.EventDetails {
	details := &models.EventDetails{
		Description:     str(raw, "description"),
		Date:            str(raw, "date", "event_date"),
		StartTime:       str(raw, "time", "start_time", "startTime"),
		DurationMinutes: num(raw, "duration"),
		Organizer:       str(raw, "organizer", "organizer_name"),
		Capacity:        num(raw, "capacity"),
		SourceURL:       str(raw, "sourceUrl", "source_url", "url"),
	}
	details.Location = location(raw)
	return details
}

func articleDetails(raw map[string]any) *models.ArticleDetails {
	details := &models.ArticleDetails{
		Excerpt:   str(raw, "excerpt"),
		Content:   str(raw, "content", "body"),
		Author:    str(raw, "author", "author_name"),
		SourceURL: str(raw, "sourceUrl", "source_url", "url"),
	}
	if details.Content == "" {
		details.Content = details.Excerpt
	}
	return details
}

func location(raw map[string]any) models.Location {
	switch v := raw["location"].(type) {
	case string:
		if v == "" {
			return models.Location{Type: "physical", Address: "TBD"}
		}
		return models.Location{Type: "physical", Address: v}
	case map[string]any:
		loc := models.Location{
			Type:    str(v, "type"),
			Address: str(v, "address"),
		}
		if loc.Type == "" {
			loc.Type = "physical"
		}
		if loc.Address == "" && loc.Type != "online" {
			loc.Address = "TBD"
		}
		return loc
	default:
		return models.Location{Type: "physical", Address: "TBD"}
	}
}

var (
	validPriorities = []any{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}
	validChannels   = []any{models.ChannelWebForm, models.ChannelExtension, models.ChannelManual, models.ChannelWebhook}
)

func (n *Normalizer) validate(rec *models.Record) error {
	err := validation.ValidateStruct(rec,
		validation.Field(&rec.Title, validation.Required.Error("required")),
		validation.Field(&rec.SubmittedVia, validation.In(validChannels...).Error("unknown channel")),
		validation.Field(&rec.Priority, validation.In(validPriorities...).Error("must be low, medium or high")),
	)
	if err == nil && rec.Event != nil {
		err = validation.ValidateStruct(rec.Event,
			validation.Field(&rec.Event.Date, validation.Date("2006-01-02").Error("must be YYYY-MM-DD")),
			validation.Field(&rec.Event.StartTime, validation.Date("15:04").Error("must be HH:MM")),
			validation.Field(&rec.Event.DurationMinutes, validation.Min(0).Error("must not be negative")),
			validation.Field(&rec.Event.Capacity, validation.Min(0).Error("must not be negative")),
		)
	}
	if err == nil {
		return nil
	}

	fields := map[string]string{}
	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			fields[field] = ferr.Error()
		}
	}
	return dErrors.New(dErrors.CodeBadRequest, "invalid submission").WithFields(fields)
}

func str(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func num(raw map[string]any, keys ...string) int {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case float64: // encoding/json decodes numbers as float64
			return int(v)
		case int:
			return v
		}
	}
	return 0
}

func boolean(raw map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := raw[k].(bool); ok {
			return v
		}
	}
	return false
}

func strs(raw map[string]any, key string) []string {
	switch v := raw[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
