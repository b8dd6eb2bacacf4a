package notify

import (
	"context"
	"sync"
	"time"
)

// DeliveryAttempt records one webhook delivery outcome for a submission.
type DeliveryAttempt struct {
	Platform    string    `json:"platform"`
	Workflow    string    `json:"workflow"`
	Delivered   bool      `json:"delivered"`
	Error       string    `json:"error,omitempty"`
	AttemptedAt time.Time `json:"attemptedAt"`
}

// DeliveryLogStore keeps the per-record delivery trail so operators can answer
// "did the approval webhook fire for this event".
type DeliveryLogStore interface {
	Append(ctx context.Context, recordID string, attempt DeliveryAttempt) error
	List(ctx context.Context, recordID string) ([]DeliveryAttempt, error)
}

// MemoryDeliveryLog keeps attempts in process memory.
type MemoryDeliveryLog struct {
	mu       sync.Mutex
	attempts map[string][]DeliveryAttempt
}

var _ DeliveryLogStore = (*MemoryDeliveryLog)(nil)

func NewMemoryDeliveryLog() *MemoryDeliveryLog {
	return &MemoryDeliveryLog{attempts: make(map[string][]DeliveryAttempt)}
}

func (l *MemoryDeliveryLog) Append(ctx context.Context, recordID string, attempt DeliveryAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts[recordID] = append(l.attempts[recordID], attempt)
	return nil
}

func (l *MemoryDeliveryLog) List(ctx context.Context, recordID string) ([]DeliveryAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]DeliveryAttempt(nil), l.attempts[recordID]...), nil
}
