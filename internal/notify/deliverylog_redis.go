package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const deliveryLogTTL = 30 * 24 * time.Hour

// RedisDeliveryLog persists delivery attempts in Redis, one list per record,
// expiring after thirty days.
type RedisDeliveryLog struct {
	client *redis.Client
}

var _ DeliveryLogStore = (*RedisDeliveryLog)(nil)

func NewRedisDeliveryLog(client *redis.Client) *RedisDeliveryLog {
	return &RedisDeliveryLog{client: client}
}

func deliveryKey(recordID string) string {
	return "notify:deliveries:" + recordID
}

func (l *RedisDeliveryLog) Append(ctx context.Context, recordID string, attempt DeliveryAttempt) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("encode delivery attempt: %w", err)
	}

	key := deliveryKey(recordID)
	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, deliveryLogTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append delivery attempt: %w", err)
	}
	return nil
}

func (l *RedisDeliveryLog) List(ctx context.Context, recordID string) ([]DeliveryAttempt, error) {
	raw, err := l.client.LRange(ctx, deliveryKey(recordID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list delivery attempts: %w", err)
	}
	attempts := make([]DeliveryAttempt, 0, len(raw))
	for _, item := range raw {
		var attempt DeliveryAttempt
		if err := json.Unmarshal([]byte(item), &attempt); err != nil {
			return nil, fmt.Errorf("decode delivery attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}
