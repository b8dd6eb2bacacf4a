//go:build integration

package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blkout/internal/notify"
	"blkout/pkg/testutil/containers"
)

func TestRedisDeliveryLog(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rc := containers.StartRedis(t)
	log := notify.NewRedisDeliveryLog(rc.Client)
	ctx := context.Background()

	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, log.Append(ctx, "rec-1", notify.DeliveryAttempt{
		Platform:    "n8n",
		Workflow:    "event-approved",
		Delivered:   true,
		AttemptedAt: now,
	}))
	require.NoError(t, log.Append(ctx, "rec-1", notify.DeliveryAttempt{
		Platform:    "zapier",
		Workflow:    "event-approved",
		Delivered:   false,
		Error:       "webhook returned 500",
		AttemptedAt: now,
	}))

	attempts, err := log.List(ctx, "rec-1")
	require.NoError(t, err)
	require.Len(t, attempts, 2, "attempts keep append order")
	assert.Equal(t, "n8n", attempts[0].Platform)
	assert.True(t, attempts[0].Delivered)
	assert.Equal(t, "zapier", attempts[1].Platform)
	assert.Equal(t, "webhook returned 500", attempts[1].Error)

	empty, err := log.List(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
