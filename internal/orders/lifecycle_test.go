package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/enums"
)

func TestCanAdvance(t *testing.T) {
	cases := []struct {
		from, to enums.OrderStatus
		want     bool
	}{
		{enums.OrderStatusReceived, enums.OrderStatusPacked, true},
		{enums.OrderStatusReceived, enums.OrderStatusDelivered, true},
		{enums.OrderStatusInTransit, enums.OrderStatusPacked, false},
		{enums.OrderStatusPacked, enums.OrderStatusPacked, false},
		{enums.OrderStatusDelivered, enums.OrderStatusReceived, false},
		{enums.OrderStatusCancelled, enums.OrderStatusPacked, false},
		{enums.OrderStatusReceived, enums.OrderStatusCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanAdvance(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCanTerminate(t *testing.T) {
	for _, status := range enums.ForwardOrderStatuses() {
		assert.Equal(t, status != enums.OrderStatusDelivered, CanTerminate(status), status)
	}
	assert.False(t, CanTerminate(enums.OrderStatusCancelled))
	assert.False(t, CanTerminate(enums.OrderStatusReturned))
}

func TestNextStatuses(t *testing.T) {
	assert.Equal(t, []enums.OrderStatus{
		enums.OrderStatusOutForDelivery,
		enums.OrderStatusDelivered,
	}, NextStatuses(enums.OrderStatusInTransit))
	assert.Empty(t, NextStatuses(enums.OrderStatusDelivered))
	assert.Empty(t, NextStatuses(enums.OrderStatusReturned))
}

func TestAppendHistoryClampsBackwardsClock(t *testing.T) {
	actor := uuid.New()
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	history := appendHistory(nil, enums.OrderStatusReceived, actor, nil, first)
	history = appendHistory(history, enums.OrderStatusPacked, actor, nil, first.Add(-time.Hour))
	history = appendHistory(history, enums.OrderStatusInTransit, actor, nil, first.Add(time.Minute))

	require.Len(t, history, 3)
	assert.Equal(t, first, history[1].At)
	assert.Equal(t, first.Add(time.Minute), history[2].At)
	assertHistoryOrdered(t, history)
}

func assertHistoryOrdered(t *testing.T, history []models.HistoryEntry) {
	t.Helper()
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].At.Before(history[i-1].At), "history[%d] precedes history[%d]", i, i-1)
	}
}

func TestNewPublicID(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		id, err := NewPublicID(0)
		require.NoError(t, err)
		require.Len(t, id, defaultPublicIDLength)
		for _, r := range id {
			assert.Contains(t, publicIDAlphabet, string(r))
		}
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 200)

	id, err := NewPublicID(16)
	require.NoError(t, err)
	assert.Len(t, id, 16)
}
