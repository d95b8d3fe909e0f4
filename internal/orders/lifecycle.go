package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/enums"
)

// CanAdvance reports whether an order may move forward from one status to
// another. Skipping intermediate steps is allowed; moving backwards or away
// from a terminal status is not.
func CanAdvance(from, to enums.OrderStatus) bool {
	fromRank, toRank := from.Rank(), to.Rank()
	if fromRank < 0 || toRank < 0 {
		return false
	}
	return toRank > fromRank
}

// CanTerminate reports whether an order in the given status may still be
// cancelled or returned.
func CanTerminate(from enums.OrderStatus) bool {
	return from.Rank() >= 0 && from != enums.OrderStatusDelivered
}

// NextStatuses lists the forward statuses reachable from the given one.
func NextStatuses(from enums.OrderStatus) []enums.OrderStatus {
	rank := from.Rank()
	if rank < 0 {
		return []enums.OrderStatus{}
	}
	forward := enums.ForwardOrderStatuses()
	return forward[rank+1:]
}

// appendHistory adds a status entry stamped with now, clamped so it never
// precedes the previous entry.
func appendHistory(history []models.HistoryEntry, status enums.OrderStatus, actorID uuid.UUID, note *string, now time.Time) []models.HistoryEntry {
	at := now.UTC()
	if n := len(history); n > 0 && history[n-1].At.After(at) {
		at = history[n-1].At
	}
	out := make([]models.HistoryEntry, 0, len(history)+1)
	out = append(out, history...)
	return append(out, models.HistoryEntry{
		Status: status,
		At:     at,
		By:     actorID,
		Note:   note,
	})
}
