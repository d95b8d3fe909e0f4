package enums

import "fmt"

// OutboxAggregateType names the entity an outbox event is about.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateProduct OutboxAggregateType = "product"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateProduct,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a domain event written to the outbox.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventOrderCancelled     OutboxEventType = "order_cancelled"
	EventOrderReturned      OutboxEventType = "order_returned"
	EventOrderUpdated       OutboxEventType = "order_updated"
	EventStockAdjusted      OutboxEventType = "stock_adjusted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderCancelled,
	EventOrderReturned,
	EventOrderUpdated,
	EventStockAdjusted,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
