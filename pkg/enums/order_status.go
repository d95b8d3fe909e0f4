package enums

import "fmt"

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusReceived         OrderStatus = "Received"
	OrderStatusPacked           OrderStatus = "Packed"
	OrderStatusWaitingForPickup OrderStatus = "Waiting for Pickup"
	OrderStatusInTransit        OrderStatus = "In Transit"
	OrderStatusOutForDelivery   OrderStatus = "Out for Delivery"
	OrderStatusDelivered        OrderStatus = "Delivered"
	OrderStatusCancelled        OrderStatus = "Cancelled"
	OrderStatusReturned         OrderStatus = "Returned"
)

// forwardOrderStatuses lists the linear fulfillment path, earliest first.
var forwardOrderStatuses = []OrderStatus{
	OrderStatusReceived,
	OrderStatusPacked,
	OrderStatusWaitingForPickup,
	OrderStatusInTransit,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

var validOrderStatuses = append(append([]OrderStatus{}, forwardOrderStatuses...),
	OrderStatusCancelled,
	OrderStatusReturned,
)

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status is Cancelled or Returned.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusReturned
}

// Rank returns the position of the status on the forward path, or -1 for
// terminal and unknown statuses.
func (s OrderStatus) Rank() int {
	for i, candidate := range forwardOrderStatuses {
		if candidate == s {
			return i
		}
	}
	return -1
}

// ForwardOrderStatuses returns a copy of the linear fulfillment path.
func ForwardOrderStatuses() []OrderStatus {
	return append([]OrderStatus{}, forwardOrderStatuses...)
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
