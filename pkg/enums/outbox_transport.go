package enums

import (
	"fmt"
	"strings"
)

// OutboxTransport selects where the outbox publisher delivers events.
type OutboxTransport string

const (
	OutboxTransportRedis  OutboxTransport = "redis"
	OutboxTransportPubSub OutboxTransport = "pubsub"
)

var validOutboxTransports = []OutboxTransport{
	OutboxTransportRedis,
	OutboxTransportPubSub,
}

// IsValid reports whether the value is a known transport.
func (t OutboxTransport) IsValid() bool {
	for _, candidate := range validOutboxTransports {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOutboxTransport converts raw input into OutboxTransport.
func ParseOutboxTransport(value string) (OutboxTransport, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validOutboxTransports {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox transport %q", value)
}
