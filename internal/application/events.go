package application

import "context"

// Event types published on the iam-events topic.
const (
	EventTenantProvisioned = "TENANT_PROVISIONED"
	EventUserCreated       = "USER_CREATED"
	EventUserUpdated       = "USER_UPDATED"
	EventUserDeleted       = "USER_DELETED"
	EventPasswordChanged   = "PASSWORD_CHANGED"
	EventSyncInconsistent  = "SYNC_INCONSISTENT"
)

// Event is a lifecycle notification emitted after a state change has been
// applied. Delivery is best-effort: event publication never fails the
// operation that produced it.
type Event struct {
	Type      string
	TenantKey string
	Payload   map[string]any
}

// Publisher pushes lifecycle events to downstream consumers.
// Implementation lives in internal/events (Kafka); NopPublisher is used
// when no brokers are configured.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
