package ports

import (
	"context"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// AuditPublisher hands auth events to the asynchronous audit pipeline.
// Publish must not block the calling request.
type AuditPublisher interface {
	Publish(event domain.AuthEvent)
}

// AuditRepository persists auth events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event domain.AuthEvent) error
}
