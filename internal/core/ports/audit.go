package ports

import (
	"context"

	"github.com/eventplanner/event-api/internal/core/domain"
)

// AuditSink accepts audit entries. Implementations must not block the caller
// on storage I/O.
type AuditSink interface {
	Record(entry domain.AuditEntry)
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, entry domain.AuditEntry) error
}
