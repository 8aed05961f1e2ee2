package session

import (
	"context"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
)

// recordAudit writes event to the audit trail. A failed write is logged and
// never interrupts the session.
func recordAudit(ctx context.Context, auditor audit.Logger, logger *slog.Logger, event audit.Event) {
	if err := auditor.Log(ctx, event); err != nil {
		logger.Warn("failed to write audit event", "event_type", event.EventType, "error", err)
	}
}
