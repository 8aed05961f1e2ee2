package repository

import (
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// persistenceError tags a driver failure so callers can match it with
// errors.Is(err, domain.ErrPersistence)
func persistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, domain.ErrPersistence.WithError(err))
}

// decodeRow reports false for a blob that is not a descriptor. Such a row
// can never match, so it is logged and left out instead of failing the load.
func decodeRow(logger *slog.Logger, id int64, identity string, raw []byte) (domain.Descriptor, bool) {
	descriptor, err := domain.DecodeDescriptor(raw)
	if err != nil {
		logger.Warn("skipping undecodable descriptor",
			slog.Int64("record_id", id),
			slog.String("identity", identity),
			slog.Int("bytes", len(raw)),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return descriptor, true
}

func storeLogger(logger *slog.Logger, backend string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", "store", "backend", backend)
}
