package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// SQLiteStore keeps descriptors in the users table of a local SQLite file.
// Tables created by earlier tools have rows without created_at; those load
// with a zero CreatedAt.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, logger: storeLogger(nil, "sqlite")}
}

func (s *SQLiteStore) WithLogger(logger *slog.Logger) *SQLiteStore {
	s.logger = storeLogger(logger, "sqlite")
	return s
}

func (s *SQLiteStore) Put(ctx context.Context, identity string, descriptor domain.Descriptor) (*domain.EnrollmentRecord, error) {
	record := domain.EnrollmentRecord{
		Identity:   identity,
		Descriptor: descriptor.Clone(),
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	query := `INSERT INTO users (name, encoding, created_at) VALUES (?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query, record.Identity, record.Descriptor.Encode(), record.CreatedAt)
	if err != nil {
		return nil, persistenceError("put descriptor", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, persistenceError("put descriptor", err)
	}
	record.ID = id

	return &record, nil
}

func (s *SQLiteStore) LoadAll(ctx context.Context) ([]domain.EnrollmentRecord, error) {
	query := `SELECT id, name, encoding, created_at FROM users ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistenceError("load descriptors", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]domain.EnrollmentRecord, 0)
	for rows.Next() {
		var (
			record    domain.EnrollmentRecord
			raw       []byte
			createdAt sql.NullTime
		)
		if err := rows.Scan(&record.ID, &record.Identity, &raw, &createdAt); err != nil {
			return nil, persistenceError("scan descriptor", err)
		}
		if createdAt.Valid {
			record.CreatedAt = createdAt.Time
		}

		descriptor, ok := decodeRow(s.logger, record.ID, record.Identity, raw)
		if !ok {
			continue
		}
		record.Descriptor = descriptor
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, persistenceError("iterate descriptors", err)
	}

	return records, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, persistenceError("count descriptors", err)
	}
	return count, nil
}

// ListIdentities returns each distinct identity once, ordered by first enrollment
func (s *SQLiteStore) ListIdentities(ctx context.Context) ([]string, error) {
	query := `SELECT name FROM users GROUP BY name ORDER BY MIN(id)`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistenceError("list identities", err)
	}
	defer func() { _ = rows.Close() }()

	identities := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, persistenceError("scan identity", err)
		}
		identities = append(identities, name)
	}

	if err := rows.Err(); err != nil {
		return nil, persistenceError("iterate identities", err)
	}

	return identities, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
