package repository

import (
	"context"
	"log/slog"

	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// PostgresStore keeps descriptors in PostgreSQL. The bytea encoding column is
// what matching reads; the pgvector embedding column only backs SearchNearest.
type PostgresStore struct {
	pool    PgxPool
	logger  *slog.Logger
	closeFn func()
}

func NewPostgresStore(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool, logger: storeLogger(nil, "postgres")}
}

func (s *PostgresStore) WithLogger(logger *slog.Logger) *PostgresStore {
	s.logger = storeLogger(logger, "postgres")
	return s
}

// WithCloser registers the function Close runs, usually pgxpool.Pool.Close
func (s *PostgresStore) WithCloser(fn func()) *PostgresStore {
	s.closeFn = fn
	return s
}

func (s *PostgresStore) Put(ctx context.Context, identity string, descriptor domain.Descriptor) (*domain.EnrollmentRecord, error) {
	record := domain.EnrollmentRecord{
		Identity:   identity,
		Descriptor: descriptor.Clone(),
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (name, encoding, dim, embedding, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := s.pool.QueryRow(ctx, query,
		record.Identity,
		record.Descriptor.Encode(),
		record.Descriptor.Dim(),
		pgvector.NewVector(record.Descriptor.Float32()),
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		return nil, persistenceError("put descriptor", err)
	}

	return &record, nil
}

func (s *PostgresStore) LoadAll(ctx context.Context) ([]domain.EnrollmentRecord, error) {
	query := `
		SELECT id, name, encoding, created_at
		FROM users
		ORDER BY id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, persistenceError("load descriptors", err)
	}
	defer rows.Close()

	records := make([]domain.EnrollmentRecord, 0)
	for rows.Next() {
		var (
			record domain.EnrollmentRecord
			raw    []byte
		)
		if err := rows.Scan(&record.ID, &record.Identity, &raw, &record.CreatedAt); err != nil {
			return nil, persistenceError("scan descriptor", err)
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

// SearchNearest orders descriptors of the probe's dimension by L2 distance.
// pgvector stores float32, so distances can differ from the matcher's in the
// last few digits.
func (s *PostgresStore) SearchNearest(ctx context.Context, probe domain.Descriptor, limit int) ([]domain.Neighbor, error) {
	if len(probe) == 0 {
		return nil, domain.ErrInvalidDescriptor
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, name, embedding <-> $1 AS distance
		FROM users
		WHERE dim = $2
		ORDER BY distance
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(probe.Float32()), probe.Dim(), limit)
	if err != nil {
		return nil, persistenceError("search nearest", err)
	}
	defer rows.Close()

	neighbors := make([]domain.Neighbor, 0, limit)
	for rows.Next() {
		var n domain.Neighbor
		if err := rows.Scan(&n.ID, &n.Identity, &n.Distance); err != nil {
			return nil, persistenceError("scan neighbor", err)
		}
		neighbors = append(neighbors, n)
	}

	if err := rows.Err(); err != nil {
		return nil, persistenceError("iterate neighbors", err)
	}

	return neighbors, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, persistenceError("count descriptors", err)
	}
	return count, nil
}

// ListIdentities returns each distinct identity once, ordered by first enrollment
func (s *PostgresStore) ListIdentities(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM users GROUP BY name ORDER BY MIN(id)`)
	if err != nil {
		return nil, persistenceError("list identities", err)
	}
	defer rows.Close()

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

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
