package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// DescriptorStore persists enrollment records. Records are append-only and
// LoadAll returns them in insertion order.
type DescriptorStore interface {
	Put(ctx context.Context, identity string, descriptor domain.Descriptor) (*domain.EnrollmentRecord, error)
	LoadAll(ctx context.Context) ([]domain.EnrollmentRecord, error)
}

// Inventory answers the read-only questions asked by the list command
type Inventory interface {
	Count(ctx context.Context) (int, error)
	ListIdentities(ctx context.Context) ([]string, error)
}

// NearestSearcher ranks stored descriptors by distance inside the database
type NearestSearcher interface {
	SearchNearest(ctx context.Context, probe domain.Descriptor, limit int) ([]domain.Neighbor, error)
}

// Store is everything a backend offers the CLI
type Store interface {
	DescriptorStore
	Inventory
	Close() error
}

// PgxPool is the subset of *pgxpool.Pool the PostgreSQL store needs
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}
