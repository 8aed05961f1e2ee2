package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/database"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/matcher"
	"github.com/saturnino-fabrica-de-software/facegate/internal/repository"
)

func newSQLiteStore(t *testing.T) (*repository.SQLiteStore, *sql.DB) {
	t.Helper()

	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "user_database.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, database.DialectSQLite, ""))

	store := repository.NewSQLiteStore(db)
	t.Cleanup(func() { _ = store.Close() })

	return store, db
}

func constant(n int, v float64) domain.Descriptor {
	d := make(domain.Descriptor, n)
	for i := range d {
		d[i] = v
	}
	return d
}

func TestSQLiteStore_PutAndLoadAll(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)

	alice, err := store.Put(ctx, "alice", constant(128, 0.1))
	require.NoError(t, err)
	bob, err := store.Put(ctx, "bob", constant(128, 0.2))
	require.NoError(t, err)
	again, err := store.Put(ctx, "alice", constant(128, 0.3))
	require.NoError(t, err)

	assert.Less(t, alice.ID, bob.ID)
	assert.Less(t, bob.ID, again.ID)

	records, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"alice", "bob", "alice"}, []string{records[0].Identity, records[1].Identity, records[2].Identity})
	assert.Equal(t, constant(128, 0.2), records[1].Descriptor)
	assert.Equal(t, alice.ID, records[0].ID)
	assert.True(t, records[0].CreatedAt.After(before), "created_at should be set")
}

func TestSQLiteStore_LoadAllEmpty(t *testing.T) {
	store, _ := newSQLiteStore(t)

	records, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestSQLiteStore_PutValidation(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		identity   string
		descriptor domain.Descriptor
		wantErr    error
	}{
		{"blank identity", "   ", constant(4, 1), domain.ErrInvalidIdentity},
		{"empty descriptor", "carol", nil, domain.ErrInvalidDescriptor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Put(ctx, tt.identity, tt.descriptor)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSQLiteStore_PutDoesNotAlias(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()

	d := constant(3, 1)
	record, err := store.Put(ctx, "dave", d)
	require.NoError(t, err)

	d[0] = 42
	assert.Equal(t, 1.0, record.Descriptor[0])
}

func TestSQLiteStore_CorruptRowIsSkipped(t *testing.T) {
	store, db := newSQLiteStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "alice", constant(128, 0.1))
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (name, encoding) VALUES (?, ?)`, "broken", []byte{1, 2, 3, 4, 5})
	require.NoError(t, err)
	_, err = store.Put(ctx, "bob", constant(128, 0.4))
	require.NoError(t, err)

	records, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "alice", records[0].Identity)
	assert.Equal(t, "bob", records[1].Identity)

	m := matcher.New(matcher.DefaultThreshold, matcher.Euclidean, nil)
	got := m.Authenticate(constant(128, 0.4), records)
	assert.True(t, got.Matched)
	assert.Equal(t, "bob", got.Identity)
}

func TestSQLiteStore_LegacyDatabase(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "user_database.db"))
	require.NoError(t, err)

	// the table as the original registration script created it
	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, encoding BLOB)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (name, encoding) VALUES (?, ?)`, "alice", constant(128, 0.1).Encode())
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db, database.DialectSQLite, ""))
	store := repository.NewSQLiteStore(db)
	t.Cleanup(func() { _ = store.Close() })

	records, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0].Identity)
	assert.True(t, records[0].CreatedAt.IsZero())
	assert.Equal(t, constant(128, 0.1), records[0].Descriptor)

	bob, err := store.Put(ctx, "bob", constant(128, 0.2))
	require.NoError(t, err)
	assert.Equal(t, int64(2), bob.ID)

	records, err = store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[1].CreatedAt.IsZero())
}

func TestSQLiteStore_ClosedDatabase(t *testing.T) {
	store, db := newSQLiteStore(t)
	require.NoError(t, db.Close())

	ctx := context.Background()

	_, err := store.Put(ctx, "erin", constant(2, 0))
	assert.ErrorIs(t, err, domain.ErrPersistence)

	_, err = store.LoadAll(ctx)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestSQLiteStore_Inventory(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()

	for _, name := range []string{"zoe", "adam", "zoe", "mia"} {
		_, err := store.Put(ctx, name, constant(2, 0.5))
		require.NoError(t, err)
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	identities, err := store.ListIdentities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"zoe", "adam", "mia"}, identities)
}

func TestSQLiteStore_MatchingScenarios(t *testing.T) {
	m := matcher.New(0.6, matcher.Euclidean, nil)

	tests := []struct {
		name     string
		enrolled []domain.Descriptor
		probe    domain.Descriptor
		want     domain.MatchResult
	}{
		{
			name:     "enroll then match",
			enrolled: []domain.Descriptor{constant(128, 0)},
			probe:    constant(128, 0),
			want:     domain.Matched("alice", 0, 0),
		},
		{
			name:     "enroll then mismatch",
			enrolled: []domain.Descriptor{constant(128, 0)},
			probe:    append(domain.Descriptor{2}, constant(127, 0)...),
			want:     domain.NoMatch(),
		},
		{
			name:     "dimension mismatch is skipped",
			enrolled: []domain.Descriptor{constant(64, 0)},
			probe:    constant(128, 0),
			want:     domain.NoMatch(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newSQLiteStore(t)
			ctx := context.Background()

			for _, d := range tt.enrolled {
				_, err := store.Put(ctx, "alice", d)
				require.NoError(t, err)
			}

			records, err := store.LoadAll(ctx)
			require.NoError(t, err)

			assert.Equal(t, tt.want, m.Authenticate(tt.probe, records))
		})
	}
}
