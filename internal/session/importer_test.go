package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/capture"
	"github.com/saturnino-fabrica-de-software/facegate/internal/database"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/matcher"
	facemock "github.com/saturnino-fabrica-de-software/facegate/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/facegate/internal/repository"
)

var errUnreadable = errors.New("cannot decode image")

// loadFile treats the file contents as the encoded frame
func loadFile(path string) (capture.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if string(data) == "corrupt" {
		return nil, errUnreadable
	}
	return &fakeFrame{scale: 1, payload: data}, nil
}

func writeImages(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "thumbnails.jpg"), 0o755))
	return dir
}

func TestImporter_ImportDirectory(t *testing.T) {
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "user_database.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, database.DialectSQLite, ""))
	store := repository.NewSQLiteStore(db)
	t.Cleanup(func() { _ = store.Close() })

	dir := writeImages(t, map[string]string{
		"bob.png":     "a portrait of bob, large enough to hold a face",
		"alice.jpg":   "a portrait of alice, large enough to hold a face",
		"carol.JPEG":  "a portrait of carol, large enough to hold a face",
		"empty.jpg":   "blank",
		"broken.jpg":  "corrupt",
		"notes.txt":   "not an image at all, ignored by extension",
		"dave.jpg.gz": "compressed, ignored by extension",
	})

	extractor := facemock.New()
	importer := NewImporter(store, extractor, nil, nil)

	result, err := importer.ImportDirectory(ctx, dir, loadFile)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Enrolled: 3, Skipped: 1, Failed: 1}, result)

	identities, err := store.ListIdentities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, identities)

	// an imported photo authenticates against its own descriptor
	records, err := store.LoadAll(ctx)
	require.NoError(t, err)
	probe := facemock.GenerateDescriptor([]byte("a portrait of bob, large enough to hold a face"))
	got := matcher.New(matcher.DefaultThreshold, matcher.Euclidean, nil).Authenticate(probe, records)
	assert.True(t, got.Matched)
	assert.Equal(t, "bob", got.Identity)
}

func TestImporter_ImportDirectory_MissingDirectory(t *testing.T) {
	importer := NewImporter(new(MockStore), facemock.New(), nil, nil)

	_, err := importer.ImportDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"), loadFile)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImporter_ImportDirectory_StoreFailureStops(t *testing.T) {
	dir := writeImages(t, map[string]string{
		"alice.jpg": "a portrait of alice, large enough to hold a face",
		"bob.jpg":   "a portrait of bob, large enough to hold a face",
	})

	store := new(MockStore)
	store.On("Put", mock.Anything, "alice", mock.Anything).
		Return(nil, domain.ErrPersistence.WithError(errors.New("database is locked"))).Once()

	importer := NewImporter(store, facemock.New(), nil, nil)

	result, err := importer.ImportDirectory(context.Background(), dir, loadFile)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Zero(t, result.Enrolled)
	store.AssertNotCalled(t, "Put", mock.Anything, "bob", mock.Anything)
}

func TestImporter_ImportDirectory_Cancelled(t *testing.T) {
	dir := writeImages(t, map[string]string{
		"alice.jpg": "a portrait of alice, large enough to hold a face",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := new(MockStore)
	_, err := NewImporter(store, facemock.New(), nil, nil).ImportDirectory(ctx, dir, loadFile)
	assert.ErrorIs(t, err, context.Canceled)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestImporter_ImportDirectory_AuditFailureIsLogged(t *testing.T) {
	dir := writeImages(t, map[string]string{
		"alice.jpg": "a portrait of alice, large enough to hold a face",
	})

	store := new(MockStore)
	store.On("Put", mock.Anything, "alice", mock.Anything).Return(stored(1, "alice", descriptor(0.1)), nil)

	var logs bytes.Buffer
	auditor := &failingAuditor{}
	importer := NewImporter(store, facemock.New(), auditor, slog.New(slog.NewTextHandler(&logs, nil)))

	result, err := importer.ImportDirectory(context.Background(), dir, loadFile)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Enrolled)
	assert.Equal(t, []audit.EventType{audit.EventFaceImported}, auditor.events)
	assert.Contains(t, logs.String(), "failed to write audit event")
}
