package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/capture"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/repository"
)

// FrameLoader decodes an image file into a frame
type FrameLoader func(path string) (capture.Frame, error)

type ImportResult struct {
	Enrolled int `json:"enrolled"`
	// Skipped counts images without a detectable face
	Skipped int `json:"skipped"`
	// Failed counts images that could not be read or encoded
	Failed int `json:"failed"`
}

var importExtensions = []string{".jpg", ".jpeg", ".png"}

// Importer enrolls faces from image files named after their owner
type Importer struct {
	store     repository.DescriptorStore
	extractor provider.Extractor
	auditor   audit.Logger
	logger    *slog.Logger
}

func NewImporter(store repository.DescriptorStore, extractor provider.Extractor, auditor audit.Logger, logger *slog.Logger) *Importer {
	if auditor == nil {
		auditor = &audit.NoOpLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		store:     store,
		extractor: extractor,
		auditor:   auditor,
		logger:    logger.With("component", "importer"),
	}
}

// ImportDirectory enrolls every image in dir under its file stem, in file
// name order. Unreadable images and images without a face are counted and
// skipped; a store failure stops the import.
func (im *Importer) ImportDirectory(ctx context.Context, dir string, load FrameLoader) (ImportResult, error) {
	var result ImportResult

	entries, err := os.ReadDir(dir)
	if err != nil {
		return result, fmt.Errorf("read image directory: %w", err)
	}

	sessionID := uuid.New()
	for _, entry := range entries {
		if entry.IsDir() || !slices.Contains(importExtensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		path := filepath.Join(dir, entry.Name())
		identity := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))

		descriptor, err := im.encodeFile(ctx, path, load)
		switch {
		case errors.Is(err, domain.ErrExtractionEmpty):
			im.logger.Warn("no face found in image, skipping", "path", path)
			result.Skipped++
			continue
		case err != nil:
			im.logger.Warn("could not read image, skipping", "path", path, "error", err)
			result.Failed++
			continue
		}

		record, err := im.store.Put(ctx, identity, descriptor)
		if errors.Is(err, domain.ErrInvalidIdentity) {
			im.logger.Warn("image name is not a usable identity, skipping", "path", path)
			result.Failed++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("import %s: %w", path, err)
		}

		recordAudit(ctx, im.auditor, im.logger, audit.Event{
			SessionID: sessionID,
			EventType: audit.EventFaceImported,
			Identity:  record.Identity,
			RecordID:  record.ID,
			Success:   true,
			Metadata:  map[string]string{"path": path},
		})
		im.logger.Info("image imported", "identity", identity, "record_id", record.ID)
		result.Enrolled++
	}

	return result, nil
}

func (im *Importer) encodeFile(ctx context.Context, path string, load FrameLoader) (domain.Descriptor, error) {
	frame, err := load(path)
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	detections, err := im.extractor.DetectAndEncode(ctx, frame)
	if err != nil {
		return nil, err
	}
	if len(detections) == 0 {
		return nil, domain.ErrExtractionEmpty
	}
	return detections[0].Descriptor, nil
}
