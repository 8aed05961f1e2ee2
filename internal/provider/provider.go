package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/facegate/internal/capture"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// Extractor finds faces in a frame and computes one descriptor per face
type Extractor interface {
	// DetectAndEncode returns the detected faces in detector order. No face
	// is not an error: the result is simply empty.
	DetectAndEncode(ctx context.Context, frame capture.Frame) ([]Detection, error)

	// Close releases models and native resources
	Close() error
}

// Detection is one face found in a frame, with its box in that frame's pixels
type Detection struct {
	Box        capture.Rect      `json:"box"`
	Descriptor domain.Descriptor `json:"-"`
}
