// Package dlib extracts 128-dimensional face descriptors with dlib through
// go-face. It needs the shape predictor and recognition models in a
// directory, as distributed with go-face.
package dlib

import (
	"context"
	"fmt"
	"sync"

	"github.com/Kagami/go-face"

	"github.com/saturnino-fabrica-de-software/facegate/internal/capture"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

type Config struct {
	ModelsDir string
	// UseCNN switches to the slower CNN detector, which finds more rotated faces
	UseCNN bool
}

// Provider wraps a go-face recognizer. The recognizer is not safe for
// concurrent use, so calls are serialized.
type Provider struct {
	mu     sync.Mutex
	rec    *face.Recognizer
	useCNN bool
}

func NewProvider(cfg Config) (*Provider, error) {
	rec, err := face.NewRecognizer(cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("load dlib models from %s: %w", cfg.ModelsDir, err)
	}

	return &Provider{rec: rec, useCNN: cfg.UseCNN}, nil
}

func (p *Provider) DetectAndEncode(ctx context.Context, frame capture.Frame) ([]provider.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := frame.JPEG()
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var faces []face.Face
	if p.useCNN {
		faces, err = p.rec.RecognizeCNN(data)
	} else {
		faces, err = p.rec.Recognize(data)
	}
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	if len(faces) == 0 {
		return nil, nil
	}

	detections := make([]provider.Detection, 0, len(faces))
	for _, f := range faces {
		detections = append(detections, toDetection(f))
	}

	return detections, nil
}

func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rec != nil {
		p.rec.Close()
		p.rec = nil
	}
	return nil
}

func toDetection(f face.Face) provider.Detection {
	r := f.Rectangle
	return provider.Detection{
		Box: capture.Rect{
			Left:   r.Min.X,
			Top:    r.Min.Y,
			Right:  r.Max.X,
			Bottom: r.Max.Y,
		},
		Descriptor: domain.DescriptorFromFloat32(f.Descriptor[:]),
	}
}

var _ provider.Extractor = (*Provider)(nil)
