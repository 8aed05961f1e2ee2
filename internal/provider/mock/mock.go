package mock

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/saturnino-fabrica-de-software/facegate/internal/capture"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/matcher"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

const (
	DescriptorDimension = 128

	// frames whose encoding is shorter than this are reported as faceless
	minFaceBytes = 16
)

// Provider implements provider.Extractor without any model. The descriptor is
// derived from a hash of the frame encoding, so the same frame always yields
// the same descriptor.
type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) DetectAndEncode(ctx context.Context, frame capture.Frame) ([]provider.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := frame.JPEG()
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	if len(data) < minFaceBytes {
		return nil, nil
	}

	width, height := frame.Size()

	return []provider.Detection{
		{
			Box: capture.Rect{
				Left:   width / 10,
				Top:    height / 10,
				Right:  width - width/10,
				Bottom: height - height/10,
			},
			Descriptor: GenerateDescriptor(data),
		},
	}, nil
}

func (p *Provider) Close() error {
	return nil
}

// GenerateDescriptor builds a unit-length descriptor from the SHA-256 of data
func GenerateDescriptor(data []byte) domain.Descriptor {
	hash := sha256.Sum256(data)
	descriptor := make(domain.Descriptor, DescriptorDimension)
	hashLen := len(hash)

	for i := 0; i < DescriptorDimension; i++ {
		// mix the position in so repeated hash bytes do not repeat values
		b := hash[i%hashLen] ^ byte(i/hashLen*31)
		descriptor[i] = (float64(b)/255.0)*2 - 1
	}

	return matcher.Normalize(descriptor)
}

var _ provider.Extractor = (*Provider)(nil)
