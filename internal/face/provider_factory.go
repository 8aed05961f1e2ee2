package face

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/dlib"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/mock"
)

// ProviderType defines supported extractor implementations
type ProviderType string

const (
	// ProviderTypeDlib runs dlib models locally through go-face
	ProviderTypeDlib ProviderType = "dlib"
	// ProviderTypeMock derives descriptors from frame hashes, for dev and tests
	ProviderTypeMock ProviderType = "mock"
)

// NewExtractor creates the extractor selected by PROVIDER_TYPE.
//
// Environment variables:
//   - PROVIDER_TYPE: "dlib" or "mock" (default: "dlib")
//   - MODELS_DIR: directory holding the dlib model files (default: "models")
func NewExtractor(cfg *config.Config) (provider.Extractor, error) {
	switch ProviderType(cfg.ProviderType) {
	case ProviderTypeDlib, "":
		return createDlibProvider(cfg)

	case ProviderTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s)",
			cfg.ProviderType, ProviderTypeDlib, ProviderTypeMock)
	}
}

func createDlibProvider(cfg *config.Config) (provider.Extractor, error) {
	prov, err := dlib.NewProvider(dlib.Config{ModelsDir: cfg.ModelsDir})
	if err != nil {
		return nil, fmt.Errorf("create dlib provider: %w", err)
	}

	return prov, nil
}
