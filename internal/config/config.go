package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseDriver string `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	DatabasePath   string `envconfig:"DATABASE_PATH" default:"user_database.db"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`

	// Matching
	ConfidenceThreshold float64 `envconfig:"CONFIDENCE_THRESHOLD" default:"0.6"`
	DistanceMetric      string  `envconfig:"DISTANCE_METRIC" default:"euclidean"`
	MatchIndex          string  `envconfig:"MATCH_INDEX" default:"linear"`

	// Provider
	ProviderType string `envconfig:"PROVIDER_TYPE" default:"dlib"`
	ModelsDir    string `envconfig:"MODELS_DIR" default:"models"`

	// Camera
	CameraDevice    int     `envconfig:"CAMERA_DEVICE" default:"0"`
	DownscaleFactor float64 `envconfig:"DOWNSCALE_FACTOR" default:"0.25"`

	// Speech
	SpeakerType string `envconfig:"SPEAKER_TYPE" default:"espeak"`
	VoiceIndex  int    `envconfig:"VOICE_INDEX" default:"0"`

	// Enrollment
	ImageDir      string `envconfig:"IMAGE_DIR" default:"images"`
	SaveSnapshots bool   `envconfig:"SAVE_SNAPSHOTS" default:"true"`

	// Operator controls
	CaptureKey  string `envconfig:"CAPTURE_KEY" default:"r"`
	QuitKey     string `envconfig:"QUIT_KEY" default:"q"`
	QuitCommand string `envconfig:"QUIT_COMMAND" default:"q"`

	// Zero repeats the failure announcement on every unmatched frame
	FailureAnnounceCooldown time.Duration `envconfig:"FAILURE_ANNOUNCE_COOLDOWN" default:"3s"`

	// Post-authentication
	WebhookURL    string `envconfig:"POST_AUTH_WEBHOOK_URL"`
	WebhookSecret string `envconfig:"POST_AUTH_WEBHOOK_SECRET"`
	AuditEnabled  bool   `envconfig:"AUDIT_ENABLED" default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the sessions cannot run with
func (c *Config) Validate() error {
	var problems []string

	switch c.DatabaseDriver {
	case "sqlite":
		if c.DatabasePath == "" {
			problems = append(problems, "DATABASE_PATH is required for sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("DATABASE_DRIVER %q (use sqlite or postgres)", c.DatabaseDriver))
	}

	if c.ConfidenceThreshold <= 0 {
		problems = append(problems, "CONFIDENCE_THRESHOLD must be positive")
	}
	if c.DistanceMetric != "euclidean" && c.DistanceMetric != "cosine" {
		problems = append(problems, fmt.Sprintf("DISTANCE_METRIC %q (use euclidean or cosine)", c.DistanceMetric))
	}
	if c.MatchIndex != "linear" && c.MatchIndex != "hnsw" {
		problems = append(problems, fmt.Sprintf("MATCH_INDEX %q (use linear or hnsw)", c.MatchIndex))
	}
	if c.DownscaleFactor <= 0 || c.DownscaleFactor > 1 {
		problems = append(problems, "DOWNSCALE_FACTOR must be in (0, 1]")
	}
	if c.SpeakerType != "espeak" && c.SpeakerType != "log" {
		problems = append(problems, fmt.Sprintf("SPEAKER_TYPE %q (use espeak or log)", c.SpeakerType))
	}
	if c.VoiceIndex < 0 {
		problems = append(problems, "VOICE_INDEX must not be negative")
	}
	if len(c.CaptureKey) != 1 || len(c.QuitKey) != 1 {
		problems = append(problems, "CAPTURE_KEY and QUIT_KEY must be single characters")
	} else if strings.EqualFold(c.CaptureKey, c.QuitKey) {
		problems = append(problems, "CAPTURE_KEY and QUIT_KEY must differ")
	}
	if strings.TrimSpace(c.QuitCommand) == "" {
		problems = append(problems, "QUIT_COMMAND must not be blank")
	}
	if c.FailureAnnounceCooldown < 0 {
		problems = append(problems, "FAILURE_ANNOUNCE_COOLDOWN must not be negative")
	}

	if len(problems) > 0 {
		return domain.ErrInvalidConfig.WithError(fmt.Errorf("%s", strings.Join(problems, "; ")))
	}
	return nil
}
