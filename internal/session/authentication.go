package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/capture"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/matcher"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/repository"
)

const (
	WebcamWindow = "Webcam"

	FailureAnnouncement = "Authentication failed"
)

// Announcer queues a message for speech without waiting for playback
type Announcer interface {
	Announce(message string)
}

type AuthenticationOptions struct {
	// DownscaleFactor shrinks each frame before detection, in (0, 1]
	DownscaleFactor float64
	QuitKey         rune
	IndexKind       string
	// FailureCooldown is the minimum gap between two failure announcements
	FailureCooldown time.Duration
	// Clock defaults to time.Now
	Clock func() time.Time
}

func DefaultAuthenticationOptions() AuthenticationOptions {
	return AuthenticationOptions{
		DownscaleFactor: 0.25,
		QuitKey:         'q',
		IndexKind:       matcher.IndexLinear,
		FailureCooldown: 3 * time.Second,
	}
}

// Outcome is how an authentication session ended
type Outcome struct {
	State    AuthState
	Reason   FailureReason
	Identity string
	Distance float64
	// Overlay marks the matched face in full-frame pixels; nil unless Matched
	Overlay *capture.Overlay
	Frames  int
}

// Authentication watches the camera until a face matches an enrolled
// identity or the operator gives up.
type Authentication struct {
	store     repository.DescriptorStore
	extractor provider.Extractor
	device    capture.Device
	announcer Announcer
	matcher   *matcher.Matcher
	hooks     []PostAuthHook
	auditor   audit.Logger
	logger    *slog.Logger
	opts      AuthenticationOptions
}

func NewAuthentication(
	store repository.DescriptorStore,
	extractor provider.Extractor,
	device capture.Device,
	announcer Announcer,
	m *matcher.Matcher,
	auditor audit.Logger,
	logger *slog.Logger,
	opts AuthenticationOptions,
	hooks ...PostAuthHook,
) *Authentication {
	if auditor == nil {
		auditor = &audit.NoOpLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.DownscaleFactor <= 0 || opts.DownscaleFactor > 1 {
		opts.DownscaleFactor = 1
	}

	return &Authentication{
		store:     store,
		extractor: extractor,
		device:    device,
		announcer: announcer,
		matcher:   m,
		hooks:     hooks,
		auditor:   auditor,
		logger:    logger.With("component", "authentication"),
		opts:      opts,
	}
}

// Run loads the enrolled identities once, then scans frames until the
// session leaves Searching. A cancelled ctx or the quit key yields
// Failed(Cancelled) with a nil error; capture and store failures are
// returned as errors alongside the outcome.
func (a *Authentication) Run(ctx context.Context) (Outcome, error) {
	sessionID := uuid.New()
	logger := a.logger.With("session_id", sessionID)

	records, err := a.store.LoadAll(ctx)
	if err != nil {
		logger.Error("failed to load enrolled identities", "error", err)
		return Outcome{State: Failed, Reason: ReasonPersistenceError}, err
	}

	index, err := matcher.NewIndex(a.opts.IndexKind, a.matcher, records)
	if err != nil {
		return Outcome{State: Failed, Reason: ReasonNone}, err
	}
	logger.Debug("candidate snapshot loaded", "records", index.Len(), "index", a.opts.IndexKind)

	camera, err := a.device.OpenCamera()
	if err != nil {
		a.audit(ctx, sessionID, audit.EventCaptureFailed, "", nil, err)
		return Outcome{State: Failed, Reason: ReasonCaptureError}, fmt.Errorf("open camera: %w", err)
	}
	defer closeQuietly(logger, "camera", camera)

	display, err := a.device.OpenDisplay(WebcamWindow)
	if err != nil {
		return Outcome{State: Failed, Reason: ReasonCaptureError}, fmt.Errorf("open display: %w", err)
	}
	defer closeQuietly(logger, "display", display)

	outcome := Outcome{State: Searching}
	var lastFailure time.Time

	for outcome.State == Searching {
		if ctx.Err() != nil {
			outcome.State = Failed
			outcome.Reason = ReasonCancelled
			break
		}

		frame, err := camera.Read()
		if err != nil {
			a.audit(ctx, sessionID, audit.EventCaptureFailed, "", nil, err)
			outcome.State = Failed
			outcome.Reason = ReasonCaptureError
			return outcome, fmt.Errorf("read frame: %w", err)
		}
		outcome.Frames++

		result, detection, found := a.evaluate(ctx, logger, frame, index)

		switch {
		case result.Matched:
			outcome.State = Matched
			outcome.Identity = result.Identity
			outcome.Distance = result.Distance
			outcome.Overlay = &capture.Overlay{
				Box:   detection.Box.Scale(1 / a.opts.DownscaleFactor),
				Label: result.Identity,
			}
			a.announcer.Announce("Welcome " + result.Identity)

		case found:
			now := a.opts.Clock()
			if lastFailure.IsZero() || now.Sub(lastFailure) >= a.opts.FailureCooldown {
				lastFailure = now
				a.announcer.Announce(FailureAnnouncement)
				a.audit(ctx, sessionID, audit.EventAuthenticationFailed, "", nil, nil)
			}
		}

		if err := display.Show(frame, outcome.Overlay); err != nil {
			logger.Warn("failed to show frame", "error", err)
		}
		_ = frame.Close()

		if outcome.State == Searching {
			if key, ok := display.PollKey(); ok && keyIs(key, a.opts.QuitKey) {
				outcome.State = Failed
				outcome.Reason = ReasonCancelled
			}
		}
	}

	switch outcome.State {
	case Matched:
		logger.Info("user authenticated", "identity", outcome.Identity, "distance", outcome.Distance, "frames", outcome.Frames)
		distance := outcome.Distance
		a.audit(ctx, sessionID, audit.EventAuthenticated, outcome.Identity, &distance, nil)
		a.runHooks(ctx, logger, outcome.Identity)
	case Failed:
		logger.Info("authentication cancelled", "frames", outcome.Frames)
		a.audit(context.WithoutCancel(ctx), sessionID, audit.EventAuthenticationCancelled, "", nil, nil)
	}

	return outcome, nil
}

// evaluate runs detection on a downscaled copy of frame and matches the
// first face found. found reports whether any face was detected.
func (a *Authentication) evaluate(
	ctx context.Context,
	logger *slog.Logger,
	frame capture.Frame,
	index matcher.Index,
) (domain.MatchResult, provider.Detection, bool) {
	small := frame
	if a.opts.DownscaleFactor != 1 {
		scaled, err := frame.Scale(a.opts.DownscaleFactor)
		if err != nil {
			logger.Warn("failed to downscale frame", "error", err)
			return domain.NoMatch(), provider.Detection{}, false
		}
		defer scaled.Close()
		small = scaled
	}

	detections, err := a.extractor.DetectAndEncode(ctx, small)
	if err != nil {
		logger.Warn("face extraction failed", "error", err)
		return domain.NoMatch(), provider.Detection{}, false
	}
	if len(detections) == 0 {
		return domain.NoMatch(), provider.Detection{}, false
	}

	detection := detections[0]
	return index.Match(detection.Descriptor), detection, true
}

func (a *Authentication) runHooks(ctx context.Context, logger *slog.Logger, identity string) {
	for i, hook := range a.hooks {
		if err := hook(ctx, identity); err != nil {
			logger.Warn("post-authentication hook failed", "hook", i, "identity", identity, "error", err)
		}
	}
}

func (a *Authentication) audit(
	ctx context.Context,
	sessionID uuid.UUID,
	eventType audit.EventType,
	identity string,
	distance *float64,
	cause error,
) {
	event := audit.Event{
		SessionID: sessionID,
		EventType: eventType,
		Identity:  identity,
		Distance:  distance,
		Success:   eventType == audit.EventAuthenticated,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	recordAudit(ctx, a.auditor, a.logger, event)
}
