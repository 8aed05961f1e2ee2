package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/capture"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/repository"
)

const RegistrationWindow = "Registration"

type EnrollmentOptions struct {
	CaptureKey  rune
	QuitKey     rune
	QuitCommand string
	// SnapshotDir receives <identity>.jpg after each enrollment; empty disables it
	SnapshotDir string
}

func DefaultEnrollmentOptions() EnrollmentOptions {
	return EnrollmentOptions{
		CaptureKey:  'r',
		QuitKey:     'q',
		QuitCommand: "q",
		SnapshotDir: "images",
	}
}

// EnrollmentSummary reports what a finished enrollment session did
type EnrollmentSummary struct {
	State    EnrollState
	Enrolled []domain.EnrollmentRecord
}

// Enrollment registers identities one at a time: the operator types a name,
// the subject faces the camera and the operator presses the capture key.
type Enrollment struct {
	store     repository.DescriptorStore
	extractor provider.Extractor
	device    capture.Device
	prompter  Prompter
	auditor   audit.Logger
	logger    *slog.Logger
	out       io.Writer
	opts      EnrollmentOptions

	state EnrollState
}

func NewEnrollment(
	store repository.DescriptorStore,
	extractor provider.Extractor,
	device capture.Device,
	prompter Prompter,
	auditor audit.Logger,
	logger *slog.Logger,
	out io.Writer,
	opts EnrollmentOptions,
) *Enrollment {
	if auditor == nil {
		auditor = &audit.NoOpLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = io.Discard
	}

	return &Enrollment{
		store:     store,
		extractor: extractor,
		device:    device,
		prompter:  prompter,
		auditor:   auditor,
		logger:    logger.With("component", "enrollment"),
		out:       out,
		opts:      opts,
	}
}

// State is the current state; Terminated once Run has returned normally
func (e *Enrollment) State() EnrollState {
	return e.state
}

// Run drives the session until the quit command, end of input, a camera
// failure or ctx cancellation. Camera and window are released on every path.
func (e *Enrollment) Run(ctx context.Context) (EnrollmentSummary, error) {
	summary := EnrollmentSummary{}
	sessionID := uuid.New()
	logger := e.logger.With("session_id", sessionID)

	camera, err := e.device.OpenCamera()
	if err != nil {
		return summary, fmt.Errorf("open camera: %w", err)
	}
	defer closeQuietly(logger, "camera", camera)

	display, err := e.device.OpenDisplay(RegistrationWindow)
	if err != nil {
		return summary, fmt.Errorf("open display: %w", err)
	}
	defer closeQuietly(logger, "display", display)

	var identity string
	e.state = AwaitingName

	for {
		if err := ctx.Err(); err != nil {
			summary.State = e.state
			return summary, err
		}

		switch e.state {
		case AwaitingName:
			name, err := e.prompter.ReadName(ctx)
			if errors.Is(err, io.EOF) {
				e.state = Terminated
				continue
			}
			if err != nil {
				summary.State = e.state
				return summary, err
			}

			name = strings.TrimSpace(name)
			if strings.EqualFold(name, e.opts.QuitCommand) {
				e.state = Terminated
				continue
			}
			if name == "" {
				continue
			}

			identity = name
			e.state = AwaitingCapture
			fmt.Fprintf(e.out, "Please look at the camera and press '%c' to take a picture.\n", e.opts.CaptureKey)

		case AwaitingCapture:
			frame, err := camera.Read()
			if err != nil {
				recordAudit(ctx, e.auditor, logger, audit.Event{
					SessionID: sessionID,
					EventType: audit.EventCaptureFailed,
					Identity:  identity,
					Error:     err.Error(),
				})
				summary.State = e.state
				return summary, fmt.Errorf("read frame: %w", err)
			}

			e.state = e.handleCaptureFrame(ctx, logger, sessionID, identity, frame, display, &summary)
			_ = frame.Close()

		case Committed:
			e.state = AwaitingName

		case Terminated:
			logger.Info("enrollment finished", "enrolled", len(summary.Enrolled))
			summary.State = Terminated
			return summary, nil
		}
	}
}

func (e *Enrollment) handleCaptureFrame(
	ctx context.Context,
	logger *slog.Logger,
	sessionID uuid.UUID,
	identity string,
	frame capture.Frame,
	display capture.Display,
	summary *EnrollmentSummary,
) EnrollState {
	if err := display.Show(frame, nil); err != nil {
		logger.Warn("failed to show frame", "error", err)
	}

	key, ok := display.PollKey()
	if !ok {
		return AwaitingCapture
	}

	switch {
	case keyIs(key, e.opts.QuitKey):
		logger.Info("capture abandoned", "identity", identity)
		return AwaitingName

	case keyIs(key, e.opts.CaptureKey):
		detections, err := e.extractor.DetectAndEncode(ctx, frame)
		if err != nil {
			logger.Warn("face extraction failed", "identity", identity, "error", err)
			detections = nil
		}
		if len(detections) == 0 {
			logger.Warn("no face in captured frame", "identity", identity, "error", domain.ErrExtractionEmpty)
			fmt.Fprintln(e.out, "No face detected. Please try again.")
			return AwaitingCapture
		}

		record, err := e.store.Put(ctx, identity, detections[0].Descriptor)
		if err != nil {
			logger.Error("failed to register user", "identity", identity, "error", err)
			fmt.Fprintf(e.out, "Could not register '%s': %v\n", identity, err)
			return AwaitingName
		}

		if e.opts.SnapshotDir != "" {
			if err := saveSnapshot(e.opts.SnapshotDir, identity, frame); err != nil {
				logger.Warn("failed to save snapshot", "identity", identity, "error", err)
			}
		}

		recordAudit(ctx, e.auditor, logger, audit.Event{
			SessionID: sessionID,
			EventType: audit.EventFaceEnrolled,
			Identity:  record.Identity,
			RecordID:  record.ID,
			Success:   true,
		})

		summary.Enrolled = append(summary.Enrolled, *record)
		logger.Info("user registered", "identity", identity, "record_id", record.ID)
		fmt.Fprintf(e.out, "User '%s' registered successfully.\n", identity)
		return Committed
	}

	return AwaitingCapture
}

// saveSnapshot writes the captured frame as dir/<identity>.jpg
func saveSnapshot(dir, identity string, frame capture.Frame) error {
	data, err := frame.JPEG()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, snapshotName(identity)), data, 0o644)
}

// snapshotName keeps the identity as the file stem, minus path separators,
// so the import command maps the file back to the same identity
func snapshotName(identity string) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, identity)
	if name == "." || name == ".." {
		name = "_"
	}
	return name + ".jpg"
}

func keyIs(pressed, want rune) bool {
	return want != 0 && unicode.ToLower(pressed) == unicode.ToLower(want)
}

func closeQuietly(logger *slog.Logger, what string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Warn("failed to release "+what, "error", err)
	}
}
