package announcer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

const (
	SpeakerESpeak = "espeak"
	SpeakerLog    = "log"
)

// NewSpeaker builds the speaker named by SPEAKER_TYPE
func NewSpeaker(ctx context.Context, kind string, voiceIndex int, logger *slog.Logger) (Speaker, error) {
	switch kind {
	case SpeakerESpeak, "":
		return NewESpeak(ctx, voiceIndex, logger)
	case SpeakerLog:
		return NewLogSpeaker(logger), nil
	default:
		return nil, fmt.Errorf("unknown speaker type: %s (supported: %s, %s)", kind, SpeakerESpeak, SpeakerLog)
	}
}

// commandRunner runs an external program and returns its stdout
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// ESpeak speaks through the espeak-ng (or legacy espeak) command line synthesizer
type ESpeak struct {
	binary string
	voice  string
	run    commandRunner
}

// NewESpeak locates the synthesizer and selects the voice at voiceIndex in
// its --voices listing. An index past the end keeps the default voice.
func NewESpeak(ctx context.Context, voiceIndex int, logger *slog.Logger) (*ESpeak, error) {
	binary, err := lookupESpeak()
	if err != nil {
		return nil, err
	}
	return newESpeak(ctx, binary, voiceIndex, runCommand, logger)
}

func lookupESpeak() (string, error) {
	for _, name := range []string{"espeak-ng", "espeak"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", errors.New("neither espeak-ng nor espeak found in PATH")
}

func newESpeak(ctx context.Context, binary string, voiceIndex int, run commandRunner, logger *slog.Logger) (*ESpeak, error) {
	if logger == nil {
		logger = slog.Default()
	}

	out, err := run(ctx, binary, "--voices")
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}

	voices := parseVoices(out)
	s := &ESpeak{binary: binary, run: run}

	if voiceIndex >= 0 && voiceIndex < len(voices) {
		s.voice = voices[voiceIndex]
		logger.Debug("speech voice selected", "voice", s.voice, "voice_index", voiceIndex)
	} else {
		logger.Warn("voice index out of range, using default voice",
			"voice_index", voiceIndex,
			"available", len(voices),
		)
	}

	return s, nil
}

// parseVoices reads the voice file identifiers from an espeak --voices table
func parseVoices(listing []byte) []string {
	var voices []string

	scanner := bufio.NewScanner(bytes.NewReader(listing))
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		// Pty Language Age/Gender VoiceName File Other Languages
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 {
			continue
		}
		voices = append(voices, fields[4])
	}

	return voices
}

func (s *ESpeak) Speak(ctx context.Context, text string) error {
	args := make([]string, 0, 3)
	if s.voice != "" {
		args = append(args, "-v", s.voice)
	}
	args = append(args, text)

	if _, err := s.run(ctx, s.binary, args...); err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	return nil
}

// LogSpeaker writes announcements to the log, for machines without audio
type LogSpeaker struct {
	logger *slog.Logger
}

func NewLogSpeaker(logger *slog.Logger) *LogSpeaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSpeaker{logger: logger}
}

func (s *LogSpeaker) Speak(_ context.Context, text string) error {
	s.logger.Info("announcement", "text", text)
	return nil
}
