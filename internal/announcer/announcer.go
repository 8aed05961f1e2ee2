// Package announcer plays short spoken messages without blocking the caller.
// A single worker drains a FIFO queue, so utterances never overlap and none
// are dropped while the announcer is running.
package announcer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// Speaker turns text into audio. Speak blocks until playback has finished.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Announcer struct {
	speaker Speaker
	logger  *slog.Logger

	mu      sync.Mutex
	queue   []string
	started bool
	closed  bool

	wake chan struct{}
	done chan struct{}

	// cancels an utterance in flight when Shutdown gives up waiting
	speakCtx    context.Context
	cancelSpeak context.CancelFunc
}

func New(speaker Speaker, logger *slog.Logger) *Announcer {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Announcer{
		speaker:     speaker,
		logger:      logger.With("component", "announcer"),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		speakCtx:    ctx,
		cancelSpeak: cancel,
	}
}

// Start launches the worker. Calling it more than once has no effect.
func (a *Announcer) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started || a.closed {
		return
	}
	a.started = true

	go a.run()
}

// Announce queues message for playback and returns immediately
func (a *Announcer) Announce(message string) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.logger.Debug("announcement dropped after shutdown", "message", message)
		return
	}
	a.queue = append(a.queue, message)
	a.mu.Unlock()

	a.signal()
}

// Pending reports how many messages are waiting to be spoken
func (a *Announcer) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

// Shutdown stops accepting messages and waits for the queue to drain. If ctx
// ends first, the current utterance is cancelled, the rest of the queue is
// discarded and ctx's error is returned.
func (a *Announcer) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	alreadyClosed := a.closed
	a.closed = true
	started := a.started
	a.mu.Unlock()

	if !started {
		if !alreadyClosed {
			a.cancelSpeak()
			close(a.done)
		}
		return nil
	}

	a.signal()

	select {
	case <-a.done:
		a.cancelSpeak()
		return nil
	case <-ctx.Done():
		a.mu.Lock()
		dropped := len(a.queue)
		a.queue = nil
		a.mu.Unlock()

		a.cancelSpeak()
		a.logger.Warn("announcer shutdown timed out", "dropped", dropped)
		return ctx.Err()
	}
}

func (a *Announcer) signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *Announcer) run() {
	a.logger.Info("announcer worker started")
	defer func() {
		close(a.done)
		a.logger.Info("announcer worker stopped")
	}()

	for {
		message, ok, closed := a.next()
		if ok {
			a.speak(message)
			continue
		}
		if closed {
			return
		}
		<-a.wake
	}
}

func (a *Announcer) next() (string, bool, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.queue) == 0 {
		return "", false, a.closed
	}

	message := a.queue[0]
	a.queue[0] = ""
	a.queue = a.queue[1:]
	return message, true, false
}

func (a *Announcer) speak(message string) {
	if err := a.speaker.Speak(a.speakCtx, message); err != nil {
		a.logger.Warn("announcement failed",
			"message", message,
			"error", domain.ErrAudio.WithError(err),
		)
	}
}
