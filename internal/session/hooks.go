package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// PostAuthHook runs once after a successful authentication. Errors are
// logged and never change the outcome.
type PostAuthHook func(ctx context.Context, identity string) error

// WelcomeHook greets the authenticated user on out
func WelcomeHook(out io.Writer, logger *slog.Logger) PostAuthHook {
	return func(ctx context.Context, identity string) error {
		logger.InfoContext(ctx, "performing post-authentication tasks", "identity", identity)
		_, err := fmt.Fprintf(out, "Welcome %s! You have been authenticated.\n", identity)
		return err
	}
}
