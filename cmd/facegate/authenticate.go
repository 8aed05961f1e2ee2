package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facegate/internal/session"
)

var authenticateCmd = &cobra.Command{
	Use:     "authenticate",
	Aliases: []string{"auth"},
	Short:   "Watch the webcam until an enrolled face is recognised",
	Long: `Loads every enrolled face, then scans webcam frames until one matches.
The result is announced by voice and the post-authentication tasks run on
success. Press the quit key in the window to give up.`,
	Args: cobra.NoArgs,
	RunE: runAuthenticate,
}

func init() {
	rootCmd.AddCommand(authenticateCmd)
}

func runAuthenticate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ann, shutdown, err := a.startAnnouncer(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	return authenticate(cmd, a, ann)
}

func authenticate(cmd *cobra.Command, a *app, ann session.Announcer) error {
	outcome, err := a.authentication(ann).Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	if outcome.State != session.Matched {
		a.logger.Info("authentication ended without a match",
			"reason", outcome.Reason.String(),
			"frames", outcome.Frames,
		)
	}
	return nil
}
