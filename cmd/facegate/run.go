package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enroll new users, then authenticate",
	Long: `Runs an enrollment session followed by an authentication session,
sharing one database, extractor and voice.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
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

	if _, err := a.enrollment().Run(ctx); err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	return authenticate(cmd, a, ann)
}
