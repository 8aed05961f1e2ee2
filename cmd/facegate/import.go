package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facegate/internal/session"
)

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Enroll faces from a directory of photos",
	Long: `Enrolls every .jpg, .jpeg and .png file in the directory, using the file
name without extension as the person's name. Defaults to IMAGE_DIR.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	dir := a.cfg.ImageDir
	if len(args) == 1 {
		dir = args[0]
	}

	importer := session.NewImporter(a.store, a.extractor, a.auditor, a.logger)
	result, err := importer.ImportDirectory(ctx, dir, loadImage)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Enrolled: %d\n", result.Enrolled)
	fmt.Printf("Skipped (no face): %d\n", result.Skipped)
	fmt.Printf("Failed: %d\n", result.Failed)
	return nil
}
