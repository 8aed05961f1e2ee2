package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/matcher"
	"github.com/saturnino-fabrica-de-software/facegate/internal/repository"
)

var searchCmd = &cobra.Command{
	Use:   "search <image>",
	Short: "Rank enrolled users by distance to the face in an image",
	Long: `Diagnostic that detects the first face in the image and lists the closest
enrolled records. Records within CONFIDENCE_THRESHOLD are marked as matches.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 10, "Number of records to show")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	limit := mustGetInt(cmd, "limit")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	frame, err := loadImage(args[0])
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	defer frame.Close()

	detections, err := a.extractor.DetectAndEncode(ctx, frame)
	if err != nil {
		return fmt.Errorf("failed to extract face: %w", err)
	}
	if len(detections) == 0 {
		return fmt.Errorf("%s: %w", args[0], domain.ErrExtractionEmpty)
	}

	neighbors, err := nearest(ctx, a, detections[0].Descriptor, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDISTANCE\tMATCH")
	for _, n := range neighbors {
		match := ""
		if n.Distance <= a.matcher.Threshold() {
			match = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%s\n", n.ID, n.Identity, n.Distance, match)
	}
	return w.Flush()
}

// nearest asks the database when it can rank by the configured metric and
// falls back to scanning every record otherwise
func nearest(ctx context.Context, a *app, probe domain.Descriptor, limit int) ([]domain.Neighbor, error) {
	if searcher, ok := a.store.(repository.NearestSearcher); ok && a.matcher.Metric() == matcher.MetricEuclidean {
		neighbors, err := searcher.SearchNearest(ctx, probe, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to search: %w", err)
		}
		return neighbors, nil
	}

	records, err := a.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	return a.matcher.Rank(probe, records, limit), nil
}
