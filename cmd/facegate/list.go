package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show enrolled users",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	identities, err := a.store.ListIdentities(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	count, err := a.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}

	for _, identity := range identities {
		fmt.Println(identity)
	}
	fmt.Printf("\nUsers: %d\n", len(identities))
	fmt.Printf("Records: %d\n", count)
	return nil
}
