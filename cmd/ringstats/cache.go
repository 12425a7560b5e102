package main

import (
	"fmt"

	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/mint"
	"github.com/spf13/cobra"
)

const defaultWarmCount = 10

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the mint provenance cache",
	}
	cmd.AddCommand(newCacheWarmCmd())
	return cmd
}

func newCacheWarmCmd() *cobra.Command {
	var category string
	var count int
	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Resolve the first items of each category into the mint cache",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			categories := a.categories
			if category != "" {
				c, err := a.category(category)
				if err != nil {
					return err
				}
				categories = []catalog.Category{c}
			}
			ids, err := warmTargets(categories, count)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), mint.Warm(cmd.Context(), a.resolver, ids))
		}),
	}
	cmd.Flags().StringVar(&category, "category", "", "only warm this category (name or prefix)")
	cmd.Flags().IntVar(&count, "count", defaultWarmCount, "items per category, starting at 1")
	return cmd
}

func warmTargets(categories []catalog.Category, count int) ([]catalog.ItemID, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}
	ids := make([]catalog.ItemID, 0, len(categories)*count)
	for _, c := range categories {
		ids = append(ids, c.Range(count)...)
	}
	return ids, nil
}
