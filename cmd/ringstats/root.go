package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ringops/ringstats/internal/catalog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ringstats",
		Short:        "Keeps the ring item tables in sync with on-chain mints and game metadata",
		Version:      Version,
		SilenceUsage: true,
	}
	root.AddCommand(
		newReconcileCmd(),
		newInitCmd(),
		newExportCmd(),
		newWatchCmd(),
		newCacheCmd(),
		newServeCmd(),
	)
	return root
}

// withApp wires the components for one command invocation and closes them afterwards.
func withApp(run func(cmd *cobra.Command, args []string, a *app) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return run(cmd, args, a)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newReconcileCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Fill missing stats and mint provenance for every category",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			if category == "" {
				return printJSON(cmd.OutOrStdout(), a.reconciler.Run(cmd.Context()))
			}
			c, err := a.category(category)
			if err != nil {
				return err
			}
			summary, err := a.reconciler.ReconcileCategory(cmd.Context(), c)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		}),
	}
	cmd.Flags().StringVar(&category, "category", "", "only reconcile this category (name or prefix)")
	return cmd
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the item rows of every configured category",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			for _, c := range a.categories {
				created, err := a.store.InitCategory(cmd.Context(), c, a.cfg.CategorySizeOrDefault())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %d rows created\n", c.Name, c.Prefix, created)
			}
			return nil
		}),
	}
}

func newExportCmd() *cobra.Command {
	var category, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a category table as CSV",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			c, err := a.category(category)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return a.store.ExportCSV(cmd.Context(), c, w)
		}),
	}
	cmd.Flags().StringVar(&category, "category", "", "category name or prefix")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, stdout when empty")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage the mint watch list",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <item-id>",
			Short: "Start watching an item for its mint",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
				id, err := catalog.ParseItemID(args[0])
				if err != nil {
					return err
				}
				return a.watcher.Add(cmd.Context(), id)
			}),
		},
		newMonitorCmd("on", true),
		newMonitorCmd("off", false),
		&cobra.Command{
			Use:   "list",
			Short: "Print the watch list",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
				entries, err := a.watcher.List(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), entries)
			}),
		},
		&cobra.Command{
			Use:   "run",
			Short: "Check every pending item once and notify confirmed mints",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
				confirmed := a.watcher.Run(cmd.Context())
				zap.L().Info("Watch run finished", zap.Int("confirmed", confirmed))
				return nil
			}),
		},
	)
	return cmd
}

func newMonitorCmd(use string, on bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <item-id>",
		Short: "Turn monitoring " + use + " for an item",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := catalog.ParseItemID(args[0])
			if err != nil {
				return err
			}
			return a.watcher.SetMonitor(cmd.Context(), id, on)
		}),
	}
}
