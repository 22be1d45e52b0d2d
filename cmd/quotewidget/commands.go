package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tesfalem/quotewidget/internal/app"
	"github.com/tesfalem/quotewidget/internal/domain"
)

func (c *cli) randomCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Show a random quote under the active filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withWidget(cmd.Context(), func(ctx context.Context, w *app.Widget) error {
				var (
					q  domain.Quote
					ok bool
				)

				if cmd.Flags().Changed("category") {
					q, ok = w.Store.Random(ctx, domain.NewFilterSelection(category))
				} else {
					q, ok = w.ShowRandom(ctx)
				}

				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), app.EmptyViewMessage)
					return nil
				}

				printQuote(cmd.OutOrStdout(), q)

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "pick from this category without changing the saved filter")

	return cmd
}

func (c *cli) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add TEXT CATEGORY",
		Short: "Add a quote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWidget(cmd.Context(), func(ctx context.Context, w *app.Widget) error {
				q, err := w.Store.Add(ctx, domain.QuoteInput{Text: args[0], Category: args[1]})
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Added to %s.\n", q.Category)

				return nil
			})
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withWidget(cmd.Context(), func(_ context.Context, w *app.Widget) error {
				quotes := w.Store.Filtered(domain.NewFilterSelection(category))

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CATEGORY\tTEXT")

				for _, q := range quotes {
					fmt.Fprintf(tw, "%s\t%s\n", q.Category, q.Text)
				}

				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only list this category")

	return cmd
}

func (c *cli) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories, marking the active filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withWidget(cmd.Context(), func(_ context.Context, w *app.Widget) error {
				active := w.Filter.Active()
				out := cmd.OutOrStdout()

				printOption(out, string(domain.AllCategories), active.IsAll())

				for _, category := range w.Store.Categories() {
					printOption(out, category, active.String() == category)
				}

				return nil
			})
		},
	}
}

func (c *cli) filterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filter [CATEGORY]",
		Short: "Show or select the active category filter",
		Long:  `Without an argument, prints the active filter. "all" clears it.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWidget(cmd.Context(), func(ctx context.Context, w *app.Widget) error {
				if len(args) == 1 {
					if _, err := w.Filter.Select(ctx, args[0]); err != nil {
						return err
					}
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Filter: %s (%d visible)\n", w.Filter.Active(), len(w.Visible()))

				return nil
			})
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write the collection as a JSON array",
		Long:  "Writes to FILE, or to stdout when FILE is omitted or \"-\".",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withWidget(cmd.Context(), func(ctx context.Context, w *app.Widget) error {
				if len(args) == 0 || args[0] == "-" {
					return w.Export(ctx, cmd.OutOrStdout())
				}

				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("creating export file: %w", err)
				}

				if err := w.Export(ctx, f); err != nil {
					_ = f.Close()
					return err
				}

				if err := f.Close(); err != nil {
					return fmt.Errorf("writing export file: %w", err)
				}

				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d quotes to %s.\n", len(w.Store.Quotes()), args[0])

				return nil
			})
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the collection with a JSON array",
		Long:  "Reads FILE, or stdin when FILE is \"-\". A malformed file changes nothing.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()

			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening import file: %w", err)
				}
				defer f.Close()

				in = f
			}

			return c.withWidget(cmd.Context(), func(ctx context.Context, w *app.Widget) error {
				n, err := w.Import(ctx, in)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d quotes.\n", n)

				return nil
			})
		},
	}
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default quotes and clear the filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withWidget(cmd.Context(), func(ctx context.Context, w *app.Widget) error {
				if err := w.Reset(ctx); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d default quotes.\n", len(w.Store.Quotes()))

				return nil
			})
		},
	}
}

func (c *cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the remote feed once and merge it if the local copy is stale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withWidget(cmd.Context(), func(ctx context.Context, w *app.Widget) error {
				result := w.SyncNow(ctx)

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, w.Sync.StatusLine())

				if result.Err != nil {
					return fmt.Errorf("sync failed: %w", result.Err)
				}

				switch result.Status {
				case domain.SyncStatusMerged:
					fmt.Fprintf(out, "Merged %d quotes.\n", result.Merged)
				default:
					fmt.Fprintln(out, "Already up to date.")
				}

				return nil
			})
		},
	}
}

func printQuote(w io.Writer, q domain.Quote) {
	fmt.Fprintf(w, "%q\n  [%s]\n", q.Text, q.Category)
}

func printOption(w io.Writer, name string, active bool) {
	marker := " "
	if active {
		marker = "*"
	}

	fmt.Fprintf(w, "%s %s\n", marker, name)
}
