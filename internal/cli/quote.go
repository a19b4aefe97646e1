package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"medlab/catalog/internal/container"
	"medlab/catalog/internal/quote"
)

func (a *app) quoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Manage the quote request list",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the request list",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withQuote(cmd, func(ctx context.Context, c *container.Container, m *quote.Manager) error {
					return printQuote(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "add <product-id>",
			Short: "Add a product, or one more of it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withQuote(cmd, func(ctx context.Context, c *container.Container, m *quote.Manager) error {
					engine, _ := c.Browser.Engine()
					product, ok := engine.Product(args[0])
					if !ok {
						return fmt.Errorf("unknown product %q", args[0])
					}
					if err := m.AddItem(ctx, product); err != nil {
						return err
					}
					return printQuote(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a product from the list",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withQuote(cmd, func(ctx context.Context, c *container.Container, m *quote.Manager) error {
					if err := m.RemoveItem(ctx, args[0]); err != nil {
						return err
					}
					return printQuote(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "set <product-id> <quantity>",
			Short: "Set the quantity of a listed product; 0 or less removes it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				quantity, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid quantity %q: %w", args[1], err)
				}
				return a.withQuote(cmd, func(ctx context.Context, c *container.Container, m *quote.Manager) error {
					if err := m.UpdateQuantity(ctx, args[0], quantity); err != nil {
						return err
					}
					return printQuote(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the request list",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withQuote(cmd, func(ctx context.Context, c *container.Container, m *quote.Manager) error {
					if err := m.Clear(ctx); err != nil {
						return err
					}
					return printQuote(cmd, m)
				})
			},
		},
	)

	return cmd
}

// withQuote is withContainer for commands that need the restored request list.
func (a *app) withQuote(cmd *cobra.Command, fn func(ctx context.Context, c *container.Container, m *quote.Manager) error) error {
	return a.withContainer(cmd, func(ctx context.Context, c *container.Container) error {
		m, err := c.QuoteManager()
		if err != nil {
			return err
		}
		return fn(ctx, c, m)
	})
}

func printQuote(cmd *cobra.Command, m *quote.Manager) error {
	out := cmd.OutOrStdout()
	items := m.Items()
	if len(items) == 0 {
		fmt.Fprintln(out, "Your request list is empty")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tQTY")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%d\n", item.Product.ID, item.Product.Name, item.Quantity)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Total items: %d\n", m.ItemCount())
	fmt.Fprintf(out, "Request: %s\n", m.Summary())
	return nil
}
