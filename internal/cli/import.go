package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"medlab/catalog/internal/container"
	"medlab/catalog/internal/service"
)

var ErrIntegrity = errors.New("catalogue has integrity issues")

func (a *app) importCommand() *cobra.Command {
	var to, out string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy the configured catalogue source into a JSON file or postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withServices(cmd, func(ctx context.Context, c *container.Container) error {
				var sink service.Sink
				switch to {
				case "file":
					sink = service.NewFileSink(out)
				case "postgres":
					repo, err := c.Repository(ctx)
					if err != nil {
						return err
					}
					sink = service.NewPostgresSink(repo)
				default:
					return fmt.Errorf("unknown import target %q", to)
				}

				report, err := c.Importer.Import(ctx, c.Source, sink)
				if err != nil {
					return err
				}
				printReport(cmd, report)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "file", "file or postgres")
	cmd.Flags().StringVar(&out, "out", "catalog.json", "output path for --to file")
	return cmd
}

func (a *app) checkCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configured catalogue source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withServices(cmd, func(ctx context.Context, c *container.Container) error {
				report, err := c.Importer.Check(ctx, c.Source)
				if err != nil {
					return err
				}
				printReport(cmd, report)
				if strict && len(report.Issues) > 0 {
					return fmt.Errorf("%w: %d found", ErrIntegrity, len(report.Issues))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when issues are found")
	return cmd
}

func printReport(cmd *cobra.Command, report *service.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source: %s\n", report.Source)
	if report.Sink != "" {
		fmt.Fprintf(out, "Target: %s\n", report.Sink)
	}
	fmt.Fprintf(out, "Main categories: %d\nCategories: %d\nProducts: %d\n",
		report.MainCategories, report.Categories, report.Products)
	if len(report.Issues) == 0 {
		fmt.Fprintln(out, "No integrity issues")
		return
	}
	fmt.Fprintf(out, "Integrity issues: %d\n", len(report.Issues))
	for _, issue := range report.Issues {
		fmt.Fprintf(out, "  %s\n", issue)
	}
}
