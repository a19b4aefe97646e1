package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"medlab/catalog/internal/catalog"
	"medlab/catalog/internal/container"
	"medlab/catalog/internal/domain"
)

func (a *app) productsCommand() *cobra.Command {
	var category, search, sort string

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products, filtered by category and search term",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				engine, _ := c.Browser.Engine()
				opt, err := engine.ParseSort(catalog.SortOption(sort))
				if err != nil {
					return err
				}
				c.Browser.SetCategory(category)
				c.Browser.SetSearch(search)
				c.Browser.SetSort(opt)
				view := c.Browser.View()

				printProducts(cmd.OutOrStdout(), view.Products.Items)
				fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d products\n", view.Products.Filtered, view.Products.Total)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", catalog.AllCategories, "main category id or category slug")
	cmd.Flags().StringVar(&search, "search", "", "search name and description")
	cmd.Flags().StringVar(&sort, "sort", string(catalog.DefaultSort), "name-asc or none")
	return cmd
}

func (a *app) categoriesCommand() *cobra.Command {
	var category, search, sort string
	var featured bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				engine, _ := c.Browser.Engine()
				opt, err := engine.ParseSort(catalog.SortOption(sort))
				if err != nil {
					return err
				}
				c.Browser.SetCategory(category)
				c.Browser.SetSearch(search)
				c.Browser.SetSort(opt)
				c.Browser.SetFeaturedOnly(featured)
				view := c.Browser.View()

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "SLUG\tNAME\tMAIN CATEGORY\tFEATURED")
				for _, pc := range view.Categories.Items {
					main := pc.MainCategory
					if m, ok := engine.MainCategory(pc.MainCategory); ok {
						main = m.Name
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", pc.Slug, pc.Name, main, yesNo(pc.Featured))
				}
				w.Flush()

				fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d categories\n", view.Categories.Filtered, view.Categories.Total)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", catalog.AllCategories, "main category id or category slug")
	cmd.Flags().StringVar(&search, "search", "", "search names, descriptions and subcategories")
	cmd.Flags().StringVar(&sort, "sort", string(catalog.DefaultSort), "name-asc or none")
	cmd.Flags().BoolVar(&featured, "featured", false, "only featured categories")
	return cmd
}

func (a *app) categoryCommand() *cobra.Command {
	var search, subcategory string

	cmd := &cobra.Command{
		Use:   "category <slug>",
		Short: "Show one category with its products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd, func(ctx context.Context, c *container.Container) error {
				engine, _ := c.Browser.Engine()
				page, ok := engine.CategoryPage(args[0], search, subcategory)
				if !ok {
					return fmt.Errorf("unknown category %q", args[0])
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s\n%s\n", page.Category.Name, page.Category.Description)
				if main, ok := page.Main.Get(); ok {
					fmt.Fprintf(out, "Main category: %s\n", main.Name)
				}
				if len(page.Subcategories) > 0 {
					fmt.Fprintf(out, "Subcategories: %s\n", strings.Join(page.Subcategories, ", "))
				}
				fmt.Fprintln(out)

				printProducts(out, page.Products.Items)
				fmt.Fprintf(out, "Showing %d of %d products\n", page.Products.Filtered, page.Products.Total)

				if len(page.Related) > 0 {
					names := make([]string, 0, len(page.Related))
					for _, r := range page.Related {
						names = append(names, r.Slug)
					}
					fmt.Fprintf(out, "Related: %s\n", strings.Join(names, ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "search name and description")
	cmd.Flags().StringVar(&subcategory, "subcategory", catalog.AllSubcategories, "subcategory label")
	return cmd
}

func printProducts(out io.Writer, products []domain.Product) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tBRAND")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.CategorySlug, p.Brand.OrElse("-"))
	}
	w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
