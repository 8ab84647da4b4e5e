package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stockroom/internal/product"
)

// ListResult is the JSON payload of list and search.
type ListResult struct {
	Products   []ProductView `json:"products"`
	Count      int           `json:"count"`
	TotalValue string        `json:"total_value,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all products with the total inventory value",
		Long: `List every product in ascending id order, followed by the total
inventory value (quantity times unit price, summed).

Examples:
  stockroom list
  stockroom list --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	products := s.store.List()
	total := product.FormatCents(s.store.TotalValue())

	if s.out.JSON() {
		return s.out.Success(ListResult{
			Products:   newProductViews(products),
			Count:      len(products),
			TotalValue: total,
		}, "")
	}

	if len(products) == 0 {
		fmt.Fprintln(s.out.Writer, "No products.")
		return nil
	}
	if err := writeTable(s.out.Writer, products); err != nil {
		return s.out.Fail(err)
	}
	fmt.Fprintf(s.out.Writer, "\nTotal value: %s (%d products)\n", total, len(products))
	return nil
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>...",
		Short: "Find products whose name contains a term",
		Long: `Find products whose name contains the term, ignoring case.
Several arguments are joined with single spaces.

Examples:
  stockroom search manzana
  stockroom search jugo de`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(rootOpts, strings.Join(args, " "), cmd)
		},
	}
}

func runSearch(opts *RootOptions, term string, cmd *cobra.Command) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	matches := s.store.FindByName(term)
	if s.out.JSON() {
		return s.out.Success(ListResult{
			Products: newProductViews(matches),
			Count:    len(matches),
		}, "")
	}

	if len(matches) == 0 {
		fmt.Fprintf(s.out.Writer, "No products match %q.\n", strings.TrimSpace(term))
		return nil
	}
	if err := writeTable(s.out.Writer, matches); err != nil {
		return s.out.Fail(err)
	}
	return nil
}

// NewNextIDCommand creates the next-id command.
func NewNextIDCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "next-id",
		Short:         "Print the suggested id for a new product",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.close()

			id := s.store.NextID()
			return s.out.Success(map[string]int64{"next_id": id}, fmt.Sprint(id))
		},
	}
}
