package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stockroom/internal/product"
	"github.com/roach88/stockroom/internal/store"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	ID       string
	Name     string
	Quantity string
	Price    string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Long: `Add a product to the inventory and save the file.

When --id is omitted the next free id (largest id + 1) is used.

Examples:
  stockroom add --name "Manzana Roja" --quantity 100 --price 0.50
  stockroom add --id 42 --name "Pan Integral" --quantity 30 --price 2.50`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "product id (default: next free id)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "product name (required)")
	cmd.Flags().StringVar(&opts.Quantity, "quantity", "", "units in stock (required)")
	cmd.Flags().StringVar(&opts.Price, "price", "", "unit price (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("quantity")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func runAdd(opts *AddOptions, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	id := opts.ID
	if !cmd.Flags().Changed("id") {
		id = strconv.FormatInt(s.store.NextID(), 10)
	}

	p, err := product.Parse(id, opts.Name, opts.Quantity, opts.Price)
	if err != nil {
		return s.out.Fail(err)
	}
	if err := s.store.Add(p); err != nil {
		return s.out.Fail(err)
	}
	return s.out.Success(newProductView(p), "Added "+p.String())
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a product",
		Long: `Remove the product with the given id and save the file.

Example:
  stockroom remove 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runRemove(opts *RootOptions, rawID string, cmd *cobra.Command) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	id, err := parseID(rawID)
	if err != nil {
		return s.out.Fail(err)
	}
	p, _ := s.store.Get(id)
	if err := s.store.Remove(id); err != nil {
		return s.out.Fail(err)
	}
	return s.out.Success(newProductView(p), fmt.Sprintf("Removed #%d %s", p.ID(), p.Name()))
}

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Quantity string
	Price    string
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the quantity and/or price of a product",
		Long: `Change the quantity and/or price of a product and save the file.

Both values are validated before anything changes. With neither flag the
command only checks that the product exists.

Examples:
  stockroom update 1 --quantity 90
  stockroom update 1 --quantity 90 --price 0.45`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Quantity, "quantity", "", "new units in stock")
	cmd.Flags().StringVar(&opts.Price, "price", "", "new unit price")

	return cmd
}

func runUpdate(opts *UpdateOptions, rawID string, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	id, err := parseID(rawID)
	if err != nil {
		return s.out.Fail(err)
	}

	var u store.Update
	if cmd.Flags().Changed("quantity") {
		q, err := product.ParseQuantity(opts.Quantity)
		if err != nil {
			return s.out.Fail(err)
		}
		u.Quantity = &q
	}
	if cmd.Flags().Changed("price") {
		p, err := product.ParsePrice(opts.Price)
		if err != nil {
			return s.out.Fail(err)
		}
		u.Price = &p
	}

	if err := s.store.Update(id, u); err != nil {
		return s.out.Fail(err)
	}

	p, _ := s.store.Get(id)
	text := "Updated " + p.String()
	if u.Quantity == nil && u.Price == nil {
		text = "Nothing to update for " + p.String()
	}
	return s.out.Success(newProductView(p), text)
}

// parseID parses a product id typed by the user.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &product.InvalidFieldError{Field: product.FieldID, Value: raw, Reason: "must be an integer"}
	}
	return id, nil
}
