package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/stockroom/internal/journal"
	"github.com/roach88/stockroom/internal/loader"
	"github.com/roach88/stockroom/internal/product"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty inventory with sample products",
		Long: `Add the five sample products in a single save. Nothing happens when the
inventory already holds products.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, cmd)
		},
	}
}

func runSeed(opts *RootOptions, cmd *cobra.Command) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	added, err := s.store.Seed(product.Samples())
	if err != nil {
		return s.out.Fail(err)
	}

	text := fmt.Sprintf("Seeded %d sample products.", added)
	if added == 0 {
		text = "Inventory is not empty; nothing seeded."
	}
	return s.out.Success(map[string]int{"added": added}, text)
}

// CheckResult is the JSON payload of check.
type CheckResult struct {
	Path       string           `json:"path"`
	Products   int              `json:"products"`
	Warnings   []loader.Warning `json:"warnings"`
	BackupPath string           `json:"backup_path,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the inventory file and report problems",
		Long: `Load the inventory file and report every line that had to be skipped.
The file itself is not rewritten, although an unrecognized file is still
copied aside.

Exit codes:
  0 - File loaded cleanly (or does not exist yet)
  1 - Lines were skipped or the header was not recognized
  2 - Command error (bad config, etc.)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd)
		},
	}
}

func runCheck(opts *RootOptions, cmd *cobra.Command) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	warnings := s.store.Warnings()
	result := CheckResult{
		Path:       s.store.Path(),
		Products:   s.store.Len(),
		Warnings:   warnings,
		BackupPath: s.store.BackupPath(),
	}
	problems := 0
	for _, w := range warnings {
		if w.Kind != loader.WarnNotFound {
			problems++
		}
	}
	if result.Warnings == nil {
		result.Warnings = []loader.Warning{}
	}

	if s.out.JSON() {
		if err := s.out.Success(result, ""); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(s.out.Writer, "%s: %d products, %d problems\n", result.Path, result.Products, problems)
		for _, w := range warnings {
			fmt.Fprintf(s.out.Writer, "  %s\n", w)
		}
	}

	if problems > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d load problems", problems))
	}
	return nil
}

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit     int
	ProductID string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded operations from the journal",
		Long: `Show the most recent operations recorded in the journal, oldest first.
Requires a journal (journal in the config file, or --journal).

Examples:
  stockroom --journal ./journal.db history
  stockroom --journal ./journal.db history --id 3
  stockroom --journal ./journal.db history --limit 50 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of entries to show (0 = all)")
	cmd.Flags().StringVar(&opts.ProductID, "id", "", "only show entries for this product id")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if s.journal == nil {
		return s.out.Fail(&configError{err: errors.New("no journal available; set journal in the config or pass --journal")})
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var entries []journal.Entry
	if opts.ProductID != "" {
		id, err := parseID(opts.ProductID)
		if err != nil {
			return s.out.Fail(err)
		}
		entries, err = s.journal.ForProduct(ctx, id)
		if err != nil {
			return s.out.Fail(err)
		}
	} else {
		entries, err = s.journal.List(ctx, opts.Limit)
		if err != nil {
			return s.out.Fail(err)
		}
	}
	if entries == nil {
		entries = []journal.Entry{}
	}

	if s.out.JSON() {
		return s.out.Success(entries, "")
	}
	if len(entries) == 0 {
		fmt.Fprintln(s.out.Writer, "No recorded operations.")
		return nil
	}

	tw := tabwriter.NewWriter(s.out.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tTIME\tOP\tID\tOUTCOME\tMESSAGE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			e.Seq, e.RecordedAt.Format(time.RFC3339), e.Kind, e.ProductID, e.Outcome, e.Message)
	}
	return tw.Flush()
}
