package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// ConfigPath is the YAML config file. Empty uses built-in defaults.
	ConfigPath string

	// DataFile overrides data_file from the config.
	DataFile string

	// Journal overrides journal from the config. Only applied when the
	// flag was set, so --journal "" disables a configured journal.
	Journal string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the stockroom CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stockroom",
		Short: "stockroom - a small product catalog kept in a CSV file",
		Long: `Manage a catalog of products stored in a plain CSV file.

Every change is written to a temporary file and renamed over the catalog,
so the file is always either the old version or the new one. A file that
cannot be read cleanly is recovered line by line, and a file with an
unrecognized header is copied aside before it is replaced.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				err := fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				return newFormatter(opts, cmd).Fail(&configError{err: err})
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVarP(&opts.DataFile, "file", "f", "", "inventory file (overrides data_file)")
	cmd.PersistentFlags().StringVar(&opts.Journal, "journal", "", "operation journal database (overrides journal)")

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewNextIDCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}
