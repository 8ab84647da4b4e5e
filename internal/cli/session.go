package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/stockroom/internal/config"
	"github.com/roach88/stockroom/internal/journal"
	"github.com/roach88/stockroom/internal/logging"
	"github.com/roach88/stockroom/internal/store"
)

// configError marks problems with settings rather than with the inventory.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func isConfigError(err error) bool {
	var ce *configError
	return errors.As(err, &ce)
}

// session is everything one command invocation needs.
type session struct {
	cfg     config.Config
	out     *OutputFormatter
	logger  *slog.Logger
	store   *store.Store
	journal *journal.Journal
}

// newFormatter builds the formatter for cmd without touching any files.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// resolveConfig loads the config file and applies flag overrides.
func resolveConfig(opts *RootOptions, cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, &configError{err: err}
	}
	if opts.DataFile != "" {
		cfg.DataFile = opts.DataFile
	}
	if flag := cmd.Flags().Lookup("journal"); flag != nil && flag.Changed {
		cfg.Journal = opts.Journal
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, &configError{err: err}
	}
	return cfg, nil
}

// openSession resolves the config, sets up logging, opens the journal (if
// any) and loads the store. Load warnings are logged at WARN to stderr.
//
// A journal that cannot be opened is logged and skipped: it is an audit aid
// and must not block changes to the inventory.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := newFormatter(opts, cmd)

	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return nil, out.Fail(err)
	}

	logger := logging.Setup(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	s := &session{cfg: cfg, out: out, logger: logger}

	storeOpts := store.Options{
		Path:         cfg.DataFile,
		BackupSuffix: cfg.BackupSuffix,
		Logger:       logger,
	}
	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal, journal.WithLogger(logger))
		if err != nil {
			logger.Warn("journal unavailable, continuing without it", "path", cfg.Journal, "error", err)
		} else {
			s.journal = j
			storeOpts.Recorder = j
		}
	}

	st, err := store.Open(storeOpts)
	if err != nil {
		s.close()
		return nil, out.Fail(&configError{err: err})
	}
	s.store = st
	out.VerboseLog("loaded %d product(s) from %s", st.Len(), cfg.DataFile)
	return s, nil
}

func (s *session) close() {
	if s.journal == nil {
		return
	}
	if err := s.journal.Close(); err != nil {
		s.logger.Error("error closing journal", "error", err)
	}
}
