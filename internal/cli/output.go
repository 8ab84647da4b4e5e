package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/roach88/stockroom/internal/durable"
	"github.com/roach88/stockroom/internal/product"
	"github.com/roach88/stockroom/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation refused or failed (conflict, not found, save failed, warnings on check)
	ExitCommandError = 2 // Command error (bad config, journal unavailable, etc.)
)

// Error codes reported in CLI output.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeInvalidField = "E002" // Field failed validation
	ErrCodeConflict     = "E003" // Id already in use
	ErrCodeNotFound     = "E004" // No product with that id
	ErrCodePersist      = "E005" // Save failed, change rolled back
	ErrCodeConfig       = "E006" // Config or journal problem
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// JSON reports whether output is machine-readable.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success outputs data in the configured format. In text mode text is
// printed instead of data.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Fail reports err with the error code that matches its type and returns
// the ExitError the command should return.
func (f *OutputFormatter) Fail(err error) error {
	code, exit := classify(err)
	_ = f.Error(code, err.Error(), errorDetails(err))
	return WrapExitError(exit, code, err)
}

// classify maps an error to its CLI error code and exit code.
func classify(err error) (string, int) {
	switch {
	case product.IsInvalidField(err):
		return ErrCodeInvalidField, ExitFailure
	case store.IsConflict(err):
		return ErrCodeConflict, ExitFailure
	case store.IsNotFound(err):
		return ErrCodeNotFound, ExitFailure
	case store.IsPersistFailure(err):
		return ErrCodePersist, ExitFailure
	case isConfigError(err):
		return ErrCodeConfig, ExitCommandError
	default:
		return ErrCodeGeneric, ExitFailure
	}
}

func errorDetails(err error) map[string]any {
	var fe *product.InvalidFieldError
	if errors.As(err, &fe) {
		return map[string]any{"field": fe.Field, "value": fe.Value, "reason": fe.Reason}
	}
	var pe *store.PersistError
	if errors.As(err, &pe) {
		details := map[string]any{"op": string(pe.Op), "id": pe.ID}
		var we *durable.WriteError
		if errors.As(err, &we) {
			details["path"] = we.Path
			details["stage"] = string(we.Stage)
		}
		return details
	}
	return nil
}

// ProductView is the JSON form of a product.
type ProductView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Price    string `json:"price"`
	Value    string `json:"value"`
}

func newProductView(p product.Product) ProductView {
	return ProductView{
		ID:       p.ID(),
		Name:     p.Name(),
		Quantity: p.Quantity(),
		Price:    p.PriceString(),
		Value:    product.FormatCents(p.Value()),
	}
}

func newProductViews(products []product.Product) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p))
	}
	return views
}

// writeTable renders products as aligned columns.
func writeTable(w io.Writer, products []product.Product) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQUANTITY\tPRICE\tVALUE")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
			p.ID(), p.Name(), p.Quantity(), p.PriceString(), product.FormatCents(p.Value()))
	}
	return tw.Flush()
}
