// Package durable persists the full product set to the inventory file.
//
// Save never writes to the target path directly. It writes a temporary file
// in the target's directory, fsyncs and closes it, and renames it over the
// target. The rename is the only operation that touches the target path, so
// a reader (or a process restarted after a crash) sees either the old file
// or the new one, never a mix.
//
// The temporary file must live in the same directory as the target: that is
// what makes the final step a single rename(2) rather than a cross-device
// copy.
package durable

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/renameio/v2"

	"github.com/roach88/stockroom/internal/codec"
	"github.com/roach88/stockroom/internal/product"
)

// Stage identifies where a save failed.
type Stage string

const (
	// StageCreate: the temporary file could not be created.
	StageCreate Stage = "create"

	// StageWrite: writing or flushing records to the temporary file failed.
	StageWrite Stage = "write"

	// StageCommit: fsync, close or rename failed. The target may be unchanged.
	StageCommit Stage = "commit"
)

// WriteError reports a failed save. The target file is left untouched for
// failures before the rename; callers must not assume it changed either way.
type WriteError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("save %s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Writer saves product sets to one target path.
type Writer struct {
	path string
	perm os.FileMode

	// beforeCommit runs after all records are written and before the rename.
	// Tests use it to simulate a crash at the worst possible moment.
	beforeCommit func() error
}

// New returns a Writer for path. The file is created with mode 0644.
func New(path string) *Writer {
	return &Writer{path: path, perm: 0o644}
}

// Path returns the target path.
func (w *Writer) Path() string {
	return w.path
}

// Save replaces the target file with the header and one line per product,
// in ascending id order. The products slice is not modified.
func (w *Writer) Save(products []product.Product) error {
	sorted := slices.Clone(products)
	slices.SortFunc(sorted, func(a, b product.Product) int {
		return cmp.Compare(a.ID(), b.ID())
	})

	dir := filepath.Dir(w.path)
	pf, err := renameio.NewPendingFile(w.path,
		renameio.WithTempDir(dir),
		renameio.WithPermissions(w.perm),
	)
	if err != nil {
		return &WriteError{Path: w.path, Stage: StageCreate, Err: err}
	}
	// No-op after a successful CloseAtomicallyReplace; otherwise removes the temp file.
	defer pf.Cleanup()

	if err := codec.WriteAll(pf, sorted); err != nil {
		return &WriteError{Path: w.path, Stage: StageWrite, Err: err}
	}

	if w.beforeCommit != nil {
		if err := w.beforeCommit(); err != nil {
			return &WriteError{Path: w.path, Stage: StageCommit, Err: err}
		}
	}

	if err := pf.CloseAtomicallyReplace(); err != nil {
		return &WriteError{Path: w.path, Stage: StageCommit, Err: err}
	}

	// Persist the directory entry too. Best effort: the data is already renamed.
	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
