// Package loader rebuilds the product set from the inventory file.
//
// Load never fails. It always returns a usable (possibly empty) product set
// and an ordered list of warnings describing everything it had to skip or
// repair:
//
//   - file absent: empty set, the file will be created on the next save
//   - file unreadable: empty set
//   - file empty: empty set, no warning
//   - header not recognized: the file is copied aside (quarantined) and the
//     set starts empty
//   - otherwise each data line is decoded on its own; bad lines and
//     duplicate ids are skipped with a warning, the rest are kept
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/roach88/stockroom/internal/codec"
	"github.com/roach88/stockroom/internal/product"
)

// DefaultBackupSuffix is appended to the file name when quarantining.
const DefaultBackupSuffix = ".bak"

// maxBackupAttempts bounds the search for a free backup name.
const maxBackupAttempts = 1000

// WarningKind classifies a load warning.
type WarningKind string

const (
	WarnNotFound      WarningKind = "not_found"
	WarnUnreadable    WarningKind = "unreadable"
	WarnHeaderInvalid WarningKind = "header_invalid"
	WarnBadLine       WarningKind = "bad_line"
	WarnDuplicateID   WarningKind = "duplicate_id"
)

// Warning is one diagnostic produced while loading.
type Warning struct {
	Kind WarningKind `json:"kind"`

	// Line is the 1-based line number for line-level warnings, 0 otherwise.
	Line int `json:"line,omitempty"`

	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Message
}

// Options configures Load.
type Options struct {
	// BackupSuffix is appended to the path to name the quarantine copy.
	// Defaults to DefaultBackupSuffix.
	BackupSuffix string
}

// Result is what Load recovered from the file.
type Result struct {
	// Products in file order, duplicates and bad lines removed.
	Products []product.Product

	Warnings []Warning

	// BackupPath is set when the file was quarantined.
	BackupPath string
}

// Load reads path and returns the products it holds.
func Load(path string, opts Options) Result {
	suffix := opts.BackupSuffix
	if suffix == "" {
		suffix = DefaultBackupSuffix
	}

	var res Result
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.warn(WarnNotFound, 0, "file %s not found, will be created on next save", path)
		} else {
			res.warn(WarnUnreadable, 0, "cannot read %s: %v; starting with an empty inventory", path, err)
		}
		return res
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return res
	}

	lines := strings.Split(string(data), "\n")
	// Spreadsheet exports often start with a byte order mark.
	if !codec.IsHeader(strings.TrimPrefix(lines[0], "\ufeff")) {
		res.quarantine(path, suffix, data)
		return res
	}

	firstSeen := map[int64]int{}
	for i, line := range lines[1:] {
		lineNo := i + 2
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, lerr := codec.Decode(line, lineNo)
		if lerr != nil {
			res.warn(WarnBadLine, lineNo, "line %d skipped: %s", lineNo, lerr.Reason)
			continue
		}
		if first, ok := firstSeen[p.ID()]; ok {
			res.warn(WarnDuplicateID, lineNo,
				"line %d skipped: duplicate id %d, keeping line %d", lineNo, p.ID(), first)
			continue
		}
		firstSeen[p.ID()] = lineNo
		res.Products = append(res.Products, p)
	}
	return res
}

func (r *Result) warn(kind WarningKind, line int, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{
		Kind:    kind,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

// quarantine copies the unrecognized file aside. The original stays in place
// until the next successful save replaces it, so later loads of the same
// content reuse the backup already made.
func (r *Result) quarantine(path, suffix string, data []byte) {
	backup, exists, err := backupPath(path, suffix, data)
	if err == nil && !exists {
		err = copyFile(backup, path)
	}
	if err != nil {
		r.warn(WarnHeaderInvalid, 0,
			"header of %s not recognized and backup failed: %v; starting with an empty inventory", path, err)
		return
	}
	r.BackupPath = backup
	r.warn(WarnHeaderInvalid, 0,
		"header of %s not recognized; backup saved to %s, starting with an empty inventory", path, backup)
}

// backupPath walks path+suffix, path+suffix+".1", ... and returns the first
// candidate that already holds data (exists is true) or the first free one.
// Backups with other contents are never overwritten.
func backupPath(path, suffix string, data []byte) (candidate string, exists bool, err error) {
	candidate = path + suffix
	for n := 1; n <= maxBackupAttempts; n++ {
		existing, err := os.ReadFile(candidate)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return candidate, false, nil
		case err != nil:
			return "", false, err
		case bytes.Equal(existing, data):
			return candidate, true, nil
		}
		candidate = fmt.Sprintf("%s%s.%d", path, suffix, n)
	}
	return "", false, fmt.Errorf("no free backup name after %d attempts", maxBackupAttempts)
}

// copyFile copies src to a new file dst, removing dst if the copy fails.
func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if err == nil {
		err = out.Sync()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
	}
	return err
}
