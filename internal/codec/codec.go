// Package codec converts products to and from lines of the inventory file.
//
// The file is CSV (RFC 4180) with one record per line and a fixed header:
//
//	id,name,quantity,price
//	1,Manzana Roja,100,0.50
//	7,"Queso ""Manchego"", curado",3,12.00
//
// Names containing the delimiter or a quote are quoted, so Decode(Encode(p))
// returns p exactly. Prices are always written with two fractional digits.
package codec

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/stockroom/internal/product"
)

var header = []string{"id", "name", "quantity", "price"}

// FieldCount is the number of columns in every record.
const FieldCount = 4

// Header returns the canonical header tokens.
func Header() []string {
	return append([]string(nil), header...)
}

// HeaderLine returns the header as it appears in the file, without newline.
func HeaderLine() string {
	return strings.Join(header, ",")
}

// LineError describes a line that could not be decoded.
type LineError struct {
	Line   int
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Encode renders p as one line without a trailing newline.
func Encode(p product.Product) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	// csv.Writer only fails when the underlying writer does; strings.Builder never does.
	_ = w.Write(fields(p))
	w.Flush()
	return strings.TrimSuffix(sb.String(), "\n")
}

// Decode parses one data line. lineNumber is only used for the error.
// Decode never panics; every problem is reported as a *LineError.
func Decode(line string, lineNumber int) (product.Product, *LineError) {
	rec, err := splitLine(line)
	if err != nil {
		return product.Product{}, &LineError{Line: lineNumber, Reason: err.Error()}
	}
	if len(rec) != FieldCount {
		return product.Product{}, &LineError{
			Line:   lineNumber,
			Reason: fmt.Sprintf("expected %d fields, found %d", FieldCount, len(rec)),
		}
	}
	p, err := product.Parse(rec[0], rec[1], rec[2], rec[3])
	if err != nil {
		return product.Product{}, &LineError{Line: lineNumber, Reason: err.Error()}
	}
	return p, nil
}

// IsHeader reports whether line holds exactly the canonical header tokens.
func IsHeader(line string) bool {
	rec, err := splitLine(line)
	if err != nil || len(rec) != len(header) {
		return false
	}
	for i := range header {
		if rec[i] != header[i] {
			return false
		}
	}
	return true
}

// WriteAll writes the header followed by one line per product, in the given order.
func WriteAll(w io.Writer, products []product.Product) error {
	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range products {
		if err := cw.Write(fields(p)); err != nil {
			return fmt.Errorf("write product %d: %w", p.ID(), err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return bw.Flush()
}

func fields(p product.Product) []string {
	return []string{
		strconv.FormatInt(p.ID(), 10),
		p.Name(),
		strconv.FormatInt(p.Quantity(), 10),
		p.PriceString(),
	}
}

// splitLine parses a single CSV record. Field count is checked by the caller.
func splitLine(line string) ([]string, error) {
	line = strings.TrimSuffix(line, "\r")
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	// Hand-edited files may carry a quote inside an unquoted name.
	r.LazyQuotes = true
	rec, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty line")
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, pe.Err
		}
		return nil, err
	}
	return rec, nil
}
