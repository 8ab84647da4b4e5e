package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/stockroom/internal/store"
)

// Entry is one recorded store operation.
type Entry struct {
	ID         string    `json:"id"`
	Seq        int64     `json:"seq"`
	Kind       string    `json:"kind"`
	ProductID  int64     `json:"product_id"`
	Outcome    string    `json:"outcome"`
	Message    string    `json:"message,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Append stores e and returns it with ID, Seq and RecordedAt filled in.
// A caller-supplied ID or RecordedAt is kept; Seq is always assigned here.
func (j *Journal) Append(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = j.ids.Generate()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = j.now()
	}
	e.RecordedAt = e.RecordedAt.UTC()
	e.Seq = j.clock.Next()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO operations
		(seq, id, kind, product_id, outcome, message, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		e.Seq,
		e.ID,
		e.Kind,
		e.ProductID,
		e.Outcome,
		e.Message,
		e.RecordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("append entry: %w", err)
	}
	return e, nil
}

// List returns the most recent limit entries in ascending seq order.
// A limit of zero or less returns every entry.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT seq, id, kind, product_id, outcome, message, recorded_at
		FROM operations
		ORDER BY seq ASC
	`
	var args []any
	if limit > 0 {
		query = `
			SELECT seq, id, kind, product_id, outcome, message, recorded_at
			FROM (
				SELECT seq, id, kind, product_id, outcome, message, recorded_at
				FROM operations
				ORDER BY seq DESC
				LIMIT ?
			)
			ORDER BY seq ASC
		`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return scanEntries(rows)
}

// ForProduct returns every entry recorded for productID in seq order.
func (j *Journal) ForProduct(ctx context.Context, productID int64) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, id, kind, product_id, outcome, message, recorded_at
		FROM operations
		WHERE product_id = ?
		ORDER BY seq ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("list entries for product %d: %w", productID, err)
	}
	return scanEntries(rows)
}

// RecordOperation appends op. It makes *Journal a store.Recorder.
func (j *Journal) RecordOperation(op store.Operation) error {
	e := Entry{
		Kind:      string(op.Kind),
		ProductID: op.ProductID,
		Outcome:   string(op.Outcome),
	}
	if op.Err != nil {
		e.Message = op.Err.Error()
	}
	e, err := j.Append(context.Background(), e)
	if err != nil {
		return err
	}
	j.logger.Debug("journal entry recorded", "seq", e.Seq, "kind", e.Kind, "id", e.ProductID)
	return nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var recordedAt string
		if err := rows.Scan(&e.Seq, &e.ID, &e.Kind, &e.ProductID, &e.Outcome, &e.Message, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("entry %d: parse recorded_at %q: %w", e.Seq, recordedAt, err)
		}
		e.RecordedAt = t
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
