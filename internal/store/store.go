// Package store is the authoritative in-memory product index, kept in step
// with the inventory file.
//
// Every mutation is applied in memory, then the full product set is saved.
// If the save fails the mutation is undone before the error is returned, so
// after any call the index either matches what the last successful save
// persisted or is exactly what it was before the call.
//
// A Store is not safe for concurrent use.
package store

import (
	"cmp"
	"errors"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/roach88/stockroom/internal/durable"
	"github.com/roach88/stockroom/internal/loader"
	"github.com/roach88/stockroom/internal/product"
)

// Saver persists the complete product set.
type Saver interface {
	Save(products []product.Product) error
}

// Options configures Open.
type Options struct {
	// Path of the inventory file. Required.
	Path string

	// BackupSuffix names the quarantine copy of an unrecognized file.
	// Defaults to loader.DefaultBackupSuffix.
	BackupSuffix string

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Recorder is optional.
	Recorder Recorder
}

// Option configures New.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder reports every finished mutation to r.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithWarnings attaches load warnings to the store.
func WithWarnings(w []loader.Warning) Option {
	return func(s *Store) { s.warnings = slices.Clone(w) }
}

// WithPath records the file path reported by Path.
func WithPath(path string) Option {
	return func(s *Store) { s.path = path }
}

// Update lists the fields to change. Nil fields are left alone.
type Update struct {
	Quantity *int64
	Price    *float64
}

// Store holds the products by id.
type Store struct {
	saver    Saver
	path     string
	index    map[int64]*product.Product
	warnings []loader.Warning
	logger   *slog.Logger
	recorder Recorder

	// backupPath is where Open quarantined an unrecognized file.
	backupPath string

	// total caches TotalValue; nil when stale.
	total *int64
}

// Open loads the inventory file at opts.Path and returns a store that saves
// back to it. Load problems never fail Open; they are logged and kept in
// Warnings.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("open store: empty path")
	}

	res := loader.Load(opts.Path, loader.Options{BackupSuffix: opts.BackupSuffix})
	s := New(durable.New(opts.Path), res.Products,
		WithPath(opts.Path),
		WithWarnings(res.Warnings),
		WithLogger(opts.Logger),
		WithRecorder(opts.Recorder),
	)
	s.backupPath = res.BackupPath
	for _, w := range res.Warnings {
		s.logger.Warn("load warning", "path", opts.Path, "kind", string(w.Kind), "line", w.Line, "message", w.Message)
	}
	s.logger.Debug("store opened", "path", opts.Path, "products", len(s.index))
	return s, nil
}

// New returns a store over products that persists through saver.
// If products repeat an id, the first one wins.
func New(saver Saver, products []product.Product, opts ...Option) *Store {
	s := &Store{
		saver:  saver,
		index:  make(map[int64]*product.Product, len(products)),
		logger: slog.Default(),
	}
	for _, p := range products {
		if _, ok := s.index[p.ID()]; ok {
			continue
		}
		cp := p
		s.index[p.ID()] = &cp
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add inserts p and saves.
func (s *Store) Add(p product.Product) error {
	id := p.ID()
	if id <= 0 {
		// Only the zero Product can get here; New rejects everything else.
		err := &product.InvalidFieldError{
			Field:  product.FieldID,
			Value:  strconv.FormatInt(id, 10),
			Reason: "must be a positive integer",
		}
		s.record(OpAdd, id, OutcomeRejected, err)
		return err
	}
	if _, ok := s.index[id]; ok {
		err := &ConflictError{ID: id}
		s.record(OpAdd, id, OutcomeRejected, err)
		return err
	}

	cp := p
	s.index[id] = &cp
	s.invalidate()

	if err := s.saver.Save(s.snapshot()); err != nil {
		delete(s.index, id)
		s.invalidate()
		return s.rolledBack(OpAdd, id, err)
	}
	s.record(OpAdd, id, OutcomeApplied, nil)
	return nil
}

// Remove deletes the product with id and saves.
func (s *Store) Remove(id int64) error {
	prev, ok := s.index[id]
	if !ok {
		err := &NotFoundError{ID: id}
		s.record(OpRemove, id, OutcomeRejected, err)
		return err
	}

	delete(s.index, id)
	s.invalidate()

	if err := s.saver.Save(s.snapshot()); err != nil {
		s.index[id] = prev
		s.invalidate()
		return s.rolledBack(OpRemove, id, err)
	}
	s.record(OpRemove, id, OutcomeApplied, nil)
	return nil
}

// Update changes the quantity and/or price of the product with id and saves.
// All supplied fields are validated before anything changes. An Update with
// no fields is a successful no-op and does not save.
func (s *Store) Update(id int64, u Update) error {
	prev, ok := s.index[id]
	if !ok {
		err := &NotFoundError{ID: id}
		s.record(OpUpdate, id, OutcomeRejected, err)
		return err
	}
	if u.Quantity == nil && u.Price == nil {
		return nil
	}

	next := *prev
	if u.Quantity != nil {
		if err := next.SetQuantity(*u.Quantity); err != nil {
			s.record(OpUpdate, id, OutcomeRejected, err)
			return err
		}
	}
	if u.Price != nil {
		if err := next.SetPrice(*u.Price); err != nil {
			s.record(OpUpdate, id, OutcomeRejected, err)
			return err
		}
	}

	s.index[id] = &next
	s.invalidate()

	if err := s.saver.Save(s.snapshot()); err != nil {
		s.index[id] = prev
		s.invalidate()
		return s.rolledBack(OpUpdate, id, err)
	}
	s.record(OpUpdate, id, OutcomeApplied, nil)
	return nil
}

// Seed adds products in a single save, but only when the store is empty.
// It returns how many products were added. Repeated ids keep the first.
func (s *Store) Seed(products []product.Product) (int, error) {
	if !s.IsEmpty() || len(products) == 0 {
		return 0, nil
	}

	var added []int64
	for _, p := range products {
		if p.ID() <= 0 {
			continue
		}
		if _, ok := s.index[p.ID()]; ok {
			continue
		}
		cp := p
		s.index[p.ID()] = &cp
		added = append(added, p.ID())
	}
	s.invalidate()

	if err := s.saver.Save(s.snapshot()); err != nil {
		for _, id := range added {
			delete(s.index, id)
		}
		s.invalidate()
		return 0, s.rolledBack(OpSeed, 0, err)
	}
	for _, id := range added {
		s.record(OpSeed, id, OutcomeApplied, nil)
	}
	return len(added), nil
}

// FindByName returns the products whose name contains term, ignoring case,
// in ascending id order. A blank term matches nothing.
func (s *Store) FindByName(term string) []product.Product {
	var out []product.Product
	for _, p := range s.index {
		if p.MatchesName(term) {
			out = append(out, *p)
		}
	}
	sortByID(out)
	return out
}

// List returns every product in ascending id order.
func (s *Store) List() []product.Product {
	return s.snapshot()
}

// Get returns the product with id.
func (s *Store) Get(id int64) (product.Product, bool) {
	p, ok := s.index[id]
	if !ok {
		return product.Product{}, false
	}
	return *p, true
}

// Exists reports whether a product has id.
func (s *Store) Exists(id int64) bool {
	_, ok := s.index[id]
	return ok
}

// NextID suggests an id for a new product: one more than the largest id in
// use, or 1 for an empty store. The suggestion is advisory; Add still checks.
func (s *Store) NextID() int64 {
	var maxID int64
	for id := range s.index {
		maxID = max(maxID, id)
	}
	return maxID + 1
}

func (s *Store) Len() int      { return len(s.index) }
func (s *Store) IsEmpty() bool { return len(s.index) == 0 }

// Warnings returns the diagnostics produced when the file was loaded.
func (s *Store) Warnings() []loader.Warning {
	return slices.Clone(s.warnings)
}

// Path returns the inventory file path, if known.
func (s *Store) Path() string {
	return s.path
}

// BackupPath returns the quarantine copy made when the file was opened,
// or "" if none was made.
func (s *Store) BackupPath() string {
	return s.backupPath
}

// TotalValue returns the sum of quantity times unit price over all products,
// in cents, saturating at math.MaxInt64. The result is cached until the next
// mutation.
func (s *Store) TotalValue() int64 {
	if s.total != nil {
		return *s.total
	}
	var total int64
	for _, p := range s.index {
		v := p.Value()
		if total > math.MaxInt64-v {
			total = math.MaxInt64
			break
		}
		total += v
	}
	s.total = &total
	return total
}

func (s *Store) invalidate() {
	s.total = nil
}

func (s *Store) snapshot() []product.Product {
	out := make([]product.Product, 0, len(s.index))
	for _, p := range s.index {
		out = append(out, *p)
	}
	sortByID(out)
	return out
}

func (s *Store) rolledBack(op OpKind, id int64, cause error) error {
	err := &PersistError{Op: op, ID: id, Err: cause}
	s.logger.Error("save failed, change rolled back", "op", string(op), "id", id, "error", cause)
	s.record(op, id, OutcomeRolledBack, err)
	return err
}

func (s *Store) record(kind OpKind, id int64, outcome Outcome, err error) {
	if outcome == OutcomeApplied {
		s.logger.Debug("operation applied", "op", string(kind), "id", id)
	}
	if s.recorder == nil {
		return
	}
	op := Operation{Kind: kind, ProductID: id, Outcome: outcome, Err: err}
	if rerr := s.recorder.RecordOperation(op); rerr != nil {
		s.logger.Warn("record operation failed", "op", string(kind), "id", id, "error", rerr)
	}
}

func sortByID(products []product.Product) {
	slices.SortFunc(products, func(a, b product.Product) int {
		return cmp.Compare(a.ID(), b.ID())
	})
}
