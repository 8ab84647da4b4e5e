package store

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stockroom/internal/durable"
	"github.com/roach88/stockroom/internal/loader"
	"github.com/roach88/stockroom/internal/logging"
	"github.com/roach88/stockroom/internal/product"
	"github.com/roach88/stockroom/internal/testutil"
)

// opRecorder captures reported operations.
type opRecorder struct {
	ops []Operation
	err error
}

func (r *opRecorder) RecordOperation(op Operation) error {
	r.ops = append(r.ops, op)
	return r.err
}

func sampleStore(t *testing.T) (*Store, *testutil.MemorySaver) {
	t.Helper()
	saver := &testutil.MemorySaver{}
	s := New(saver, []product.Product{
		testutil.MustProduct(t, 1, "Manzana Roja", 100, 0.50),
		testutil.MustProduct(t, 2, "Manzana Verde", 80, 0.55),
		testutil.MustProduct(t, 3, "Leche Entera", 50, 1.20),
	}, WithLogger(logging.Discard()))
	return s, saver
}

func ptr[T any](v T) *T { return &v }

func TestAdd_SavesFullSet(t *testing.T) {
	s, saver := sampleStore(t)

	require.NoError(t, s.Add(testutil.MustProduct(t, 4, "Pan Integral", 30, 2.50)))

	assert.Equal(t, 4, s.Len())
	require.Len(t, saver.Saves, 1)
	assert.Equal(t, s.List(), saver.Last())
}

func TestAdd_Conflict(t *testing.T) {
	s, saver := sampleStore(t)
	before := s.List()

	err := s.Add(testutil.MustProduct(t, 1, "Manzana X", 10, 1.00))
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, int64(1), ce.ID)
	assert.Equal(t, "product 1 already exists", err.Error())

	assert.Equal(t, before, s.List())
	assert.Zero(t, saver.Attempts)
}

func TestAdd_ZeroProductRejected(t *testing.T) {
	s, saver := sampleStore(t)
	err := s.Add(product.Product{})
	assert.True(t, product.IsInvalidField(err))
	assert.Zero(t, saver.Attempts)
}

func TestAdd_RollbackOnSaveFailure(t *testing.T) {
	s, saver := sampleStore(t)
	before := s.List()
	saver.Fail = true

	err := s.Add(testutil.MustProduct(t, 9, "Agua", 10, 0.80))
	require.Error(t, err)
	assert.True(t, IsPersistFailure(err))
	assert.ErrorIs(t, err, testutil.ErrSaveFailed)

	assert.Equal(t, before, s.List())
	assert.False(t, s.Exists(9))
}

func TestRemove(t *testing.T) {
	s, saver := sampleStore(t)

	require.NoError(t, s.Remove(2))
	assert.False(t, s.Exists(2))
	assert.Equal(t, []int64{1, 3}, productIDs(saver.Last()))
}

func TestRemove_NotFound(t *testing.T) {
	s, saver := sampleStore(t)

	err := s.Remove(42)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "product 42 not found", err.Error())
	assert.Equal(t, 3, s.Len())
	assert.Zero(t, saver.Attempts)
}

func TestRemove_RollbackOnSaveFailure(t *testing.T) {
	s, saver := sampleStore(t)
	before := s.List()
	saver.Fail = true

	err := s.Remove(2)
	assert.True(t, IsPersistFailure(err))
	assert.Equal(t, before, s.List())
}

func TestUpdate(t *testing.T) {
	s, saver := sampleStore(t)

	require.NoError(t, s.Update(1, Update{Quantity: ptr(int64(7)), Price: ptr(0.999)}))

	p, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, int64(7), p.Quantity())
	assert.Equal(t, "1.00", p.PriceString())
	assert.Equal(t, "Manzana Roja", p.Name())
	assert.Equal(t, 1, saver.Attempts)
}

func TestUpdate_QuantityOnly(t *testing.T) {
	s, _ := sampleStore(t)

	require.NoError(t, s.Update(3, Update{Quantity: ptr(int64(0))}))

	p, _ := s.Get(3)
	assert.Equal(t, int64(0), p.Quantity())
	assert.Equal(t, "1.20", p.PriceString())
}

func TestUpdate_NoFieldsIsNoop(t *testing.T) {
	s, saver := sampleStore(t)
	require.NoError(t, s.Update(1, Update{}))
	assert.Zero(t, saver.Attempts)
}

func TestUpdate_NotFoundCheckedFirst(t *testing.T) {
	s, _ := sampleStore(t)
	assert.True(t, IsNotFound(s.Update(99, Update{})))
	assert.True(t, IsNotFound(s.Update(99, Update{Price: ptr(-1.0)})))
}

func TestUpdate_NegativePrice(t *testing.T) {
	s, saver := sampleStore(t)
	before := s.List()

	err := s.Update(1, Update{Price: ptr(-1.0)})
	require.Error(t, err)

	var fe *product.InvalidFieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, product.FieldPrice, fe.Field)

	assert.Equal(t, before, s.List())
	assert.Zero(t, saver.Attempts)
}

func TestUpdate_InvalidFieldLeavesOtherFieldAlone(t *testing.T) {
	s, _ := sampleStore(t)
	before := s.List()

	// The valid quantity must not be applied when the price is invalid.
	err := s.Update(1, Update{Quantity: ptr(int64(5)), Price: ptr(-3.0)})
	assert.True(t, product.IsInvalidField(err))
	assert.Equal(t, before, s.List())
}

func TestUpdate_RollbackOnSaveFailure(t *testing.T) {
	s, saver := sampleStore(t)
	before := s.List()
	saver.Fail = true

	err := s.Update(1, Update{Quantity: ptr(int64(1)), Price: ptr(9.99)})
	assert.True(t, IsPersistFailure(err))
	assert.Equal(t, before, s.List())
}

func TestFindByName(t *testing.T) {
	s, saver := sampleStore(t)

	tests := []struct {
		term     string
		expected []int64
	}{
		{"manzana", []int64{1, 2}},
		{"MANZANA", []int64{1, 2}},
		{"  verde ", []int64{2}},
		{"leche", []int64{3}},
		{"queso", nil},
		{"", nil},
		{"   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.expected, productIDs(s.FindByName(tt.term)))
		})
	}
	assert.Zero(t, saver.Attempts)
}

func TestList_SortedByID(t *testing.T) {
	s := New(&testutil.MemorySaver{}, []product.Product{
		testutil.MustProduct(t, 30, "c", 1, 1),
		testutil.MustProduct(t, 4, "a", 1, 1),
		testutil.MustProduct(t, 12, "b", 1, 1),
	})
	assert.Equal(t, []int64{4, 12, 30}, productIDs(s.List()))
}

func TestNew_DuplicateIDsKeepFirst(t *testing.T) {
	s := New(&testutil.MemorySaver{}, []product.Product{
		testutil.MustProduct(t, 1, "first", 1, 1),
		testutil.MustProduct(t, 1, "second", 1, 1),
	})
	p, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "first", p.Name())
	assert.Equal(t, 1, s.Len())
}

func TestReturnedProductsAreCopies(t *testing.T) {
	s, _ := sampleStore(t)

	list := s.List()
	require.NoError(t, list[0].SetQuantity(999))

	p, _ := s.Get(1)
	assert.Equal(t, int64(100), p.Quantity())
}

func TestNextID(t *testing.T) {
	s := New(&testutil.MemorySaver{}, nil)
	assert.Equal(t, int64(1), s.NextID())
	assert.True(t, s.IsEmpty())

	require.NoError(t, s.Add(testutil.MustProduct(t, 7, "x", 1, 1)))
	assert.Equal(t, int64(8), s.NextID())

	require.NoError(t, s.Add(testutil.MustProduct(t, 3, "y", 1, 1)))
	assert.Equal(t, int64(8), s.NextID())
}

func TestTotalValue(t *testing.T) {
	s, saver := sampleStore(t)

	// 100*50 + 80*55 + 50*120
	assert.Equal(t, int64(15400), s.TotalValue())
	assert.Equal(t, int64(15400), s.TotalValue())

	require.NoError(t, s.Update(1, Update{Quantity: ptr(int64(0))}))
	assert.Equal(t, int64(10400), s.TotalValue())

	saver.Fail = true
	require.Error(t, s.Remove(2))
	assert.Equal(t, int64(10400), s.TotalValue())

	saver.Fail = false
	require.NoError(t, s.Remove(2))
	assert.Equal(t, int64(6000), s.TotalValue())
}

func TestTotalValue_Saturates(t *testing.T) {
	s := New(&testutil.MemorySaver{}, []product.Product{
		testutil.MustProduct(t, 1, "a", 1<<62, product.MaxPrice),
		testutil.MustProduct(t, 2, "b", 1<<62, product.MaxPrice),
	})
	assert.Equal(t, int64(9223372036854775807), s.TotalValue())
}

func TestSeed(t *testing.T) {
	saver := &testutil.MemorySaver{}
	s := New(saver, nil)

	added, err := s.Seed(product.Samples())
	require.NoError(t, err)
	assert.Equal(t, 5, added)
	assert.Equal(t, 1, saver.Attempts)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, productIDs(saver.Last()))

	// Not empty any more: nothing happens.
	added, err = s.Seed(product.Samples())
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Equal(t, 1, saver.Attempts)
}

func TestSeed_RollbackOnSaveFailure(t *testing.T) {
	saver := &testutil.MemorySaver{Fail: true}
	s := New(saver, nil)

	added, err := s.Seed(product.Samples())
	assert.True(t, IsPersistFailure(err))
	assert.Zero(t, added)
	assert.True(t, s.IsEmpty())
}

func TestRecorder_ReportsOutcomes(t *testing.T) {
	s, saver := sampleStore(t)
	rec := &opRecorder{}
	WithRecorder(rec)(s)

	require.NoError(t, s.Add(testutil.MustProduct(t, 4, "Pan", 1, 1)))
	require.Error(t, s.Add(testutil.MustProduct(t, 4, "Pan", 1, 1)))
	saver.Fail = true
	require.Error(t, s.Remove(1))

	require.Len(t, rec.ops, 3)
	assert.Equal(t, Operation{Kind: OpAdd, ProductID: 4, Outcome: OutcomeApplied}, rec.ops[0])

	assert.Equal(t, OpAdd, rec.ops[1].Kind)
	assert.Equal(t, OutcomeRejected, rec.ops[1].Outcome)
	assert.True(t, IsConflict(rec.ops[1].Err))

	assert.Equal(t, OpRemove, rec.ops[2].Kind)
	assert.Equal(t, OutcomeRolledBack, rec.ops[2].Outcome)
	assert.True(t, IsPersistFailure(rec.ops[2].Err))
}

func TestRecorder_FailureDoesNotChangeResult(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	s := New(&testutil.MemorySaver{}, nil,
		WithRecorder(&opRecorder{err: errors.New("journal unavailable")}),
		WithLogger(logger),
	)

	require.NoError(t, s.Add(testutil.MustProduct(t, 1, "x", 1, 1)))
	assert.True(t, s.Exists(1))
	assert.Contains(t, logs.String(), "journal unavailable")
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(Options{})
	require.Error(t, err)
}

func TestOpen_LoadsAndKeepsWarnings(t *testing.T) {
	path := testutil.WriteInventory(t, "id,name,quantity,price\n"+
		"1,Manzana Roja,100,0.50\n"+
		"2,Manzana Verde,80,barata\n")

	var logs bytes.Buffer
	s, err := Open(Options{Path: path, Logger: slog.New(slog.NewTextHandler(&logs, nil))})
	require.NoError(t, err)

	assert.Equal(t, path, s.Path())
	assert.Equal(t, []int64{1}, productIDs(s.List()))
	require.Len(t, s.Warnings(), 1)
	assert.Equal(t, loader.WarnBadLine, s.Warnings()[0].Kind)
	assert.Contains(t, logs.String(), "load warning")
}

func TestOpen_AbsentFileCreatedOnFirstSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), testutil.InventoryFileName)

	s, err := Open(Options{Path: path})
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())
	require.Len(t, s.Warnings(), 1)
	assert.Equal(t, loader.WarnNotFound, s.Warnings()[0].Kind)

	require.NoError(t, s.Add(testutil.MustProduct(t, 1, "Manzana Roja", 100, 0.5)))
	assert.Equal(t, "id,name,quantity,price\n1,Manzana Roja,100,0.50\n", testutil.ReadFile(t, path))
}

func TestOpen_SaveThenReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), testutil.InventoryFileName)

	s, err := Open(Options{Path: path})
	require.NoError(t, err)
	_, err = s.Seed(product.Samples())
	require.NoError(t, err)
	require.NoError(t, s.Update(2, Update{Price: ptr(0.60)}))
	require.NoError(t, s.Remove(5))

	reopened, err := Open(Options{Path: path})
	require.NoError(t, err)
	assert.Empty(t, reopened.Warnings())
	assert.Equal(t, s.List(), reopened.List())
}

func TestOpen_WrongHeaderQuarantinedThenReplaced(t *testing.T) {
	original := "id,nombre,cant,precio\n1,Manzana Roja,100,0.50\n"
	path := testutil.WriteInventory(t, original)

	s, err := Open(Options{Path: path})
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())
	require.Len(t, s.Warnings(), 1)
	assert.Equal(t, loader.WarnHeaderInvalid, s.Warnings()[0].Kind)
	assert.Equal(t, original, testutil.ReadFile(t, path+loader.DefaultBackupSuffix))

	require.NoError(t, s.Add(testutil.MustProduct(t, 1, "Nuevo", 1, 1)))
	assert.Equal(t, "id,name,quantity,price\n1,Nuevo,1,1.00\n", testutil.ReadFile(t, path))
	assert.Equal(t, original, testutil.ReadFile(t, path+loader.DefaultBackupSuffix))
}

func TestDurableSaveFailureRollsBack(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.Mkdir(dir, 0o755))
	path := filepath.Join(dir, testutil.InventoryFileName)

	s := New(durable.New(path), nil, WithPath(path))
	require.NoError(t, s.Add(testutil.MustProduct(t, 1, "Manzana Roja", 100, 0.5)))

	// With the directory gone the temporary file cannot be created.
	require.NoError(t, os.RemoveAll(dir))

	err := s.Add(testutil.MustProduct(t, 2, "Manzana Verde", 80, 0.55))
	require.Error(t, err)
	assert.True(t, IsPersistFailure(err))

	var we *durable.WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, durable.StageCreate, we.Stage)

	assert.Equal(t, []int64{1}, productIDs(s.List()))
}

func productIDs(products []product.Product) []int64 {
	var ids []int64
	for _, p := range products {
		ids = append(ids, p.ID())
	}
	return ids
}
