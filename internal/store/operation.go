package store

// OpKind names a mutating store operation.
type OpKind string

const (
	OpAdd    OpKind = "add"
	OpRemove OpKind = "remove"
	OpUpdate OpKind = "update"
	OpSeed   OpKind = "seed"
)

// Outcome is what happened to a mutation.
type Outcome string

const (
	// OutcomeApplied: the change is in memory and on disk.
	OutcomeApplied Outcome = "applied"

	// OutcomeRejected: the request failed validation; nothing changed.
	OutcomeRejected Outcome = "rejected"

	// OutcomeRolledBack: the save failed and the in-memory change was undone.
	OutcomeRolledBack Outcome = "rolled_back"
)

// Operation describes one finished mutation.
type Operation struct {
	Kind      OpKind
	ProductID int64
	Outcome   Outcome
	Err       error
}

// Recorder receives every finished mutation. A Recorder error is logged and
// never changes the result of the operation.
type Recorder interface {
	RecordOperation(Operation) error
}
