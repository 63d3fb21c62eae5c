package domain

import "context"

// ─── Collaborator Interfaces ────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the scoring engine depends on them.

// Document is a schemaless JSON object as held by the document store.
type Document map[string]any

// FilterOp is a comparison supported by QueryRecords.
type FilterOp string

const (
	OpEq            FilterOp = "=="
	OpNe            FilterOp = "!="
	OpLt            FilterOp = "<"
	OpLte           FilterOp = "<="
	OpGt            FilterOp = ">"
	OpGte           FilterOp = ">="
	OpArrayContains FilterOp = "array_contains"
)

// Valid reports whether op is one of the supported comparisons.
func (op FilterOp) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpArrayContains:
		return true
	}
	return false
}

// Filter compares one top-level record field against Value.
type Filter struct {
	Field string
	Op    FilterOp
	Value any
}

// RecordQuery selects records of a collection. Zero Limit means no limit.
type RecordQuery struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// DocumentStore abstracts the remote document store used by the back office.
// The engine never needs transactions spanning several documents.
type DocumentStore interface {
	// GetDocument returns the document at key; found is false if absent.
	GetDocument(ctx context.Context, key string) (doc Document, found bool, err error)

	// SetDocument writes doc at key. With merge, top-level fields are
	// overlaid on the existing document instead of replacing it.
	SetDocument(ctx context.Context, key string, doc Document, merge bool) error

	// AppendRecord adds an immutable record to collection and returns its id.
	AppendRecord(ctx context.Context, collection string, record Document) (string, error)

	// QueryRecords returns the records of collection matching q.
	QueryRecords(ctx context.Context, collection string, q RecordQuery) ([]Document, error)
}

// Notifier is the UI notification sink.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Merge returns a copy of d with the top-level fields of patch overlaid.
func (d Document) Merge(patch Document) Document {
	out := make(Document, len(d)+len(patch))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// ValidFieldName reports whether name can be used as a filter or ordering
// field: a non-empty identifier of ASCII letters, digits and underscores.
func ValidFieldName(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
