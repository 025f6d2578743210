/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// Reserved field names maintained by the facade.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Record is a single stored document: its fields plus the attached id.
type Record map[string]any

// ID returns the record id, or "" when none is attached.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return Record(CopyFields(r))
}

// DocumentRef addresses one record.
type DocumentRef struct {
	Collection string
	ID         string
}

// String renders the ref as collection/id.
func (r DocumentRef) String() string {
	return r.Collection + "/" + r.ID
}

// Operator is a query comparison operator.
type Operator string

const (
	OpEqual            Operator = "=="
	OpNotEqual         Operator = "!="
	OpLess             Operator = "<"
	OpLessOrEqual      Operator = "<="
	OpGreater          Operator = ">"
	OpGreaterOrEqual   Operator = ">="
	OpIn               Operator = "in"
	OpNotIn            Operator = "not-in"
	OpArrayContains    Operator = "array-contains"
	OpArrayContainsAny Operator = "array-contains-any"
)

// Valid reports whether o is a supported operator.
func (o Operator) Valid() bool {
	switch o {
	case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual,
		OpIn, OpNotIn, OpArrayContains, OpArrayContainsAny:
		return true
	}
	return false
}

// TakesList reports whether the operator expects a list value.
func (o Operator) TakesList() bool {
	return o == OpIn || o == OpNotIn || o == OpArrayContainsAny
}

// Condition filters records on one field.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Valid reports whether d is asc or desc.
func (d Direction) Valid() bool {
	return d == Asc || d == Desc
}

// Order sorts results on one field.
type Order struct {
	Field     string
	Direction Direction
}

// Cursor marks the last record of a page. It is only meaningful with the same
// conditions and orders that produced it.
type Cursor struct {
	id     string
	values []any
	native any
}

// NewCursor builds a cursor from the last record's id, its order-field values and an
// optional backend-native handle.
func NewCursor(id string, values []any, native any) *Cursor {
	return &Cursor{id: id, values: values, native: native}
}

// ID returns the id of the record the cursor points at.
func (c *Cursor) ID() string { return c.id }

// Values returns the order-field values of the record the cursor points at.
func (c *Cursor) Values() []any { return c.values }

// Native returns the backend handle, if the producing backend attached one.
func (c *Cursor) Native() any { return c.native }

// Query selects records from one collection.
type Query struct {
	// Collection is the collection name.
	Collection string
	// Conditions are applied first, in order.
	Conditions []Condition
	// Orders are applied after the conditions.
	Orders []Order
	// PageSize caps the result count; zero means no cap.
	PageSize int
	// Cursor resumes strictly after the record it points at.
	Cursor *Cursor
}

// QueryResult is one page of a query.
type QueryResult struct {
	Records []Record
	// NextCursor is nil when fewer than PageSize records were returned.
	NextCursor *Cursor
}

// WriteKind is the kind of a batched or transactional write.
type WriteKind string

const (
	// WriteSet creates or replaces (or merges into) a record.
	WriteSet WriteKind = "set"
	// WriteUpdate changes fields of an existing record.
	WriteUpdate WriteKind = "update"
	// WriteDelete removes a record.
	WriteDelete WriteKind = "delete"
)

// Valid reports whether k is a supported write kind.
func (k WriteKind) Valid() bool {
	return k == WriteSet || k == WriteUpdate || k == WriteDelete
}

// Write is one write of a batch or transaction.
type Write struct {
	Kind  WriteKind
	Ref   DocumentRef
	Data  map[string]any
	Merge bool
}
