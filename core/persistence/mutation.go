package persistence

import (
	"iter"

	"github.com/asaidimu/go-loom/core/schema"
)

// ArrayOperator identifies how an array-operation directive manipulates a
// list-valued field.
type ArrayOperator string

const (
	// ArrayOperatorSet overwrites the field wholesale. This is the only
	// operator with defined behavior.
	ArrayOperatorSet ArrayOperator = "set"
	// ArrayOperatorAdd is declared but not implemented; conforming data
	// sources ignore it rather than applying it partially.
	ArrayOperatorAdd ArrayOperator = "add"
	// ArrayOperatorRemove is declared but not implemented, same as add.
	ArrayOperatorRemove ArrayOperator = "remove"
)

// arrayOperators is the set of recognized directive keys in raw input.
var arrayOperators = map[ArrayOperator]struct{}{
	ArrayOperatorSet:    {},
	ArrayOperatorAdd:    {},
	ArrayOperatorRemove: {},
}

// ArrayOperation is a single directive against a list-valued field.
type ArrayOperation struct {
	Field    string        `json:"field"`
	Operator ArrayOperator `json:"operator"`
	Value    any           `json:"value"`
}

// Mutation is the intermediate representation of a create or update request,
// decoupled from any model's runtime type. It carries a flat scalar payload
// plus a sequence of array-operation directives, and is created per request
// and discarded after the operation completes.
type Mutation struct {
	data       schema.Document
	operations []ArrayOperation
}

// NewMutation builds a mutation carrying only scalar data.
func NewMutation(data schema.Document) *Mutation {
	if data == nil {
		data = schema.Document{}
	}
	return &Mutation{data: data}
}

// NewMutationWithOperations builds a mutation carrying scalar data and
// array-operation directives. Fields addressed by a directive must not appear
// in the scalar data; the mutation factory on Model guarantees the split.
func NewMutationWithOperations(data schema.Document, operations []ArrayOperation) *Mutation {
	m := NewMutation(data)
	m.operations = operations
	return m
}

// Data returns a copy of the scalar-field snapshot, already stripped of any
// field represented as an array operation.
func (m *Mutation) Data() schema.Document {
	return m.data.Clone()
}

// ArrayOperations returns a restartable sequence over the mutation's
// array-operation directives.
func (m *Mutation) ArrayOperations() iter.Seq[ArrayOperation] {
	return func(yield func(ArrayOperation) bool) {
		for _, op := range m.operations {
			if !yield(op) {
				return
			}
		}
	}
}

// Payload assembles the final write payload: the scalar snapshot with `set`
// directives applied wholesale on top. Directives with any other operator are
// ignored; they are declared but unsupported, and conforming data sources must
// not approximate them.
func (m *Mutation) Payload() schema.Document {
	payload := m.data.Clone()
	for op := range m.ArrayOperations() {
		if op.Operator == ArrayOperatorSet {
			payload[op.Field] = op.Value
		}
	}
	return payload
}

// IsEmpty reports whether the mutation produces an empty write payload. Data
// sources treat an update with an empty payload as a successful no-op and
// perform no storage write.
func (m *Mutation) IsEmpty() bool {
	return len(m.Payload()) == 0
}
