package store

// Field names a single slot in the state record. Fields are declared at
// engine construction via a Schema and never change afterwards.
type Field string

// FieldCounter is the one field the default schema declares.
const FieldCounter Field = "counter"

// FieldSpec declares one state field together with its default value.
// Every field must declare a default; there is no implicit fallback table.
type FieldSpec struct {
	Name    Field
	Default int64
}

// Schema is the fixed set of fields an engine manages, in notification order.
type Schema []FieldSpec

// DefaultSchema returns the schema for the standard single-counter record.
func DefaultSchema() Schema {
	return Schema{
		{Name: FieldCounter, Default: 0},
	}
}

// Has reports whether the schema declares the given field.
func (s Schema) Has(field Field) bool {
	for _, spec := range s {
		if spec.Name == field {
			return true
		}
	}
	return false
}

// Defaults materializes a fresh state record with every field at its default.
func (s Schema) Defaults() State {
	state := make(State, len(s))
	for _, spec := range s {
		state[spec.Name] = spec.Default
	}
	return state
}

// State is a snapshot of the full record: field name to value. Values handed
// out by the engine are always copies, never aliases of internal state.
type State map[Field]int64

// Clone returns an independent copy of the record.
func (s State) Clone() State {
	copied := make(State, len(s))
	for field, value := range s {
		copied[field] = value
	}
	return copied
}

// Equal reports whether two records hold the same fields with the same values.
func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for field, value := range s {
		if other[field] != value {
			return false
		}
	}
	return true
}
