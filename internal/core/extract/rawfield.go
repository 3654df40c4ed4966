package extract

import (
	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// RawField is a matched string and the matcher that produced it.
type RawField struct {
	Value      string
	Provenance entity.Provenance
}

// RawFieldMap holds the extracted strings for one document. It is not
// modified after extraction; accessors return copies.
type RawFieldMap struct {
	fields map[constants.Field]RawField
}

// NewRawFieldMap copies fields into a RawFieldMap, dropping empty values.
func NewRawFieldMap(fields map[constants.Field]RawField) RawFieldMap {
	m := RawFieldMap{fields: make(map[constants.Field]RawField, len(fields))}
	for k, v := range fields {
		if v.Value != "" {
			m.fields[k] = v
		}
	}
	return m
}

// Get returns the raw field for f.
func (m RawFieldMap) Get(f constants.Field) (RawField, bool) {
	v, ok := m.fields[f]
	return v, ok
}

// Value returns the matched string for f.
func (m RawFieldMap) Value(f constants.Field) (string, bool) {
	v, ok := m.fields[f]
	return v.Value, ok
}

// Len is the number of fields with a value.
func (m RawFieldMap) Len() int {
	return len(m.fields)
}

// Fields lists the present fields in schema order.
func (m RawFieldMap) Fields() []constants.Field {
	out := make([]constants.Field, 0, len(m.fields))
	for _, f := range constants.ExtractableFields {
		if _, ok := m.fields[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Provenance returns a copy of the per-field provenance.
func (m RawFieldMap) Provenance() map[constants.Field]entity.Provenance {
	out := make(map[constants.Field]entity.Provenance, len(m.fields))
	for k, v := range m.fields {
		out[k] = v.Provenance
	}
	return out
}
