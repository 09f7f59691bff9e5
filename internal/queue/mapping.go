package queue

import (
	"fmt"

	"github.com/sosanhsach/pricesync/internal/sheet"
)

// Field declares how one row field binds to a spreadsheet column.
type Field struct {
	// Name identifies the field within its row schema.
	Name string
	// Column is the spreadsheet column letter the field lives in.
	Column string
	// Updatable marks fields written back by batch updates.
	Updatable bool
	// NoteSink marks the single column that receives status messages.
	NoteSink bool
}

// Mapping is a static, ordered field→column table for one row schema.
// At most one field may be flagged as the note sink.
type Mapping struct {
	fields []Field
}

// NewMapping builds a mapping from the declared fields, validating column
// letters, name uniqueness, and the single-note-sink invariant.
func NewMapping(fields ...Field) (*Mapping, error) {
	seen := make(map[string]bool, len(fields))
	sinkCount := 0
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field name cannot be empty")
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate field name %q", f.Name)
		}
		seen[f.Name] = true
		if _, err := sheet.ColumnIndex(f.Column); err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		if f.NoteSink {
			sinkCount++
		}
	}
	if sinkCount > 1 {
		return nil, fmt.Errorf("at most one field may be the note sink, got %d", sinkCount)
	}
	return &Mapping{fields: fields}, nil
}

// MustMapping is NewMapping for compile-time schema literals; it panics on
// invalid declarations.
func MustMapping(fields ...Field) *Mapping {
	m, err := NewMapping(fields...)
	if err != nil {
		panic(err)
	}
	return m
}

// Fields returns all fields in declaration order.
func (m *Mapping) Fields() []Field {
	return m.fields
}

// UpdatableFields returns the writable subset in declaration order.
func (m *Mapping) UpdatableFields() []Field {
	var updatable []Field
	for _, f := range m.fields {
		if f.Updatable {
			updatable = append(updatable, f)
		}
	}
	return updatable
}

// NoteSinkColumn returns the note sink's column letter, if one is declared.
func (m *Mapping) NoteSinkColumn() (string, bool) {
	for _, f := range m.fields {
		if f.NoteSink {
			return f.Column, true
		}
	}
	return "", false
}
