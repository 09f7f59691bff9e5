package queue

import "fmt"

// SchemaError reports a defect in a row schema declaration, such as a
// missing note sink. It is a configuration bug, not a transient condition,
// and is never retried.
type SchemaError struct {
	Message string
}

// Error returns the error message.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheet schema error: %s", e.Message)
}

// RowValidationError reports a fetched row that does not satisfy its
// schema. It is isolated per row and never aborts a batch.
type RowValidationError struct {
	Index  int
	Field  string
	Reason string
}

// Error returns the error message.
func (e *RowValidationError) Error() string {
	return fmt.Sprintf("row %d: field %s %s", e.Index, e.Field, e.Reason)
}
