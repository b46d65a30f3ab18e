package converter

import "fmt"

// ColumnError reports a requested copy column that is missing from the
// input headers. Raised before any conversion work starts.
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column to copy %q does not exist in REDCap file", e.Column)
}

// CrossFormError reports branching logic or a calculation that references
// a field outside the row's own form, which makes the input impossible to
// split into independent forms.
type CrossFormError struct {
	Line int
	Row  string
}

func (e *CrossFormError) Error() string {
	return fmt.Sprintf("cannot divide into multiple forms, condition/calculation refers to other forms in line %d:\n%s", e.Line, e.Row)
}
