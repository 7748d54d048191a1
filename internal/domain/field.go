package domain

// FieldState distinguishes "the page had no such element" from "the element
// was there but blank". The distinction survives normalization and is only
// collapsed to an empty cell when the CSV is written.
type FieldState int

const (
	FieldAbsent  FieldState = iota // element not found
	FieldEmpty                     // element found, no text
	FieldPresent                   // element found with text
)

func (s FieldState) String() string {
	switch s {
	case FieldAbsent:
		return "absent"
	case FieldEmpty:
		return "empty"
	case FieldPresent:
		return "present"
	}
	return "unknown"
}

// Field is a tri-state string value for one extracted listing field.
type Field struct {
	Value string
	State FieldState
}

// PresentField builds a Field from text read off the page. Blank text maps
// to FieldEmpty, not FieldPresent.
func PresentField(v string) Field {
	if v == "" {
		return Field{State: FieldEmpty}
	}
	return Field{Value: v, State: FieldPresent}
}

// AbsentField marks a field whose element was never located.
func AbsentField() Field {
	return Field{State: FieldAbsent}
}

// Present reports whether the field carries usable text.
func (f Field) Present() bool { return f.State == FieldPresent }

// Export collapses the tri-state to the string written into a CSV cell.
func (f Field) Export() string {
	if f.State == FieldPresent {
		return f.Value
	}
	return ""
}
