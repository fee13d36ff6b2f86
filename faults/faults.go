// Package faults classifies pipeline and provider failures into the
// small taxonomy the UI layer renders from: auth-expired (a state, not
// a message), field-level messages, form-level messages, and unknown
// failures that signal an integration bug and are re-raised rather
// than absorbed into state.
package faults

// Kind is the failure class.
type Kind int

const (
	// KindUnknown is a failure with no status and no usable message.
	// It has no display contract and must be re-raised to the caller.
	KindUnknown Kind = iota
	// KindAuthExpired marks an expired identity token; surfaced as the
	// expiredAuth status, never as an error message.
	KindAuthExpired
	// KindField is a message attributable to a specific input.
	KindField
	// KindForm is a message attributable to the operation as a whole.
	KindForm
)

// Fault is one classified failure.
type Fault struct {
	Kind    Kind
	Field   string // set only when Kind is KindField
	Message string // empty for KindAuthExpired and KindUnknown
}

func AuthExpired() Fault {
	return Fault{Kind: KindAuthExpired}
}

func FieldFault(field, message string) Fault {
	return Fault{Kind: KindField, Field: field, Message: message}
}

func FormFault(message string) Fault {
	return Fault{Kind: KindForm, Message: message}
}

// FieldErrors accumulates classified faults for a form. Each fault
// lands in exactly one bucket: Fields[name] when the classifier
// designated a field, Form otherwise. Auth-expired and unknown faults
// are never recorded here.
type FieldErrors struct {
	Fields map[string][]string
	Form   []string
}

func NewFieldErrors() FieldErrors {
	return FieldErrors{Fields: make(map[string][]string)}
}

// Add records a field or form fault; other kinds are ignored.
func (fe *FieldErrors) Add(f Fault) {
	switch f.Kind {
	case KindField:
		if fe.Fields == nil {
			fe.Fields = make(map[string][]string)
		}
		fe.Fields[f.Field] = append(fe.Fields[f.Field], f.Message)
	case KindForm:
		fe.Form = append(fe.Form, f.Message)
	}
}

// ClearField drops the messages for one input, mirroring the UI rule
// that a field error clears when the user edits that input.
func (fe *FieldErrors) ClearField(field string) {
	delete(fe.Fields, field)
}

// ClearForm drops the page-level messages (dismiss action).
func (fe *FieldErrors) ClearForm() {
	fe.Form = nil
}

func (fe FieldErrors) Empty() bool {
	return len(fe.Fields) == 0 && len(fe.Form) == 0
}

// Clone deep-copies the accumulator so state snapshots stay immutable.
func (fe FieldErrors) Clone() FieldErrors {
	out := FieldErrors{
		Fields: make(map[string][]string, len(fe.Fields)),
		Form:   append([]string(nil), fe.Form...),
	}
	for field, msgs := range fe.Fields {
		out.Fields[field] = append([]string(nil), msgs...)
	}
	return out
}
