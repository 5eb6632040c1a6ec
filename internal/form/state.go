package form

import (
	"context"
	"encoding/json"

	"github.com/HaiFongPan/upload-form/internal/picker"
)

// Phase is the tag of the form state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInvalid
	PhaseReady
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInvalid:
		return "invalid"
	case PhaseReady:
		return "ready"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Slot identifies one of the two file inputs.
type Slot int

const (
	SlotText Slot = iota + 1
	SlotExcel
)

// Multipart field names expected by the backend.
const (
	FieldText  = "txtFile"
	FieldExcel = "excelFile"
)

func (s Slot) String() string {
	switch s {
	case SlotText:
		return "text"
	case SlotExcel:
		return "excel"
	default:
		return "unknown"
	}
}

// Field returns the multipart field name for the slot.
func (s Slot) Field() string {
	if s == SlotExcel {
		return FieldExcel
	}
	return FieldText
}

// Payload is the single file sent with a submission.
type Payload struct {
	Field string
	File  *picker.File
}

// Response is what the backend answered.
type Response struct {
	StatusCode int
	Results    json.RawMessage
	Message    string
	Detail     string
	RequestID  string
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs the upload.
type Transport interface {
	Upload(ctx context.Context, payload Payload) (*Response, error)
}

// State is an immutable snapshot of the form. The zero value is the idle
// form. Only Reduce produces new states, which keeps error, success and
// loading mutually exclusive.
type State struct {
	phase   Phase
	text    *picker.File
	excel   *picker.File
	err     *Error
	success string
	result  json.RawMessage
}

// NewState returns the state of a freshly mounted form.
func NewState() State {
	return State{phase: PhaseIdle}
}

func (s State) Phase() Phase { return s.phase }

// Text returns the selected text file, or nil.
func (s State) Text() *picker.File { return s.text }

// Excel returns the selected spreadsheet, or nil.
func (s State) Excel() *picker.File { return s.excel }

// Selected returns the file held by slot.
func (s State) Selected(slot Slot) *picker.File {
	if slot == SlotExcel {
		return s.excel
	}
	return s.text
}

// Err returns the current validation or submission error.
func (s State) Err() *Error { return s.err }

// ErrorMessage returns the user-visible error, empty when there is none.
func (s State) ErrorMessage() string {
	if s.err == nil {
		return ""
	}
	return s.err.Message
}

func (s State) SuccessMessage() string { return s.success }

// Loading is true strictly while an upload is in flight.
func (s State) Loading() bool { return s.phase == PhaseSubmitting }

// Result returns the payload of the last successful upload.
func (s State) Result() json.RawMessage { return s.result }

func (s State) HasResult() bool { return len(s.result) > 0 }
