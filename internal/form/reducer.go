package form

import (
	"github.com/HaiFongPan/upload-form/internal/picker"
)

// Event is an input to the form.
type Event interface {
	isEvent()
}

// SelectText is a pick in the text input.
type SelectText struct{ File *picker.File }

// SelectExcel is a pick in the spreadsheet input.
type SelectExcel struct{ File *picker.File }

// Submit asks to upload the current selection.
type Submit struct{}

// UploadFinished reports the outcome of an EffectUpload.
type UploadFinished struct {
	Response *Response
	Err      error
}

func (SelectText) isEvent()     {}
func (SelectExcel) isEvent()    {}
func (Submit) isEvent()         {}
func (UploadFinished) isEvent() {}

// EffectKind tells the caller what to do after a transition.
type EffectKind int

const (
	EffectNone EffectKind = iota
	// EffectResetPicker clears the stored value of the listed inputs so
	// that picking the same file again is seen as a new pick.
	EffectResetPicker
	// EffectUpload sends Payload and must be answered with UploadFinished.
	EffectUpload
)

// Effect is a side effect requested by Reduce.
type Effect struct {
	Kind    EffectKind
	Reset   []Slot
	Payload Payload
}

var noEffect = Effect{Kind: EffectNone}

func resetPicker(slots ...Slot) Effect {
	return Effect{Kind: EffectResetPicker, Reset: slots}
}

// Reduce applies ev to s. It performs no I/O.
func Reduce(s State, ev Event) (State, Effect) {
	switch e := ev.(type) {
	case SelectText:
		return s.selectFile(SlotText, e.File)
	case SelectExcel:
		return s.selectFile(SlotExcel, e.File)
	case Submit:
		return s.submit()
	case UploadFinished:
		return s.finish(e)
	default:
		return s, noEffect
	}
}

// Accepts reports whether slot takes a file of the given media type.
func Accepts(slot Slot, mediaType string) bool {
	switch slot {
	case SlotText:
		return mediaType == picker.MediaTypeText
	case SlotExcel:
		return mediaType == picker.MediaTypeExcel
	default:
		return false
	}
}

func (s State) selectFile(slot Slot, file *picker.File) (State, Effect) {
	// The in-flight request owns the form until it finishes.
	if s.phase == PhaseSubmitting {
		return s, noEffect
	}

	next := s
	next.success = ""

	if file != nil && Accepts(slot, file.MediaType) {
		next.setSlot(slot, file)
		next.err = nil
		next.phase = PhaseReady
		return next, noEffect
	}

	message := MsgInvalidText
	if slot == SlotExcel {
		message = MsgInvalidExcel
	}
	next.setSlot(slot, nil)
	next.err = &Error{Kind: KindInvalidFileType, Message: message}
	next.phase = PhaseInvalid
	return next, resetPicker(slot)
}

func (s State) submit() (State, Effect) {
	if s.phase == PhaseSubmitting {
		return s, noEffect
	}

	next := s
	next.success = ""

	switch {
	case s.text == nil && s.excel == nil:
		next.err = &Error{Kind: KindNoFileSelected, Message: MsgNoFile}
		next.phase = PhaseInvalid
		return next, noEffect

	case s.text != nil && s.excel != nil:
		next.text, next.excel = nil, nil
		next.err = &Error{Kind: KindConflictingSelection, Message: MsgConflict}
		next.phase = PhaseInvalid
		return next, resetPicker(SlotText, SlotExcel)
	}

	payload := Payload{Field: FieldText, File: s.text}
	if s.excel != nil {
		payload = Payload{Field: FieldExcel, File: s.excel}
	}

	next.err = nil
	next.phase = PhaseSubmitting
	return next, Effect{Kind: EffectUpload, Payload: payload}
}

func (s State) finish(e UploadFinished) (State, Effect) {
	if s.phase != PhaseSubmitting {
		return s, noEffect
	}

	switch {
	case e.Err != nil:
		return s.fail(MsgSubmitError, e.Err)
	case !e.Response.OK():
		statusErr := &StatusError{}
		if e.Response != nil {
			statusErr.StatusCode = e.Response.StatusCode
			statusErr.Detail = e.Response.Detail
		}
		return s.fail(MsgSubmitFailed, statusErr)
	}

	next := s
	next.result = e.Response.Results
	next.success = MsgUploadComplete
	next.err = nil
	next.phase = PhaseSucceeded
	return next, noEffect
}

func (s State) fail(message string, cause error) (State, Effect) {
	next := s
	next.text, next.excel = nil, nil
	next.result = nil
	next.success = ""
	next.err = &Error{Kind: KindSubmissionFailed, Message: message, Err: cause}
	next.phase = PhaseFailed
	return next, resetPicker(SlotText, SlotExcel)
}

func (s *State) setSlot(slot Slot, file *picker.File) {
	if slot == SlotExcel {
		s.excel = file
		return
	}
	s.text = file
}
