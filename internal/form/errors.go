package form

import "fmt"

// ErrorKind classifies why a selection or submission was rejected.
type ErrorKind int

const (
	KindInvalidFileType ErrorKind = iota + 1
	KindNoFileSelected
	KindConflictingSelection
	KindSubmissionFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidFileType:
		return "InvalidFileType"
	case KindNoFileSelected:
		return "NoFileSelected"
	case KindConflictingSelection:
		return "ConflictingSelection"
	case KindSubmissionFailed:
		return "SubmissionFailed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// User-visible messages.
const (
	MsgInvalidText    = "Please upload a valid text file"
	MsgInvalidExcel   = "Please upload a valid Excel file"
	MsgNoFile         = "Please choose a file to upload"
	MsgConflict       = "Please upload either a text file or an Excel file, not both"
	MsgSubmitFailed   = "Failed to submit data"
	MsgSubmitError    = "Error submitting data to API"
	MsgUploadComplete = "Files uploaded and processed successfully!"
)

// Error is a validation or submission failure held by the form. Message is
// what the user sees; Err carries the underlying cause, if any.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server responded with status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("server responded with status %d", e.StatusCode)
}
