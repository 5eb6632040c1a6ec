package form

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HaiFongPan/upload-form/internal/picker"
)

func textFile() *picker.File {
	return picker.FromBytes("test.txt", picker.MediaTypeText, []byte("Oceanic Holdings LLC"))
}

func excelFile() *picker.File {
	return picker.FromBytes("test.xlsx", picker.MediaTypeExcel, []byte("PK"))
}

func TestReduce_SelectText(t *testing.T) {
	mediaTypes := []struct {
		mediaType string
		accepted  bool
	}{
		{picker.MediaTypeText, true},
		{"text/plain; charset=utf-8", false},
		{"text/csv", false},
		{"application/pdf", false},
		{picker.MediaTypeExcel, false},
		{"", false},
	}

	for _, tt := range mediaTypes {
		t.Run(tt.mediaType, func(t *testing.T) {
			file := picker.FromBytes("candidate", tt.mediaType, nil)
			state, effect := Reduce(NewState(), SelectText{File: file})

			if tt.accepted {
				assert.Equal(t, PhaseReady, state.Phase())
				assert.Same(t, file, state.Text())
				assert.Empty(t, state.ErrorMessage())
				assert.Equal(t, EffectNone, effect.Kind)
				return
			}

			assert.Equal(t, PhaseInvalid, state.Phase())
			assert.Nil(t, state.Text())
			assert.Equal(t, MsgInvalidText, state.ErrorMessage())
			assert.Equal(t, KindInvalidFileType, state.Err().Kind)
			assert.Equal(t, EffectResetPicker, effect.Kind)
			assert.Equal(t, []Slot{SlotText}, effect.Reset)
		})
	}
}

func TestReduce_SelectExcel(t *testing.T) {
	state, effect := Reduce(NewState(), SelectExcel{File: excelFile()})
	assert.Equal(t, PhaseReady, state.Phase())
	assert.NotNil(t, state.Excel())
	assert.Equal(t, EffectNone, effect.Kind)

	legacy := picker.FromBytes("old.xls", "application/vnd.ms-excel", nil)
	state, effect = Reduce(state, SelectExcel{File: legacy})
	assert.Equal(t, PhaseInvalid, state.Phase())
	assert.Nil(t, state.Excel())
	assert.Equal(t, MsgInvalidExcel, state.ErrorMessage())
	assert.Equal(t, []Slot{SlotExcel}, effect.Reset)
}

func TestReduce_SelectNilFileIsRejected(t *testing.T) {
	state, _ := Reduce(NewState(), SelectText{})
	assert.Equal(t, MsgInvalidText, state.ErrorMessage())
}

func TestReduce_AcceptedSelectionClearsError(t *testing.T) {
	state, _ := Reduce(NewState(), SelectExcel{File: textFile()})
	require.Equal(t, PhaseInvalid, state.Phase())

	state, _ = Reduce(state, SelectText{File: textFile()})
	assert.Equal(t, PhaseReady, state.Phase())
	assert.Nil(t, state.Err())
}

func TestReduce_SelectIsIdempotent(t *testing.T) {
	file := textFile()
	once, _ := Reduce(NewState(), SelectText{File: file})
	twice, _ := Reduce(once, SelectText{File: file})
	assert.Equal(t, once, twice)
}

func TestReduce_SubmitWithoutSelection(t *testing.T) {
	state, effect := Reduce(NewState(), Submit{})

	assert.Equal(t, PhaseInvalid, state.Phase())
	assert.Equal(t, MsgNoFile, state.ErrorMessage())
	assert.Equal(t, KindNoFileSelected, state.Err().Kind)
	assert.Equal(t, EffectNone, effect.Kind)
}

func TestReduce_SubmitWithBothSelections(t *testing.T) {
	state, _ := Reduce(NewState(), SelectText{File: textFile()})
	state, _ = Reduce(state, SelectExcel{File: excelFile()})
	require.NotNil(t, state.Text())
	require.NotNil(t, state.Excel())

	state, effect := Reduce(state, Submit{})

	assert.Equal(t, PhaseInvalid, state.Phase())
	assert.Equal(t, MsgConflict, state.ErrorMessage())
	assert.Equal(t, KindConflictingSelection, state.Err().Kind)
	assert.Nil(t, state.Text())
	assert.Nil(t, state.Excel())
	assert.Equal(t, EffectResetPicker, effect.Kind)
	assert.ElementsMatch(t, []Slot{SlotText, SlotExcel}, effect.Reset)
}

func TestReduce_SubmitSingleSelection(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		field string
	}{
		{"text", SelectText{File: textFile()}, FieldText},
		{"excel", SelectExcel{File: excelFile()}, FieldExcel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, _ := Reduce(NewState(), tt.event)
			state, effect := Reduce(state, Submit{})

			assert.Equal(t, PhaseSubmitting, state.Phase())
			assert.True(t, state.Loading())
			assert.Empty(t, state.ErrorMessage())
			assert.Empty(t, state.SuccessMessage())
			require.Equal(t, EffectUpload, effect.Kind)
			assert.Equal(t, tt.field, effect.Payload.Field)
			assert.NotNil(t, effect.Payload.File)
		})
	}
}

func submitting(t *testing.T) State {
	t.Helper()
	state, _ := Reduce(NewState(), SelectText{File: textFile()})
	state, effect := Reduce(state, Submit{})
	require.Equal(t, EffectUpload, effect.Kind)
	return state
}

func TestReduce_UploadSucceeded(t *testing.T) {
	state, effect := Reduce(submitting(t), UploadFinished{
		Response: &Response{StatusCode: 200, Results: json.RawMessage(`{"a":1}`)},
	})

	assert.Equal(t, PhaseSucceeded, state.Phase())
	assert.False(t, state.Loading())
	assert.Equal(t, MsgUploadComplete, state.SuccessMessage())
	assert.Empty(t, state.ErrorMessage())
	assert.JSONEq(t, `{"a":1}`, string(state.Result()))
	assert.NotNil(t, state.Text(), "selection survives a successful upload")
	assert.Equal(t, EffectNone, effect.Kind)
}

func TestReduce_UploadFailed(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name     string
		event    UploadFinished
		message  string
		asStatus bool
	}{
		{"transport error", UploadFinished{Err: cause}, MsgSubmitError, false},
		{"server error", UploadFinished{Response: &Response{StatusCode: 500}}, MsgSubmitFailed, true},
		{"bad request", UploadFinished{Response: &Response{StatusCode: 400, Detail: "No file part"}}, MsgSubmitFailed, true},
		{"missing response", UploadFinished{}, MsgSubmitFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, effect := Reduce(submitting(t), tt.event)

			assert.Equal(t, PhaseFailed, state.Phase())
			assert.False(t, state.Loading())
			assert.Equal(t, tt.message, state.ErrorMessage())
			assert.Equal(t, KindSubmissionFailed, state.Err().Kind)
			assert.Empty(t, state.SuccessMessage())
			assert.Nil(t, state.Text())
			assert.Nil(t, state.Excel())
			assert.False(t, state.HasResult())
			assert.Equal(t, EffectResetPicker, effect.Kind)

			if tt.asStatus {
				var statusErr *StatusError
				assert.ErrorAs(t, state.Err(), &statusErr)
			} else {
				assert.ErrorIs(t, state.Err(), cause)
			}
		})
	}
}

func TestReduce_FailureClearsPreviousResult(t *testing.T) {
	state, _ := Reduce(submitting(t), UploadFinished{
		Response: &Response{StatusCode: 200, Results: json.RawMessage(`[1]`)},
	})
	require.True(t, state.HasResult())

	state, _ = Reduce(state, Submit{})
	require.True(t, state.Loading())
	assert.True(t, state.HasResult(), "result is kept while the next upload runs")

	state, _ = Reduce(state, UploadFinished{Err: errors.New("boom")})
	assert.False(t, state.HasResult())
}

func TestReduce_IgnoresEventsWhileSubmitting(t *testing.T) {
	state := submitting(t)

	for _, ev := range []Event{Submit{}, SelectText{File: textFile()}, SelectExcel{File: excelFile()}, SelectText{}} {
		next, effect := Reduce(state, ev)
		assert.Equal(t, state, next)
		assert.Equal(t, EffectNone, effect.Kind)
	}
}

func TestReduce_IgnoresStrayUploadResult(t *testing.T) {
	state := NewState()
	next, effect := Reduce(state, UploadFinished{Response: &Response{StatusCode: 200}})
	assert.Equal(t, state, next)
	assert.Equal(t, EffectNone, effect.Kind)
}

func TestReduce_ErrorClearsSuccess(t *testing.T) {
	state, _ := Reduce(submitting(t), UploadFinished{
		Response: &Response{StatusCode: 201, Results: json.RawMessage(`{}`)},
	})
	require.Equal(t, MsgUploadComplete, state.SuccessMessage())

	state, _ = Reduce(state, SelectExcel{File: textFile()})
	assert.Empty(t, state.SuccessMessage())
	assert.Equal(t, MsgInvalidExcel, state.ErrorMessage())
}

func TestPhaseAndKindStrings(t *testing.T) {
	assert.Equal(t, "submitting", PhaseSubmitting.String())
	assert.Equal(t, "ConflictingSelection", KindConflictingSelection.String())
	assert.Equal(t, "excelFile", SlotExcel.Field())
	assert.Equal(t, "txtFile", SlotText.Field())
}
