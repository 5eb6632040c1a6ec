package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/HaiFongPan/upload-form/internal/export"
	"github.com/HaiFongPan/upload-form/internal/picker"
)

// MockTransport 模拟上传通道
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Upload(ctx context.Context, payload Payload) (*Response, error) {
	args := m.Called(ctx, payload)
	resp, _ := args.Get(0).(*Response)
	return resp, args.Error(1)
}

type memorySink struct {
	name string
	data []byte
}

func (s *memorySink) Save(ctx context.Context, name string, data []byte) (string, error) {
	s.name = name
	s.data = data
	return "memory", nil
}

func TestController_SubmitSuccess(t *testing.T) {
	transport := &MockTransport{}
	transport.On("Upload", mock.Anything, mock.MatchedBy(func(p Payload) bool {
		return p.Field == FieldText && p.File.Name == "test.txt"
	})).Return(&Response{StatusCode: 200, Results: json.RawMessage(`{"a":1}`)}, nil)

	var loading []bool
	controller := NewController(transport, WithObserver(func(s State) {
		loading = append(loading, s.Loading())
	}))

	controller.SelectText(textFile())
	state := controller.Submit(context.Background())

	assert.Equal(t, PhaseSucceeded, state.Phase())
	assert.Equal(t, MsgUploadComplete, state.SuccessMessage())
	assert.Empty(t, state.ErrorMessage())
	assert.JSONEq(t, `{"a":1}`, string(state.Result()))
	assert.Equal(t, []bool{false, true, false}, loading)
	transport.AssertExpectations(t)
}

func TestController_SubmitFailureResetsPickers(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		err  error
		msg  string
	}{
		{"rejected", nil, errors.New("API Error"), MsgSubmitError},
		{"non success status", &Response{StatusCode: 502}, nil, MsgSubmitFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &MockTransport{}
			transport.On("Upload", mock.Anything, mock.Anything).Return(tt.resp, tt.err)

			var reset []Slot
			controller := NewController(transport, WithPickerReset(func(s Slot) {
				reset = append(reset, s)
			}))

			controller.SelectExcel(excelFile())
			state := controller.Submit(context.Background())

			assert.Equal(t, PhaseFailed, state.Phase())
			assert.Equal(t, tt.msg, state.ErrorMessage())
			assert.False(t, state.Loading())
			assert.Nil(t, state.Text())
			assert.Nil(t, state.Excel())
			assert.ElementsMatch(t, []Slot{SlotText, SlotExcel}, reset)
			transport.AssertExpectations(t)
		})
	}
}

func TestController_ValidationNeverCallsTransport(t *testing.T) {
	transport := &MockTransport{}
	controller := NewController(transport)

	state := controller.Submit(context.Background())
	assert.Equal(t, MsgNoFile, state.ErrorMessage())

	controller.SelectText(textFile())
	controller.SelectExcel(excelFile())
	state = controller.Submit(context.Background())
	assert.Equal(t, MsgConflict, state.ErrorMessage())

	transport.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestController_PanickingTransportStillFinishes(t *testing.T) {
	transport := &MockTransport{}
	transport.On("Upload", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("nil pointer")
	})

	controller := NewController(transport)
	controller.SelectText(textFile())
	state := controller.Submit(context.Background())

	assert.Equal(t, PhaseFailed, state.Phase())
	assert.False(t, state.Loading())
	assert.Contains(t, state.Err().Error(), "nil pointer")
}

func TestController_NoTransport(t *testing.T) {
	controller := NewController(nil)
	controller.SelectText(textFile())
	state := controller.Submit(context.Background())

	assert.Equal(t, PhaseFailed, state.Phase())
	assert.Equal(t, MsgSubmitError, state.ErrorMessage())
}

// blockingTransport holds the upload until release is closed.
type blockingTransport struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (b *blockingTransport) Upload(ctx context.Context, payload Payload) (*Response, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	close(b.started)
	<-b.release
	return &Response{StatusCode: 200, Results: json.RawMessage(`{}`)}, nil
}

func TestController_SubmitIsReentrancySafe(t *testing.T) {
	transport := &blockingTransport{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	controller := NewController(transport)
	controller.SelectText(textFile())

	done := make(chan State)
	go func() {
		done <- controller.Submit(context.Background())
	}()

	<-transport.started
	assert.True(t, controller.State().Loading())

	second := controller.Submit(context.Background())
	assert.Equal(t, PhaseSubmitting, second.Phase())

	close(transport.release)
	final := <-done

	assert.Equal(t, PhaseSucceeded, final.Phase())
	assert.Equal(t, 1, transport.calls)
}

func TestController_ObserverSeesTransitionsInOrder(t *testing.T) {
	var (
		observed   []State
		inside     atomic.Bool
		overlapped atomic.Bool
	)
	controller := NewController(&MockTransport{}, WithObserver(func(s State) {
		if !inside.CompareAndSwap(false, true) {
			overlapped.Store(true)
		}
		observed = append(observed, s)
		inside.Store(false)
	}))

	const workers = 8
	const picks = 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < picks; i++ {
				name := fmt.Sprintf("worker-%d-%d", w, i)
				if i%2 == 0 {
					controller.SelectText(picker.FromBytes(name+".txt", picker.MediaTypeText, []byte("x")))
				} else {
					controller.SelectExcel(picker.FromBytes(name+".xlsx", picker.MediaTypeExcel, []byte("PK")))
				}
			}
		}(w)
	}
	wg.Wait()

	assert.False(t, overlapped.Load())
	require.Len(t, observed, workers*picks)
	final := controller.State()
	last := observed[len(observed)-1]
	assert.Same(t, final.Text(), last.Text())
	assert.Same(t, final.Excel(), last.Excel())
}

func TestController_Download(t *testing.T) {
	transport := &MockTransport{}
	transport.On("Upload", mock.Anything, mock.Anything).
		Return(&Response{StatusCode: 200, Results: json.RawMessage(`{"x":2}`)}, nil)

	controller := NewController(transport)
	sink := &memorySink{}

	_, err := controller.Download(context.Background(), sink, export.DefaultFileName)
	assert.ErrorIs(t, err, export.ErrNoResult)

	controller.SelectText(textFile())
	before := controller.Submit(context.Background())

	location, err := controller.Download(context.Background(), sink, export.DefaultFileName)
	require.NoError(t, err)
	assert.Equal(t, "memory", location)
	assert.Equal(t, "merged_data.txt", sink.name)
	assert.Equal(t, "{\n  \"x\": 2\n}", string(sink.data))
	assert.Equal(t, before, controller.State())
}
