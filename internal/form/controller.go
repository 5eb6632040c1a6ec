package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/upload-form/internal/export"
	"github.com/HaiFongPan/upload-form/internal/picker"
)

// Controller drives the form for imperative callers. It runs the effects
// Reduce asks for; the mutex is released while the upload is in flight, so
// a concurrent Submit sees PhaseSubmitting and does nothing.
type Controller struct {
	mu        sync.Mutex
	state     State
	transport Transport
	observer  func(State)
	onReset   func(Slot)
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers fn to be called after every transition. Calls are
// made in transition order with the controller locked, so fn must not call
// back into the controller.
func WithObserver(fn func(State)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// WithPickerReset registers fn to be called for each input the form asks
// to reset.
func WithPickerReset(fn func(Slot)) Option {
	return func(c *Controller) {
		c.onReset = fn
	}
}

// NewController creates a controller in the idle state.
func NewController(transport Transport, opts ...Option) *Controller {
	c := &Controller{
		state:     NewState(),
		transport: transport,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) SelectText(file *picker.File) State {
	return c.dispatch(context.Background(), SelectText{File: file})
}

func (c *Controller) SelectExcel(file *picker.File) State {
	return c.dispatch(context.Background(), SelectExcel{File: file})
}

// Submit validates the selection and, if exactly one file is chosen,
// uploads it and waits for the outcome.
func (c *Controller) Submit(ctx context.Context) State {
	return c.dispatch(ctx, Submit{})
}

// Download renders the current result and hands it to sink under name.
func (c *Controller) Download(ctx context.Context, sink export.Sink, name string) (string, error) {
	data, err := export.Render(c.State().Result())
	if err != nil {
		return "", err
	}
	return sink.Save(ctx, name, data)
}

func (c *Controller) dispatch(ctx context.Context, ev Event) State {
	c.mu.Lock()
	prev := c.state
	next, effect := Reduce(c.state, ev)
	c.state = next
	if c.observer != nil {
		c.observer(next)
	}
	c.mu.Unlock()

	if prev.phase != next.phase {
		logrus.Debugf("form: %T moved %s -> %s", ev, prev.phase, next.phase)
	}

	switch effect.Kind {
	case EffectResetPicker:
		if c.onReset != nil {
			for _, slot := range effect.Reset {
				c.onReset(slot)
			}
		}
	case EffectUpload:
		resp, err := c.upload(ctx, effect.Payload)
		if err != nil {
			logrus.Errorf("form: upload of %s failed: %v", effect.Payload.File.Name, err)
		}
		return c.dispatch(ctx, UploadFinished{Response: resp, Err: err})
	}

	return next
}

func (c *Controller) upload(ctx context.Context, payload Payload) (*Response, error) {
	return Send(ctx, c.transport, payload)
}

// Send calls the transport and turns a panic into an error so the form
// always leaves PhaseSubmitting.
func Send(ctx context.Context, transport Transport, payload Payload) (resp *Response, err error) {
	if transport == nil {
		return nil, errors.New("no transport configured")
	}

	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("transport panicked: %v", r)
		}
	}()

	return transport.Upload(ctx, payload)
}
