package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrInvalid is returned when validation rejects the values; nothing is written.
	ErrInvalid = errors.New("invalid form")
	// ErrBusy is returned while a previous submission is still being written.
	ErrBusy = errors.New("submission in progress")
)

// Writer persists validated values.
type Writer[F any] func(ctx context.Context, values F) error

// Messages are the user-facing texts of one form.
type Messages struct {
	Required string
	Success  string
	Failure  string
}

// State is what a view renders for a form.
type State[F any] struct {
	Values      F
	Sending     bool
	Error       string
	Success     string
	FieldErrors map[string]string
}

// Form validates values and writes them through a Writer, tracking the
// sending flag and the transient result messages.
type Form[F any] struct {
	write Writer[F]
	msgs  Messages
	log   *zap.Logger

	mu    sync.Mutex
	state State[F]
}

// New builds a form around write.
func New[F any](write Writer[F], msgs Messages, log *zap.Logger) *Form[F] {
	return &Form[F]{write: write, msgs: msgs, log: log.Named("form")}
}

// Submit validates and writes values. Invalid values never reach the
// writer. On success the values are cleared; on failure they are kept so
// the user can retry.
func (f *Form[F]) Submit(ctx context.Context, values F) error {
	f.mu.Lock()
	if f.state.Sending {
		f.mu.Unlock()
		return ErrBusy
	}
	f.state.Values = values
	f.state.Error = ""
	f.state.Success = ""
	f.state.FieldErrors = nil
	if fieldErrs := Validate(values); len(fieldErrs) > 0 {
		f.state.FieldErrors = fieldErrs
		f.state.Error = f.summary(fieldErrs)
		f.mu.Unlock()
		return fmt.Errorf("%w: %d field(s)", ErrInvalid, len(fieldErrs))
	}
	f.state.Sending = true
	f.mu.Unlock()

	err := f.write(ctx, values)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Sending = false
	if err != nil {
		f.log.Error("submit failed", zap.Error(err))
		f.state.Error = f.msgs.Failure
		return fmt.Errorf("submit: %w", err)
	}
	var zero F
	f.state.Values = zero
	f.state.Success = f.msgs.Success
	return nil
}

// State returns the current form state.
func (f *Form[F]) State() State[F] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Flash returns the current state and clears its one-shot messages.
func (f *Form[F]) Flash() State[F] {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.state
	f.state.Error = ""
	f.state.Success = ""
	f.state.FieldErrors = nil
	return st
}

func (f *Form[F]) summary(fieldErrs map[string]string) string {
	for _, msg := range fieldErrs {
		if msg == msgRequired || len(fieldErrs) > 1 {
			return f.msgs.Required
		}
		return msg
	}
	return f.msgs.Required
}
