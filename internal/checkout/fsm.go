// Package checkout provides the FSM-based checkout flow over the storefront
// models.
package checkout

import (
	"errors"
	"sync"
	"time"

	"larek/internal/model"
)

// State represents the current step of the checkout flow.
type State string

const (
	StateIdle         State = "idle"
	StatePreview      State = "preview"
	StateBasket       State = "basket"
	StateOrderForm    State = "order_form"
	StateContactsForm State = "contacts_form"
	StateSuccess      State = "success"
)

// ErrInvalidTransition is returned when the requested step is not reachable
// from the current one.
var ErrInvalidTransition = errors.New("checkout: invalid transition")

// FSM manages state transitions for the checkout flow.
type FSM struct {
	transitions map[State][]State
}

// NewFSM creates an FSM with the predefined checkout transitions. Every form
// step allows going back; closing a form abandons, it never commits.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[State][]State{
			StateIdle:         {StatePreview, StateBasket},
			StatePreview:      {StateIdle, StateBasket},
			StateBasket:       {StateIdle, StateOrderForm},
			StateOrderForm:    {StateBasket, StateContactsForm, StateIdle},
			StateContactsForm: {StateOrderForm, StateSuccess, StateIdle},
			StateSuccess:      {StateIdle},
		},
	}
}

// CanTransition checks if the transition is allowed.
func (f *FSM) CanTransition(from, to State) bool {
	allowed, ok := f.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Session tracks one buyer's progress through checkout. Entering a form step
// immediately re-runs the validation scope for that form, so the form opens
// with current error state instead of a blank slate.
type Session struct {
	fsm   *FSM
	buyer *model.BuyerModel

	mu        sync.Mutex
	state     State
	updatedAt time.Time
}

// NewSession starts an idle checkout session for the given buyer.
func NewSession(buyer *model.BuyerModel) *Session {
	return &Session{
		fsm:       NewFSM(),
		buyer:     buyer,
		state:     StateIdle,
		updatedAt: time.Now(),
	}
}

// GetState returns the current state.
func (s *Session) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Advance moves the session to the requested state. For form states it
// returns the validation errors of the form's scope; the caller decides
// whether to surface them, the transition itself always succeeds when
// reachable.
func (s *Session) Advance(to State) (model.ValidationErrors, error) {
	s.mu.Lock()
	if !s.fsm.CanTransition(s.state, to) {
		s.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	s.state = to
	s.updatedAt = time.Now()
	s.mu.Unlock()

	switch to {
	case StateOrderForm:
		return s.buyer.Validate(model.ScopeOrder), nil
	case StateContactsForm:
		return s.buyer.Validate(model.ScopeContacts), nil
	}
	return nil, nil
}

// Reset forces the session back to idle, regardless of the current state.
// Used after a confirmed order and when the modal is abandoned.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.updatedAt = time.Now()
}

// IsExpired checks if the session has been inactive longer than timeout.
func (s *Session) IsExpired(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.updatedAt) > timeout
}
