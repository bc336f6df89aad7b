package forms

import (
	"context"
	"fmt"
	"net/url"

	"github.com/matchpoint-dev/matchpoint/internal/actions"
)

// State is a point in the submit cycle of a form
type State int

const (
	Idle State = iota
	Validating
	Submitting
	Success
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Messages produced by the controller itself
const (
	MsgInProgress     = "A request is already in progress"
	MsgResetLinkPanel = "Invalid reset link. Please request a new password reset."
)

// View is what a page renders after a submit: the outcome state, the
// submitted values, field errors and the action's message
type View struct {
	Form        string
	State       State
	Values      any
	FieldErrors FieldErrors
	Message     string
	Details     string
	Result      actions.Result

	// ResetLink is set by the forgot-password form in development mode
	ResetLink string
	// HideFields suppresses the input fields (reset form without a token)
	HideFields bool
}

// Succeeded reports whether the action succeeded
func (v View) Succeeded() bool { return v.State == Success }

// Failed reports whether the action ran and failed, or was refused
func (v View) Failed() bool { return v.State == Error }

// FieldError returns the message for field, if any
func (v View) FieldError(field string) string { return v.FieldErrors[field] }

// Observer is told about every state transition
type Observer func(form string, from, to State)

// Option configures a Controller
type Option[T any] func(*Controller[T])

// WithObserver reports transitions to fn
func WithObserver[T any](fn Observer) Option[T] {
	return func(c *Controller[T]) { c.observe = fn }
}

// WithGuard rejects a submit while another for the same client is pending
func WithGuard[T any](g *Guard) Option[T] {
	return func(c *Controller[T]) { c.guard = g }
}

// OnSuccess lets a form decorate its view after a successful action
func OnSuccess[T any](fn func(res actions.Result, v *View)) Option[T] {
	return func(c *Controller[T]) { c.onSuccess = fn }
}

// Controller runs Idle -> Validating -> Submitting -> Success|Error -> Idle
// for one form. Validation failures return to Idle without calling the action.
type Controller[T any] struct {
	name      string
	validator *Validator
	submit    func(ctx context.Context, in T) actions.Result
	guard     *Guard
	observe   Observer
	onSuccess func(res actions.Result, v *View)
}

// NewController creates a controller for the form called name
func NewController[T any](name string, v *Validator, submit func(ctx context.Context, in T) actions.Result, opts ...Option[T]) *Controller[T] {
	c := &Controller[T]{
		name:      name,
		validator: v,
		submit:    submit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the form name
func (c *Controller[T]) Name() string { return c.name }

// Blank returns the view of a form that has not been submitted
func (c *Controller[T]) Blank(values T) View {
	return View{Form: c.name, State: Idle, Values: values}
}

// Submit runs one submit cycle for the form instance identified by instance
func (c *Controller[T]) Submit(ctx context.Context, instance string, in T) (view View) {
	view = View{Form: c.name, State: Idle, Values: in}
	state := Idle
	move := func(to State) {
		if c.observe != nil {
			c.observe(c.name, state, to)
		}
		state = to
	}

	move(Validating)
	if errs := c.validator.Validate(in); len(errs) > 0 {
		move(Idle)
		view.FieldErrors = errs
		return view
	}

	release, ok := c.guard.Acquire(c.name + ":" + instance)
	if !ok {
		move(Idle)
		view.State = Error
		view.Message = MsgInProgress
		return view
	}
	defer release()

	move(Submitting)
	defer func() {
		if r := recover(); r != nil {
			view.State = Error
			view.Message = actions.MsgGeneric
			view.Details = fmt.Sprint(r)
			move(Error)
		}
		move(Idle)
	}()

	res := c.submit(ctx, in)
	view.Result = res
	view.Message = res.Message
	view.Details = res.Details

	if !res.Success {
		move(Error)
		view.State = Error
		return view
	}

	move(Success)
	view.State = Success
	if c.onSuccess != nil {
		c.onSuccess(res, &view)
	}
	return view
}

// ResetView decides, before any field is rendered, whether the reset form
// can be shown at all. Without a token only the explanatory panel renders.
func ResetView(token string) View {
	if token == "" {
		return View{
			Form:       "reset-password",
			State:      Idle,
			Message:    MsgResetLinkPanel,
			HideFields: true,
		}
	}
	return View{Form: "reset-password", State: Idle, Values: ResetPasswordInput{Token: token}}
}

// ResetLink builds the absolute reset-password URL for token
func ResetLink(publicURL, token string) string {
	return publicURL + "/reset-password?token=" + url.QueryEscape(token)
}
