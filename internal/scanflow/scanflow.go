// Package scanflow drives the four-step barcode dialog of a terminal:
// subject badge, activity, order and confirmation.
package scanflow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"timeclock/internal/models"
)

// State is the step the terminal is waiting on.
type State string

const (
	AwaitingSubject      State = "awaiting_subject"
	AwaitingActivity     State = "awaiting_activity"
	AwaitingOrder        State = "awaiting_order"
	AwaitingConfirmation State = "awaiting_confirmation"
)

// ErrInvalidTransition is returned when an input does not belong to the current step.
var ErrInvalidTransition = errors.New("invalid scan flow transition")

var transitions = map[State][]State{
	AwaitingSubject:      {AwaitingActivity},
	AwaitingActivity:     {AwaitingOrder, AwaitingConfirmation, AwaitingSubject},
	AwaitingOrder:        {AwaitingConfirmation, AwaitingActivity, AwaitingSubject},
	AwaitingConfirmation: {AwaitingSubject, AwaitingOrder, AwaitingActivity},
}

// CanTransition checks if moving from one state to another is allowed.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Options configures direct services, which skip the order step.
type Options struct {
	DirectMin   int
	DirectMax   int
	DirectOrder string
}

func DefaultOptions() Options {
	return Options{DirectMin: 15, DirectMax: 31, DirectOrder: "0000"}
}

// IsDirect reports whether an activity code is a direct service.
func (o Options) IsDirect(activityCode string) bool {
	n, err := strconv.Atoi(models.NormalizeCode(activityCode))
	if err != nil {
		return false
	}
	return o.DirectMax > 0 && n >= o.DirectMin && n <= o.DirectMax
}

// Flow is the state of one terminal's dialog. It is a value: every
// transition returns the next Flow and leaves the receiver untouched.
type Flow struct {
	State    State  `json:"state"`
	Subject  string `json:"subject,omitempty"`
	Activity string `json:"activity,omitempty"`
	Order    string `json:"order,omitempty"`
	Direct   bool   `json:"direct,omitempty"`

	opts Options
}

// New starts a flow waiting for a subject badge.
func New(opts Options) Flow {
	return Flow{State: AwaitingSubject, opts: opts}
}

func (f Flow) moveTo(to State) (Flow, error) {
	if !CanTransition(f.State, to) {
		return f, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.State, to)
	}
	f.State = to
	return f, nil
}

func (f Flow) expect(s State) error {
	if f.State != s {
		return fmt.Errorf("%w: in %s, expected %s", ErrInvalidTransition, f.State, s)
	}
	return nil
}

// ScanSubject accepts a badge and asks for the activity.
func (f Flow) ScanSubject(code string) (Flow, error) {
	if err := f.expect(AwaitingSubject); err != nil {
		return f, err
	}
	code = models.NormalizeCode(code)
	if err := models.ValidateCode(code); err != nil {
		return f, fmt.Errorf("subject: %w", err)
	}
	next, err := f.moveTo(AwaitingActivity)
	if err != nil {
		return f, err
	}
	next.Subject = code
	return next, nil
}

// ScanActivity accepts an activity. Direct services jump to confirmation
// with the direct order filled in.
func (f Flow) ScanActivity(code string) (Flow, error) {
	if err := f.expect(AwaitingActivity); err != nil {
		return f, err
	}
	code = models.NormalizeCode(code)
	if code == "" {
		return f, fmt.Errorf("activity: %w", models.ErrInvalidCode)
	}

	to := AwaitingOrder
	direct := f.opts.IsDirect(code)
	if direct {
		to = AwaitingConfirmation
	}
	next, err := f.moveTo(to)
	if err != nil {
		return f, err
	}
	next.Activity = code
	next.Direct = direct
	next.Order = ""
	if direct {
		next.Order = f.opts.DirectOrder
	}
	return next, nil
}

// ScanOrder accepts a production order and asks for confirmation.
func (f Flow) ScanOrder(code string) (Flow, error) {
	if err := f.expect(AwaitingOrder); err != nil {
		return f, err
	}
	code = models.NormalizeCode(code)
	if code == "" {
		return f, fmt.Errorf("order: %w", models.ErrInvalidCode)
	}
	next, err := f.moveTo(AwaitingConfirmation)
	if err != nil {
		return f, err
	}
	next.Order = code
	return next, nil
}

// Confirm returns the collected request and a fresh flow.
func (f Flow) Confirm() (models.ScanRequest, Flow, error) {
	if err := f.expect(AwaitingConfirmation); err != nil {
		return models.ScanRequest{}, f, err
	}
	req := models.ScanRequest{
		SubjectCode:  f.Subject,
		ActivityCode: f.Activity,
		OrderCode:    f.Order,
		Direct:       f.Direct,
	}
	return req, New(f.opts), nil
}

// Back returns to the previous step, clearing what that step collected.
// Confirmation of a direct service goes back to the activity.
func (f Flow) Back() Flow {
	switch f.State {
	case AwaitingActivity:
		return New(f.opts)
	case AwaitingOrder:
		f.State = AwaitingActivity
		f.Activity = ""
	case AwaitingConfirmation:
		if f.Direct {
			f.State = AwaitingActivity
			f.Activity, f.Order, f.Direct = "", "", false
		} else {
			f.State = AwaitingOrder
			f.Order = ""
		}
	}
	return f
}

// Cancel drops everything collected.
func (f Flow) Cancel() Flow {
	return New(f.opts)
}

var prompts = map[State]string{
	AwaitingSubject:      "Scan badge:",
	AwaitingActivity:     "Scan activity:",
	AwaitingOrder:        "Scan production order:",
	AwaitingConfirmation: "Confirm? [Y/n, < back]",
}

// Prompt is the operator text for the current step.
func (f Flow) Prompt() string {
	return prompts[f.State]
}

// Summary formats the collected codes.
func (f Flow) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "subject %s, activity %s", f.Subject, f.Activity)
	if f.Direct {
		fmt.Fprintf(&b, ", direct service (order %s)", f.Order)
	} else {
		fmt.Fprintf(&b, ", order %s", f.Order)
	}
	return b.String()
}

// Input commands understood by Feed on every step.
const (
	CommandBack   = "<"
	CommandCancel = "x"
)

// Feed applies one line of scanner or keyboard input. A non-nil request
// means the operator confirmed and the request should be submitted.
func (f Flow) Feed(input string) (Flow, *models.ScanRequest, error) {
	input = strings.TrimSpace(input)
	switch strings.ToLower(input) {
	case CommandBack:
		return f.Back(), nil, nil
	case CommandCancel:
		return f.Cancel(), nil, nil
	}

	var (
		next Flow
		err  error
	)
	switch f.State {
	case AwaitingSubject:
		next, err = f.ScanSubject(input)
	case AwaitingActivity:
		next, err = f.ScanActivity(input)
	case AwaitingOrder:
		next, err = f.ScanOrder(input)
	case AwaitingConfirmation:
		switch strings.ToLower(input) {
		case "", "y", "yes", "s", "si", "sí":
			req, fresh, cerr := f.Confirm()
			if cerr != nil {
				return f, nil, cerr
			}
			return fresh, &req, nil
		case "n", "no":
			return f.Cancel(), nil, nil
		default:
			return f, nil, fmt.Errorf("%w: unknown answer %q", ErrInvalidTransition, input)
		}
	default:
		return New(f.opts), nil, fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, f.State)
	}
	if err != nil {
		return f, nil, err
	}
	return next, nil, nil
}
