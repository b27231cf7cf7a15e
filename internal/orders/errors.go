package orders

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an order failure so callers can branch without matching text
type Kind int

const (
	// KindValidation means the request was malformed; nothing was sent.
	KindValidation Kind = iota + 1
	// KindSubmission means the create-order call failed; no order is known to exist.
	KindSubmission
	// KindTracking means polling failed after the order was accepted; its
	// outcome is unknown and must be checked out-of-band.
	KindTracking
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSubmission:
		return "submission"
	case KindTracking:
		return "tracking"
	}
	return "unknown"
}

// Error is returned by every failing order operation
type Error struct {
	Kind    Kind
	Op      string
	OrderID string // set for tracking failures
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Kind, e.Op)
	if e.OrderID != "" {
		msg += fmt.Sprintf(" (order %s)", e.OrderID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Op: "validate", Err: errors.Errorf(format, args...)}
}

func submissionError(err error) error {
	return &Error{Kind: KindSubmission, Op: "create order", Err: err}
}

func trackingError(orderID string, err error) error {
	return &Error{Kind: KindTracking, Op: "get order", OrderID: orderID, Err: err}
}

// KindOf returns the kind of an order error, or zero if err is not one
func KindOf(err error) Kind {
	var orderErr *Error
	if errors.As(err, &orderErr) {
		return orderErr.Kind
	}
	return 0
}

// IsValidationError reports whether err is a validation failure
func IsValidationError(err error) bool {
	return KindOf(err) == KindValidation
}

// IsSubmissionError reports whether err is a submission failure
func IsSubmissionError(err error) bool {
	return KindOf(err) == KindSubmission
}

// IsTrackingError reports whether err is a tracking failure
func IsTrackingError(err error) bool {
	return KindOf(err) == KindTracking
}
