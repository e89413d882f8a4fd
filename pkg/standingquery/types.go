// ABOUTME: States, errors and hooks of standing queries
// ABOUTME: Callback and observer contracts used by the poll loop

package standingquery

import (
	"context"
	"errors"
	"fmt"
)

// Status is the externally visible state of a standing query
type Status string

const (
	Pending          Status = "PENDING"
	ResultsAvailable Status = "RESULTS_AVAILABLE"
	Suspended        Status = "SUSPENDED"
	Canceled         Status = "CANCELED"
)

// CompletionState is reported by Complete
type CompletionState string

const (
	InProgress         CompletionState = "IN_PROGRESS"
	CompletedAvailable CompletionState = "RESULTS_AVAILABLE"
)

var (
	ErrNotImplemented      = errors.New("not implemented")
	ErrCanceled            = errors.New("standing query canceled")
	ErrUnknownCallback     = errors.New("unknown callback")
	ErrNotFound            = errors.New("standing query not found")
	ErrInvalidPageSize     = errors.New("page size must be positive")
	ErrIntervalOutOfRange  = errors.New("interval out of range")
	ErrMissingSource       = errors.New("standing query needs a catalog source")
	ErrMissingTranslator   = errors.New("standing query needs a translator")
	ErrInvalidUpdatePeriod = errors.New("update interval must be positive")
	ErrUnsupportedView     = errors.New("view cannot filter on modification time")
)

// Description identifies the request a notification belongs to
type Description struct {
	ID       string `json:"id"`
	UserInfo string `json:"user_info,omitempty"`
	Query    string `json:"query"`
	View     string `json:"view,omitempty"`
}

// Callback is notified when results are waiting
type Callback interface {
	Notify(ctx context.Context, status Status, desc Description) error
}

// CallbackFunc adapts a function to Callback
type CallbackFunc func(ctx context.Context, status Status, desc Description) error

// Notify calls f
func (f CallbackFunc) Notify(ctx context.Context, status Status, desc Description) error {
	return f(ctx, status, desc)
}

// ProtocolFault is a callback failure reported by a reachable peer. The callback stays registered.
// Any other callback error is a transport fault and the callback is dropped.
type ProtocolFault struct {
	Reason string
	Err    error
}

func (e *ProtocolFault) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("callback protocol fault: %s: %v", e.Reason, e.Err)
	}
	return "callback protocol fault: " + e.Reason
}

func (e *ProtocolFault) Unwrap() error { return e.Err }

// Poll modes
const (
	ModeNormal  = "normal"
	ModeCatchUp = "catch_up"
)

// Notification outcomes
const (
	NotifyOK             = "ok"
	NotifyProtocolFault  = "protocol_fault"
	NotifyTransportFault = "transport_fault"
)

// Observer receives engine events, typically to feed metrics
type Observer interface {
	QueryStarted()
	QueryFinished()
	Polled(mode string, err error)
	Converted(ok, failed int)
	Notified(outcome string)
}

type nopObserver struct{}

func (nopObserver) QueryStarted() {}
func (nopObserver) QueryFinished() {}
func (nopObserver) Polled(string, error) {}
func (nopObserver) Converted(int, int) {}
func (nopObserver) Notified(string) {}
