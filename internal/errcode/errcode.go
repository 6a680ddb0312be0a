// Package errcode defines the device's error taxonomy.
// Every failure the control loop handles locally maps to one of these codes.
package errcode

import "errors"

// Code is a stable error identifier. It implements error so it can be
// returned directly or matched with errors.Is.
type Code string

func (c Code) Error() string { return string(c) }

const (
	OK                 Code = "ok"
	SensorFault        Code = "sensor_fault"
	SensorMissing      Code = "sensor_missing"
	NetworkUnavailable Code = "network_unavailable"
	FetchFailure       Code = "fetch_failure"
	ParseFailure       Code = "parse_failure"

	Error Code = "error" // generic fallback
)

// E carries a Code together with the operation and the underlying cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

// New wraps err under code c for operation op.
func New(c Code, op string, err error) *E {
	return &E{C: c, Op: op, Err: err}
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.ParseFailure) match a wrapped *E.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Of extracts a Code from an error chain, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	var e *E
	if errors.As(err, &e) {
		return e.C
	}
	return Error
}
