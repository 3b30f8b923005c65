package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds. The typed errors below unwrap to these so callers can
// use either errors.Is or errors.As.
var (
	ErrMissingSource   = errors.New("missing source")
	ErrMalformedSignal = errors.New("malformed signal")
	ErrMalformedIndex  = errors.New("malformed index")
)

// Context identifies where in the batch an error happened. Zero fields are omitted.
type Context struct {
	Subject   string
	Run       string
	Condition Condition
	Trial     int
}

func (c Context) String() string {
	var parts []string
	if c.Subject != "" {
		parts = append(parts, "subject="+c.Subject)
	}
	if c.Run != "" {
		parts = append(parts, "run="+c.Run)
	}
	if c.Condition != "" {
		parts = append(parts, "condition="+string(c.Condition))
	}
	if c.Trial != 0 {
		parts = append(parts, fmt.Sprintf("trial=%d", c.Trial))
	}
	return strings.Join(parts, " ")
}

func withContext(msg string, c Context) string {
	if s := c.String(); s != "" {
		return msg + " [" + s + "]"
	}
	return msg
}

// MissingSourceError is returned when a trial reader or rank lookup cannot find
// the expected source material.
type MissingSourceError struct {
	Context
	What string
	Err  error
}

func (e *MissingSourceError) Error() string {
	msg := "missing source: " + e.What
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return withContext(msg, e.Context)
}

func (e *MissingSourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingSource}
	}
	return []error{ErrMissingSource, e.Err}
}

// MalformedSignalError is returned for empty series or series whose time and
// angle lengths differ.
type MalformedSignalError struct {
	Context
	Reason string
}

func (e *MalformedSignalError) Error() string {
	return withContext("malformed signal: "+e.Reason, e.Context)
}

func (e *MalformedSignalError) Unwrap() error {
	return ErrMalformedSignal
}

// MalformedIndexError is returned when a passive index token cannot be parsed
// or resolved to a trial recording.
type MalformedIndexError struct {
	Context
	Token  string
	Reason string
}

func (e *MalformedIndexError) Error() string {
	return withContext(fmt.Sprintf("malformed index token %q: %s", e.Token, e.Reason), e.Context)
}

func (e *MalformedIndexError) Unwrap() error {
	return ErrMalformedIndex
}

// WithContext fills in any empty context fields of a typed error and returns it.
// Other errors are returned unchanged.
func WithContext(err error, c Context) error {
	var ctx *Context
	var ms *MissingSourceError
	var mg *MalformedSignalError
	var mi *MalformedIndexError
	switch {
	case errors.As(err, &ms):
		ctx = &ms.Context
	case errors.As(err, &mg):
		ctx = &mg.Context
	case errors.As(err, &mi):
		ctx = &mi.Context
	default:
		return err
	}
	if ctx.Subject == "" {
		ctx.Subject = c.Subject
	}
	if ctx.Run == "" {
		ctx.Run = c.Run
	}
	if ctx.Condition == "" {
		ctx.Condition = c.Condition
	}
	if ctx.Trial == 0 {
		ctx.Trial = c.Trial
	}
	return err
}
