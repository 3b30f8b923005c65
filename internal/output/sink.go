// Package output writes segmented events to event table files and optional
// database sinks.
package output

import (
	"context"
	"errors"

	"github.com/chrissnell/eventtable/internal/types"
)

// Sink receives the events of a subject's run. BeginRun is called once before
// the first condition is appended and discards whatever a previous batch
// wrote for that run.
type Sink interface {
	BeginRun(ctx context.Context, subject, run string) error
	Append(ctx context.Context, subject, run string, events []types.EventRecord) error
}

// MultiSink fans events out to several sinks
type MultiSink []Sink

// BeginRun implements Sink
func (m MultiSink) BeginRun(ctx context.Context, subject, run string) error {
	var errs []error
	for _, s := range m {
		if err := s.BeginRun(ctx, subject, run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Append implements Sink
func (m MultiSink) Append(ctx context.Context, subject, run string, events []types.EventRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, subject, run, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
