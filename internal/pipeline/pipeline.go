// Package pipeline runs event segmentation over every subject and run of a study.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrissnell/eventtable/internal/events"
	"github.com/chrissnell/eventtable/internal/ordering"
	"github.com/chrissnell/eventtable/internal/output"
	"github.com/chrissnell/eventtable/internal/signal"
	"github.com/chrissnell/eventtable/internal/sources"
	"github.com/chrissnell/eventtable/internal/timeline"
	"github.com/chrissnell/eventtable/internal/types"
	"github.com/chrissnell/eventtable/pkg/config"
	"go.uber.org/zap"
)

// Sources bundles the readers the pipeline pulls data from
type Sources struct {
	// Active reads the concatenated LONG and SHORT recordings (trial 0)
	Active sources.TrialReader
	// Ranks orders the conditions of a run
	Ranks sources.RankLookup
	// Passive loads the trials of the passive segment in playback order
	Passive *sources.PassiveSource
}

// Summary reports what a batch did
type Summary struct {
	Runs   int
	Failed int
	Events int
	Errors []error
}

// Pipeline turns trial recordings into event tables
type Pipeline struct {
	src          Sources
	sink         output.Sink
	pre          *signal.Preprocessor
	params       events.SegmentParams
	conditionGap float64
	logger       *zap.SugaredLogger
}

// New creates a Pipeline using the segmentation settings in seg
func New(src Sources, sink output.Sink, seg config.SegmentationData, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		src:  src,
		sink: sink,
		pre:  signal.NewPreprocessor(seg.Smoothness),
		params: events.SegmentParams{
			SpeedThreshold: seg.SpeedThreshold,
			MinDuration:    seg.MinDuration,
			Decimals:       seg.Decimals,
		},
		conditionGap: seg.ConditionGap,
		logger:       logger,
	}
}

// Run processes every run of every subject. A failing run is logged and
// skipped; only cancellation of ctx stops the batch early.
func (p *Pipeline) Run(ctx context.Context, subjects, runs []string) (Summary, error) {
	var summary Summary

	for _, subject := range subjects {
		for _, run := range runs {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			summary.Runs++
			n, err := p.ProcessRun(ctx, subject, run)
			if err != nil {
				summary.Failed++
				summary.Errors = append(summary.Errors, err)
				p.logger.Errorw("skipping run", "subject", subject, "run", run, "error", err)
				continue
			}

			summary.Events += n
			p.logger.Infow("run complete", "subject", subject, "run", run, "events", n)
		}
	}

	return summary, nil
}

// ProcessRun writes the event table for one subject's run and returns the
// number of events written. Conditions are processed in played order, each
// starting ConditionGap seconds after the previous one's last event ends.
func (p *Pipeline) ProcessRun(ctx context.Context, subject, run string) (int, error) {
	runCtx := types.Context{Subject: subject, Run: run}

	if err := p.sink.BeginRun(ctx, subject, run); err != nil {
		return 0, fmt.Errorf("%s/%s: %w", subject, run, err)
	}

	ranks, err := p.src.Ranks.Ranks(ctx, subject, run)
	if err != nil {
		return 0, types.WithContext(err, runCtx)
	}
	order, err := ordering.Order(ranks)
	if err != nil {
		return 0, types.WithContext(err, runCtx)
	}
	p.logger.Debugf("%s/%s condition order: %v", subject, run, order)

	written := 0
	startTime := 0.0
	for _, condition := range order {
		records, err := p.Condition(ctx, subject, run, condition, startTime)
		if err != nil {
			return written, err
		}

		if err := p.sink.Append(ctx, subject, run, records); err != nil {
			return written, fmt.Errorf("%s/%s %s: %w", subject, run, condition, err)
		}
		written += len(records)

		last := records[len(records)-1]
		startTime = last.End() + p.conditionGap
	}

	return written, nil
}

// Condition loads, preprocesses and segments one condition block whose
// timeline starts at startTime
func (p *Pipeline) Condition(ctx context.Context, subject, run string, condition types.Condition, startTime float64) ([]types.EventRecord, error) {
	condCtx := types.Context{Subject: subject, Run: run, Condition: condition}

	ts, err := p.load(ctx, subject, run, condition, startTime)
	if err != nil {
		return nil, types.WithContext(err, condCtx)
	}

	rate, err := p.pre.Rate(ts)
	if err != nil {
		return nil, types.WithContext(err, condCtx)
	}

	records, err := events.Segment(ts, rate, condition, p.params)
	if err != nil {
		return nil, types.WithContext(err, condCtx)
	}

	p.logger.Debugf("%s/%s %s: %d samples, %d events", subject, run, condition, ts.Len(), len(records))
	return records, nil
}

func (p *Pipeline) load(ctx context.Context, subject, run string, condition types.Condition, startTime float64) (types.TimeSeries, error) {
	if condition.IsPassive() {
		if p.src.Passive == nil {
			return types.TimeSeries{}, &types.MissingSourceError{What: "passive trial source"}
		}
		trials, err := p.src.Passive.Trials(ctx, subject)
		if err != nil {
			return types.TimeSeries{}, err
		}
		ts, _, err := timeline.Stitch(trials, startTime)
		return ts, err
	}

	ts, err := p.src.Active.Trial(ctx, types.TrialKey{Subject: subject, Run: run, Condition: condition})
	if err != nil {
		return types.TimeSeries{}, err
	}
	if err := ts.Validate(); err != nil {
		return types.TimeSeries{}, err
	}
	// Active recordings keep their own clock, shifted onto the run timeline
	return ts.Offset(startTime), nil
}

// AllFailed reports whether every run of the batch failed
func (s Summary) AllFailed() bool {
	return s.Runs > 0 && s.Failed == s.Runs
}

// Err joins the errors of all failed runs
func (s Summary) Err() error {
	return errors.Join(s.Errors...)
}
