// Package sources provides the readers the pipeline pulls raw trial data,
// passive-segment indices and condition ranks from.
package sources

import (
	"context"

	"github.com/chrissnell/eventtable/internal/types"
)

// TrialReader returns the (time, angle) recording for one trial
type TrialReader interface {
	Trial(ctx context.Context, key types.TrialKey) (types.TimeSeries, error)
}

// RankLookup returns the rank of each condition within a run. Lower ranks
// were played first.
type RankLookup interface {
	Ranks(ctx context.Context, subject, run string) (map[types.Condition]float64, error)
}

// TrialSpecSource returns the ordered trials that make up a subject's passive segment
type TrialSpecSource interface {
	TrialSpec(ctx context.Context, subject string) ([]types.TrialToken, error)
}

// TrialReaderFunc adapts a function to TrialReader
type TrialReaderFunc func(ctx context.Context, key types.TrialKey) (types.TimeSeries, error)

// Trial calls f
func (f TrialReaderFunc) Trial(ctx context.Context, key types.TrialKey) (types.TimeSeries, error) {
	return f(ctx, key)
}
