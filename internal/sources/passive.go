package sources

import (
	"context"
	"errors"

	"github.com/chrissnell/eventtable/internal/types"
)

// PassiveSource loads the trials that make up a subject's passive segment, in
// playback order. Trials recorded in training sessions come from Training;
// trials replayed from scanning runs come from Scanner.
type PassiveSource struct {
	Specs    TrialSpecSource
	Training TrialReader
	Scanner  TrialReader
}

// Trials returns the recordings named by the subject's passive index
func (p *PassiveSource) Trials(ctx context.Context, subject string) ([]types.TimeSeries, error) {
	tokens, err := p.Specs.TrialSpec(ctx, subject)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, &types.MalformedIndexError{
			Context: types.Context{Subject: subject, Condition: types.Passive},
			Reason:  "passive index lists no trials",
		}
	}

	trials := make([]types.TimeSeries, 0, len(tokens))
	for _, token := range tokens {
		ts, err := p.load(ctx, subject, token)
		if err != nil {
			return nil, err
		}
		trials = append(trials, ts)
	}
	return trials, nil
}

func (p *PassiveSource) load(ctx context.Context, subject string, token types.TrialToken) (types.TimeSeries, error) {
	key := types.TrialKey{Subject: subject, Run: token.Source, Condition: token.Condition, Trial: token.Trial}

	reader := p.Scanner
	if token.IsTraining() {
		reader = p.Training
	}

	ts, err := reader.Trial(ctx, key)
	if err == nil {
		return ts, nil
	}

	// A token whose recording is absent is an index problem, not a missing subject
	var missing *types.MissingSourceError
	if !token.IsTraining() && errors.As(err, &missing) {
		return types.TimeSeries{}, &types.MalformedIndexError{
			Context: types.Context{Subject: subject, Run: token.Source, Condition: types.Passive, Trial: token.Trial},
			Token:   token.String(),
			Reason:  missing.Error(),
		}
	}
	return types.TimeSeries{}, err
}
