package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chrissnell/eventtable/internal/output"
	"github.com/chrissnell/eventtable/internal/sources"
	"github.com/chrissnell/eventtable/internal/types"
	"github.com/chrissnell/eventtable/pkg/config"
	"go.uber.org/zap"
)

type fakeRanks map[string]map[types.Condition]float64

func (f fakeRanks) Ranks(ctx context.Context, subject, run string) (map[types.Condition]float64, error) {
	r, ok := f[subject]
	if !ok {
		return nil, &types.MissingSourceError{What: "pulse ranks"}
	}
	return r, nil
}

type fakeSpecs []types.TrialToken

func (f fakeSpecs) TrialSpec(ctx context.Context, subject string) ([]types.TrialToken, error) {
	return f, nil
}

type memorySink struct {
	begun  []string
	events map[string][]types.EventRecord
}

func newMemorySink() *memorySink {
	return &memorySink{events: make(map[string][]types.EventRecord)}
}

func (m *memorySink) BeginRun(ctx context.Context, subject, run string) error {
	m.begun = append(m.begun, subject+"/"+run)
	m.events[subject+"/"+run] = nil
	return nil
}

func (m *memorySink) Append(ctx context.Context, subject, run string, records []types.EventRecord) error {
	m.events[subject+"/"+run] = append(m.events[subject+"/"+run], records...)
	return nil
}

func flat(times []float64, angle float64) types.TimeSeries {
	angles := make([]float64, len(times))
	for i := range angles {
		angles[i] = angle
	}
	return types.TimeSeries{Times: times, Angles: angles}
}

func testSources(specs fakeSpecs) Sources {
	active := sources.TrialReaderFunc(func(ctx context.Context, key types.TrialKey) (types.TimeSeries, error) {
		switch key.Condition {
		case types.Short:
			return flat([]float64{5, 6, 7}, 1), nil
		case types.Long:
			return flat([]float64{0, 0.5, 1.0}, 2), nil
		}
		return types.TimeSeries{}, &types.MissingSourceError{What: "trial"}
	})

	training := sources.TrialReaderFunc(func(ctx context.Context, key types.TrialKey) (types.TimeSeries, error) {
		return flat([]float64{10, 10.5, 11}, 3), nil
	})

	scanner := sources.TrialReaderFunc(func(ctx context.Context, key types.TrialKey) (types.TimeSeries, error) {
		if key.Trial == 99 {
			return types.TimeSeries{}, &types.MissingSourceError{What: "trial"}
		}
		return flat([]float64{5, 5.2, 5.4}, 4), nil
	})

	return Sources{
		Active: active,
		Ranks: fakeRanks{
			"S01": {types.Long: 2, types.Short: 1, types.Passive: 3},
		},
		Passive: &sources.PassiveSource{Specs: specs, Training: training, Scanner: scanner},
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestProcessRun(t *testing.T) {
	specs := fakeSpecs{
		{Source: "training01", Condition: types.Long, Trial: 1},
		{Source: "mrt01", Condition: types.Short, Trial: 2},
	}
	sink := newMemorySink()
	p := New(testSources(specs), sink, config.DefaultSegmentation(), zap.NewNop().Sugar())

	n, err := p.ProcessRun(context.Background(), "S01", "mrt01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 events, got %d", n)
	}

	got := sink.events["S01/mrt01"]
	expected := []types.EventRecord{
		// SHORT plays first and keeps its own clock
		{Condition: types.Short, Onset: 5, Duration: 2, Angle: 1},
		// LONG starts 20 s after SHORT's last event ends at 7
		{Condition: types.Long, Onset: 27, Duration: 1, Angle: 2},
		// PASSIVE is stitched from 20 s after LONG ends at 28
		{Condition: types.Passive, Onset: 48, Duration: 1.4, Angle: 4},
	}
	for i, e := range expected {
		r := got[i]
		if r.Condition != e.Condition || !near(r.Onset, e.Onset) || !near(r.Duration, e.Duration) || r.Angle != e.Angle {
			t.Errorf("event %d: expected %+v, got %+v", i, e, r)
		}
	}
}

func TestProcessRunBadPassiveIndex(t *testing.T) {
	specs := fakeSpecs{{Source: "mrt02", Condition: types.Long, Trial: 99}}
	sink := newMemorySink()
	p := New(testSources(specs), sink, config.DefaultSegmentation(), zap.NewNop().Sugar())

	n, err := p.ProcessRun(context.Background(), "S01", "mrt01")

	var mie *types.MalformedIndexError
	if !errors.As(err, &mie) {
		t.Fatalf("expected MalformedIndexError, got %v", err)
	}
	if mie.Subject != "S01" || mie.Condition != types.Passive {
		t.Errorf("unexpected error context %+v", mie.Context)
	}

	// conditions completed before the failure stay written, nothing for PASSIVE
	if n != 2 {
		t.Errorf("expected 2 events before the failure, got %d", n)
	}
	for _, r := range sink.events["S01/mrt01"] {
		if r.Condition == types.Passive {
			t.Errorf("no PASSIVE event may be written for a failed segment")
		}
	}
}

func TestRunSkipsFailingSubjects(t *testing.T) {
	specs := fakeSpecs{{Source: "training01", Condition: types.Long, Trial: 1}}
	sink := newMemorySink()
	p := New(testSources(specs), sink, config.DefaultSegmentation(), zap.NewNop().Sugar())

	summary, err := p.Run(context.Background(), []string{"S00", "S01"}, []string{"mrt01", "mrt02"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Runs != 4 || summary.Failed != 2 {
		t.Errorf("expected 4 runs with 2 failures, got %+v", summary)
	}
	if summary.Events != 6 {
		t.Errorf("expected 6 events from S01's two runs, got %d", summary.Events)
	}
	if summary.AllFailed() {
		t.Error("batch should not count as all failed")
	}

	var mse *types.MissingSourceError
	if !errors.As(summary.Err(), &mse) || mse.Subject != "S00" {
		t.Errorf("expected MissingSourceError for S00, got %v", summary.Err())
	}
	if len(sink.events["S01/mrt02"]) != 3 {
		t.Errorf("S01/mrt02 should have been processed after S00 failed")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(testSources(nil), newMemorySink(), config.DefaultSegmentation(), zap.NewNop().Sugar())
	_, err := p.Run(ctx, []string{"S01"}, []string{"mrt01"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProcessRunWritesEventTable(t *testing.T) {
	specs := fakeSpecs{{Source: "training01", Condition: types.Long, Trial: 1}}
	dir := t.TempDir()
	writer, err := output.NewTableWriter(dir, config.DefaultFilenameTemplate, output.TextEncoder{Decimals: 4})
	if err != nil {
		t.Fatal(err)
	}

	p := New(testSources(specs), writer, config.DefaultSegmentation(), zap.NewNop().Sugar())
	if _, err := p.ProcessRun(context.Background(), "S01", "mrt01"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "eventTable_run1_S01.txt"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	expected := []string{
		"SHORT;5.0000;2.0000;1.0",
		"LONG;27.0000;1.0000;2.0",
		"PASSIVE;48.0000;1.0000;3.0",
	}
	if strings.Join(lines, "|") != strings.Join(expected, "|") {
		t.Errorf("expected %v, got %v", expected, lines)
	}
}
