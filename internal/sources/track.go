package sources

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chrissnell/eventtable/internal/types"
)

const (
	// TrackTimeColumn and TrackAngleColumn locate the fields of a raw track file
	TrackTimeColumn  = 0
	TrackAngleColumn = 4

	trackSuffix = "track.txt"
)

// ReadTrack parses a whitespace-delimited raw track recording. Blank lines and
// lines starting with '#' are skipped.
func ReadTrack(r io.Reader) (types.TimeSeries, error) {
	var ts types.TimeSeries

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) <= TrackAngleColumn {
			return types.TimeSeries{}, &types.MalformedSignalError{
				Reason: fmt.Sprintf("line %d has %d columns, need at least %d", line, len(fields), TrackAngleColumn+1),
			}
		}

		t, err := strconv.ParseFloat(fields[TrackTimeColumn], 64)
		if err != nil {
			return types.TimeSeries{}, &types.MalformedSignalError{Reason: fmt.Sprintf("line %d: bad time: %v", line, err)}
		}
		a, err := strconv.ParseFloat(fields[TrackAngleColumn], 64)
		if err != nil {
			return types.TimeSeries{}, &types.MalformedSignalError{Reason: fmt.Sprintf("line %d: bad angle: %v", line, err)}
		}

		ts.Times = append(ts.Times, t)
		ts.Angles = append(ts.Angles, a)
	}
	if err := scanner.Err(); err != nil {
		return types.TimeSeries{}, fmt.Errorf("failed to read track: %w", err)
	}

	return ts, nil
}

// ReadTrackFile opens and parses one raw track file
func ReadTrackFile(path string) (types.TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.TimeSeries{}, err
	}
	defer f.Close()
	return ReadTrack(f)
}

// TrackDir reads training trials from the raw track files unpacked under
// <root>/<subject>/data/raw/Zip. Files are named like
// S01_run_training06_cnd_LONG_1712_5_track.txt.
type TrackDir struct {
	root   string
	subdir string
}

// NewTrackDir returns a TrackDir for the subjects directory root
func NewTrackDir(root string) *TrackDir {
	return &TrackDir{root: root, subdir: filepath.Join("data", "raw", "Zip")}
}

// Trial implements TrialReader. key.Run names the training session the trial
// was recorded in.
func (d *TrackDir) Trial(ctx context.Context, key types.TrialKey) (types.TimeSeries, error) {
	dir := filepath.Join(d.root, key.Subject, d.subdir)
	path, err := d.find(dir, key)
	if err != nil {
		return types.TimeSeries{}, err
	}

	ts, err := ReadTrackFile(path)
	if err != nil {
		return types.TimeSeries{}, types.WithContext(err, contextOf(key))
	}
	if err := ts.Validate(); err != nil {
		return types.TimeSeries{}, types.WithContext(err, contextOf(key))
	}
	return ts, nil
}

func (d *TrackDir) find(dir string, key types.TrialKey) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &types.MissingSourceError{Context: contextOf(key), What: "raw track directory " + dir, Err: err}
	}

	token := types.TrialToken{Source: key.Run, Condition: key.Condition, Trial: key.Trial}
	for _, e := range entries {
		if !e.IsDir() && MatchTrackFile(e.Name(), token) {
			return filepath.Join(dir, e.Name()), nil
		}
	}

	return "", &types.MalformedIndexError{
		Context: contextOf(key),
		Token:   token.String(),
		Reason:  "no raw track file in " + dir,
	}
}

// MatchTrackFile reports whether a raw track file name holds the trial named
// by token: the source and condition appear in the name and the trial number
// is the field just before "track.txt".
func MatchTrackFile(name string, token types.TrialToken) bool {
	if !strings.HasSuffix(name, trackSuffix) {
		return false
	}
	if !strings.Contains(name, token.Source) || !strings.Contains(name, string(token.Condition)) {
		return false
	}

	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return false
	}
	trial, err := strconv.Atoi(parts[len(parts)-2])
	return err == nil && trial == token.Trial
}

func contextOf(key types.TrialKey) types.Context {
	return types.Context{Subject: key.Subject, Run: key.Run, Condition: key.Condition, Trial: key.Trial}
}
