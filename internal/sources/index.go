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

// ParseTrialSpec reads a passive index. Lines starting with '#' are comments;
// every other whitespace-separated field is a token such as "training06_LONG_5".
func ParseTrialSpec(r io.Reader) ([]types.TrialToken, error) {
	var tokens []types.TrialToken

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, field := range strings.Fields(line) {
			token, err := ParseTrialToken(field)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read passive index: %w", err)
	}

	return tokens, nil
}

// ParseTrialToken splits "source_CONDITION_trial" into its parts
func ParseTrialToken(field string) (types.TrialToken, error) {
	parts := strings.Split(field, "_")
	if len(parts) != 3 {
		return types.TrialToken{}, &types.MalformedIndexError{Token: field, Reason: "expected source_CONDITION_trial"}
	}

	condition, err := types.ParseCondition(parts[1])
	if err != nil {
		return types.TrialToken{}, &types.MalformedIndexError{Token: field, Reason: err.Error()}
	}

	trial, err := strconv.Atoi(parts[2])
	if err != nil || trial < 1 {
		return types.TrialToken{}, &types.MalformedIndexError{Token: field, Reason: "trial number must be a positive integer"}
	}

	return types.TrialToken{Source: parts[0], Condition: condition, Trial: trial}, nil
}

// IndexDir finds passive index files named "<subject>...index_passive.txt" in a directory
type IndexDir struct {
	dir string
}

// NewIndexDir returns an IndexDir rooted at dir
func NewIndexDir(dir string) *IndexDir {
	return &IndexDir{dir: dir}
}

// TrialSpec implements TrialSpecSource
func (d *IndexDir) TrialSpec(ctx context.Context, subject string) ([]types.TrialToken, error) {
	path, err := d.find(subject)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &types.MissingSourceError{Context: types.Context{Subject: subject}, What: path, Err: err}
	}
	defer f.Close()

	tokens, err := ParseTrialSpec(f)
	if err != nil {
		return nil, types.WithContext(err, types.Context{Subject: subject, Condition: types.Passive})
	}
	return tokens, nil
}

func (d *IndexDir) find(subject string) (string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return "", &types.MissingSourceError{Context: types.Context{Subject: subject}, What: "index directory " + d.dir, Err: err}
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && hasSubjectPrefix(name, subject) && strings.HasSuffix(name, "index_passive.txt") {
			return filepath.Join(d.dir, name), nil
		}
	}
	return "", &types.MissingSourceError{
		Context: types.Context{Subject: subject, Condition: types.Passive},
		What:    "passive index file in " + d.dir,
	}
}

// hasSubjectPrefix reports whether name starts with subject and the subject ID
// is not merely the prefix of a longer one ("S1" must not match "S10_...")
func hasSubjectPrefix(name, subject string) bool {
	if !strings.HasPrefix(name, subject) {
		return false
	}
	rest := name[len(subject):]
	return rest == "" || rest[0] < '0' || rest[0] > '9'
}
