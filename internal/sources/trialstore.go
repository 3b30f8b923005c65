package sources

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chrissnell/eventtable/internal/types"
	_ "modernc.org/sqlite"
)

const trialStoreSchema = `
CREATE TABLE IF NOT EXISTS trials (
	subject   TEXT    NOT NULL,
	run       TEXT    NOT NULL,
	condition TEXT    NOT NULL,
	trial     INTEGER NOT NULL,
	seq       INTEGER NOT NULL,
	time      REAL    NOT NULL,
	angle     REAL    NOT NULL,
	PRIMARY KEY (subject, run, condition, trial, seq)
);

CREATE TABLE IF NOT EXISTS pulse_ranks (
	subject   TEXT NOT NULL,
	run       TEXT NOT NULL,
	condition TEXT NOT NULL,
	rank      REAL NOT NULL,
	PRIMARY KEY (subject, run, condition)
);
`

// SharedRanks is the subject under which ranks that apply to every subject are stored
const SharedRanks = ""

// TrialStore holds preprocessed trial recordings and condition pulse ranks in
// a SQLite database. Trial 0 of a condition is its concatenated recording.
type TrialStore struct {
	db     *sql.DB
	dbPath string
}

// OpenTrialStore opens (and if needed creates) the trial store at dbPath
func OpenTrialStore(dbPath string) (*TrialStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(trialStoreSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create trial store schema: %w", err)
	}

	return &TrialStore{db: db, dbPath: dbPath}, nil
}

// Close closes the database
func (s *TrialStore) Close() error {
	return s.db.Close()
}

// Trial implements TrialReader
func (s *TrialStore) Trial(ctx context.Context, key types.TrialKey) (types.TimeSeries, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time, angle FROM trials
		WHERE subject = ? AND run = ? AND condition = ? AND trial = ?
		ORDER BY seq`,
		key.Subject, key.Run, string(key.Condition), key.Trial,
	)
	if err != nil {
		return types.TimeSeries{}, fmt.Errorf("failed to query trial: %w", err)
	}
	defer rows.Close()

	var ts types.TimeSeries
	for rows.Next() {
		var t, a float64
		if err := rows.Scan(&t, &a); err != nil {
			return types.TimeSeries{}, fmt.Errorf("failed to scan trial sample: %w", err)
		}
		ts.Times = append(ts.Times, t)
		ts.Angles = append(ts.Angles, a)
	}
	if err := rows.Err(); err != nil {
		return types.TimeSeries{}, fmt.Errorf("error iterating trial samples: %w", err)
	}

	if ts.Len() == 0 {
		return types.TimeSeries{}, &types.MissingSourceError{Context: contextOf(key), What: "trial recording in " + s.dbPath}
	}
	return ts, nil
}

// Ranks implements RankLookup. Ranks stored for the subject take precedence
// over ranks stored under SharedRanks.
func (s *TrialStore) Ranks(ctx context.Context, subject, run string) (map[types.Condition]float64, error) {
	for _, who := range []string{subject, SharedRanks} {
		ranks, err := s.ranksFor(ctx, who, run)
		if err != nil {
			return nil, err
		}
		if len(ranks) > 0 {
			return ranks, nil
		}
	}
	return nil, &types.MissingSourceError{
		Context: types.Context{Subject: subject, Run: run},
		What:    "condition pulse ranks in " + s.dbPath,
	}
}

func (s *TrialStore) ranksFor(ctx context.Context, subject, run string) (map[types.Condition]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT condition, rank FROM pulse_ranks WHERE subject = ? AND run = ?`,
		subject, run,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pulse ranks: %w", err)
	}
	defer rows.Close()

	ranks := make(map[types.Condition]float64)
	for rows.Next() {
		var label string
		var rank float64
		if err := rows.Scan(&label, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan pulse rank: %w", err)
		}
		c, err := types.ParseCondition(label)
		if err != nil {
			return nil, fmt.Errorf("pulse_ranks for %s/%s: %w", subject, run, err)
		}
		ranks[c] = rank
	}
	return ranks, rows.Err()
}

// PutTrial stores ts under key, replacing any previous recording
func (s *TrialStore) PutTrial(ctx context.Context, key types.TrialKey, ts types.TimeSeries) error {
	if err := ts.Validate(); err != nil {
		return types.WithContext(err, contextOf(key))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM trials WHERE subject = ? AND run = ? AND condition = ? AND trial = ?`,
		key.Subject, key.Run, string(key.Condition), key.Trial,
	)
	if err != nil {
		return fmt.Errorf("failed to delete previous trial: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trials (subject, run, condition, trial, seq, time, angle) VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i := range ts.Times {
		_, err = stmt.ExecContext(ctx, key.Subject, key.Run, string(key.Condition), key.Trial, i, ts.Times[i], ts.Angles[i])
		if err != nil {
			return fmt.Errorf("failed to insert sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// PutRanks stores the condition ranks for a subject's run. Use SharedRanks as
// the subject for ranks that apply to everyone.
func (s *TrialStore) PutRanks(ctx context.Context, subject, run string, ranks map[types.Condition]float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for c, rank := range ranks {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO pulse_ranks (subject, run, condition, rank) VALUES (?, ?, ?, ?)`,
			subject, run, string(c), rank,
		)
		if err != nil {
			return fmt.Errorf("failed to store rank for %s: %w", c, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
