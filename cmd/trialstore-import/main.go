package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chrissnell/eventtable/internal/sources"
	"github.com/chrissnell/eventtable/internal/types"
)

// trialstore-import loads raw track files and condition ranks into the SQLite
// trial store read by eventtable.
//
//	trialstore-import -db trials.db -subject S01 -run mrt01 -condition LONG S01_mrt01_LONG_track.txt
//	trialstore-import -db trials.db -subject S01 -run mrt01 -condition SHORT -trial 3 trial3_track.txt
//	trialstore-import -db trials.db -run mrt01 -ranks LONG=412,SHORT=830,PASSIVE=6
func main() {
	var (
		dbPath    = flag.String("db", "", "Path to the SQLite trial store (required)")
		subject   = flag.String("subject", "", "Subject ID; leave empty with -ranks to store ranks shared by every subject")
		run       = flag.String("run", "", "Scanning run, e.g. mrt01 (required)")
		condition = flag.String("condition", "", "Condition of the track file: LONG, SHORT or PASSIVE")
		trial     = flag.Int("trial", 0, "Trial number; 0 stores the concatenated condition recording")
		ranks     = flag.String("ranks", "", "Condition ranks as LABEL=rank pairs, e.g. LONG=2,SHORT=1,PASSIVE=3")
	)
	flag.Parse()

	if *dbPath == "" || *run == "" || (*ranks == "" && flag.NArg() != 1) {
		fmt.Fprintf(os.Stderr, "Usage: %s -db <trials.db> -run <run> [-subject S01 -condition LONG [-trial N] <track.txt>] [-ranks LONG=1,...]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	store, err := sources.OpenTrialStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	if *ranks != "" {
		parsed, err := parseRanks(*ranks)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := store.PutRanks(ctx, *subject, *run, parsed); err != nil {
			fmt.Fprintf(os.Stderr, "Error storing ranks: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Stored %d condition ranks for run %s\n", len(parsed), *run)
	}

	if flag.NArg() == 1 {
		if *subject == "" {
			fmt.Fprintf(os.Stderr, "Error: -subject is required when importing a track file\n")
			os.Exit(1)
		}
		cond, err := types.ParseCondition(*condition)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ts, err := sources.ReadTrackFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", flag.Arg(0), err)
			os.Exit(1)
		}

		key := types.TrialKey{Subject: *subject, Run: *run, Condition: cond, Trial: *trial}
		if err := store.PutTrial(ctx, key, ts); err != nil {
			fmt.Fprintf(os.Stderr, "Error storing trial: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Stored %d samples for %s/%s %s trial %d (%.3f s)\n",
			ts.Len(), *subject, *run, cond, *trial, ts.Span())
	}
}

func parseRanks(s string) (map[types.Condition]float64, error) {
	ranks := make(map[types.Condition]float64)
	for _, pair := range strings.Split(s, ",") {
		label, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("rank %q is not LABEL=rank", pair)
		}
		cond, err := types.ParseCondition(label)
		if err != nil {
			return nil, err
		}
		rank, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("rank for %s: %w", cond, err)
		}
		ranks[cond] = rank
	}
	return ranks, nil
}
