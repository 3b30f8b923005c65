package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chrissnell/eventtable/internal/log"
	"github.com/chrissnell/eventtable/internal/output"
	"github.com/chrissnell/eventtable/internal/pipeline"
	"github.com/chrissnell/eventtable/internal/sources"
	"github.com/chrissnell/eventtable/pkg/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAllRunsFailed is returned when not a single run produced an event table
var ErrAllRunsFailed = errors.New("every run failed")

// App represents one batch invocation
type App struct {
	cfg     *config.ConfigData
	logger  *zap.SugaredLogger
	subject string
}

// New creates a new application instance. A non-empty subject restricts the
// batch to that subject.
func New(cfg *config.ConfigData, logger *zap.SugaredLogger, subject string) *App {
	return &App{
		cfg:     cfg,
		logger:  logger,
		subject: subject,
	}
}

// Run processes every configured subject and run, returning once the batch is
// done or an interrupt arrives
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			log.Info("interrupt received, stopping after the current run...")
			cancel()
		case <-ctx.Done():
		}
	}()

	batchID := uuid.New()
	logger := a.logger.With("batch", batchID.String())

	store, err := sources.OpenTrialStore(a.cfg.Data.TrialStore)
	if err != nil {
		return err
	}
	defer store.Close()

	sink, closeSink, err := a.buildSink(batchID, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	src := pipeline.Sources{
		Active: store,
		Ranks:  store,
		Passive: &sources.PassiveSource{
			Specs:    sources.NewIndexDir(a.cfg.Data.IndicesDir),
			Training: sources.NewTrackDir(a.cfg.Data.SubjectsDir),
			Scanner:  store,
		},
	}

	subjects, err := a.subjects()
	if err != nil {
		return err
	}
	logger.Infof("processing %d subjects x %d runs", len(subjects), len(a.cfg.Data.Runs))

	p := pipeline.New(src, sink, a.cfg.Segmentation, logger)
	summary, err := p.Run(ctx, subjects, a.cfg.Data.Runs)
	if err != nil {
		return err
	}

	logger.Infow("batch complete",
		"runs", summary.Runs,
		"failed", summary.Failed,
		"events", summary.Events,
	)

	if summary.AllFailed() {
		return fmt.Errorf("%w: %v", ErrAllRunsFailed, summary.Err())
	}
	return nil
}

func (a *App) subjects() ([]string, error) {
	if a.subject != "" {
		return []string{a.subject}, nil
	}
	subjects, err := sources.DiscoverSubjects(a.cfg.Data.SubjectsDir, a.cfg.Data.SubjectPrefixes, a.cfg.Data.ExcludeSubjects)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects in %s: %w", a.cfg.Data.SubjectsDir, err)
	}
	return subjects, nil
}

func (a *App) buildSink(batchID uuid.UUID, logger *zap.SugaredLogger) (output.Sink, func(), error) {
	var encoder output.Encoder = output.TextEncoder{Decimals: a.cfg.Segmentation.Decimals}
	if a.cfg.Output.Format == config.FormatMsgPack {
		encoder = output.MsgPackEncoder{}
	}

	table, err := output.NewTableWriter(a.cfg.Data.OutputDir, a.cfg.Output.FilenameTemplate, encoder)
	if err != nil {
		return nil, nil, err
	}

	if a.cfg.Storage.Postgres == nil {
		return table, func() {}, nil
	}

	pg, err := output.NewPostgresSink(a.cfg.Storage.Postgres.ConnectionString, batchID, logger)
	if err != nil {
		return nil, nil, err
	}
	return output.MultiSink{table, pg}, func() {
		if err := pg.Close(); err != nil {
			logger.Warnf("failed to close PostgreSQL event sink: %v", err)
		}
	}, nil
}
