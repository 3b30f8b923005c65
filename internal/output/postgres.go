package output

import (
	"context"
	"fmt"
	"time"

	"github.com/chrissnell/eventtable/internal/log"
	"github.com/chrissnell/eventtable/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// EventRow is the database form of an event record
type EventRow struct {
	ID        uint      `gorm:"primaryKey"`
	BatchID   string    `gorm:"type:uuid;index"`
	Subject   string    `gorm:"index:idx_event_run"`
	Run       string    `gorm:"index:idx_event_run"`
	Seq       int       `gorm:"not null"`
	Condition string    `gorm:"not null"`
	Onset     float64   `gorm:"not null"`
	Duration  float64   `gorm:"not null"`
	Angle     float64   `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName sets the table for EventRow
func (EventRow) TableName() string {
	return "event_records"
}

// PostgresSink stores events in PostgreSQL. Every row is stamped with the
// batch ID so results from different invocations can be told apart.
type PostgresSink struct {
	db      *gorm.DB
	batchID uuid.UUID
	logger  *zap.SugaredLogger

	// next sequence number per subject/run
	seq map[string]int
}

// NewPostgresSink connects to PostgreSQL and migrates the event table
func NewPostgresSink(connectionString string, batchID uuid.UUID, logger *zap.SugaredLogger) (*PostgresSink, error) {
	dbLogger := gormLogger()

	logger.Info("connecting to PostgreSQL event sink...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to PostgreSQL: %w", err)
	}

	if err := db.AutoMigrate(&EventRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate event_records: %w", err)
	}
	logger.Info("PostgreSQL event sink ready")

	return &PostgresSink{
		db:      db,
		batchID: batchID,
		logger:  logger,
		seq:     make(map[string]int),
	}, nil
}

func gormLogger() logger.Interface {
	return logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// BeginRun removes rows a previous batch stored for the run
func (p *PostgresSink) BeginRun(ctx context.Context, subject, run string) error {
	p.seq[subject+"/"+run] = 0
	res := p.db.WithContext(ctx).Where("subject = ? AND run = ?", subject, run).Delete(&EventRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to clear previous events for %s/%s: %w", subject, run, res.Error)
	}
	if res.RowsAffected > 0 {
		p.logger.Debugf("removed %d stale event rows for %s/%s", res.RowsAffected, subject, run)
	}
	return nil
}

// Append inserts the events in one transaction
func (p *PostgresSink) Append(ctx context.Context, subject, run string, records []types.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	key := subject + "/" + run
	rows := ToRows(p.batchID, subject, run, p.seq[key], records)

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return fmt.Errorf("failed to insert events for %s/%s: %w", subject, run, err)
	}

	p.seq[key] += len(rows)
	return nil
}

// ToRows converts records to database rows numbered from firstSeq
func ToRows(batchID uuid.UUID, subject, run string, firstSeq int, records []types.EventRecord) []EventRow {
	rows := make([]EventRow, len(records))
	for i, r := range records {
		rows[i] = EventRow{
			BatchID:   batchID.String(),
			Subject:   subject,
			Run:       run,
			Seq:       firstSeq + i,
			Condition: string(r.Condition),
			Onset:     r.Onset,
			Duration:  r.Duration,
			Angle:     r.Angle,
		}
	}
	return rows
}

// Close releases the database connection pool
func (p *PostgresSink) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
