// Package journal keeps an audit trail of runs and their item results in
// a SQL database.
package journal

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// RunRecord is one journaled invocation.
type RunRecord struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Command    string     `gorm:"type:varchar(50);not null" json:"command"`
	Status     string     `gorm:"type:varchar(20);not null;index" json:"status"`
	DryRun     bool       `json:"dry_run"`
	Error      string     `gorm:"type:text" json:"error,omitempty"`
	Summary    string     `gorm:"type:text" json:"summary"`
	Output     string     `gorm:"type:text" json:"-"`
	StartedAt  time.Time  `gorm:"not null;index" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	CreatedAt  time.Time  `json:"created_at"`

	Items []ItemRecord `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (RunRecord) TableName() string {
	return "migration_runs"
}

// ItemRecord is one item result of a journaled run.
type ItemRecord struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	RunID    string `gorm:"type:varchar(36);not null;index" json:"run_id"`
	Stage    string `gorm:"type:varchar(30);not null" json:"stage"`
	SourceID string `gorm:"type:varchar(64)" json:"source_id"`
	TargetID string `gorm:"type:varchar(64)" json:"target_id"`
	Label    string `gorm:"type:varchar(255)" json:"label"`
	Action   string `gorm:"type:varchar(20);not null;index" json:"action"`
	Detail   string `gorm:"type:text" json:"detail"`
}

func (ItemRecord) TableName() string {
	return "migration_items"
}

// Journal writes run records.
type Journal struct {
	db *gorm.DB
}

// dialector picks the driver from the DSN. postgres:// URLs and key=value
// DSNs go to PostgreSQL; anything else is a SQLite file path.
func dialector(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		return postgres.Open(dsn)
	default:
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	}
}

// Open connects to the journal database and migrates its tables.
func Open(dsn string, debug bool) (*Journal, error) {
	level := logger.Silent
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := db.AutoMigrate(&RunRecord{}, &ItemRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	log.Println("Journal opened")
	return &Journal{db: db}, nil
}

// Close releases the underlying connection pool.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save stores a run with its report. Saving the same run again replaces
// its items.
func (j *Journal) Save(run *models.Run, report *models.Report) error {
	rec := RunRecord{
		ID:        run.ID,
		Command:   run.Command,
		Status:    run.Status,
		Error:     run.Error,
		Output:    strings.Join(run.LogsSince(0), "\n"),
		StartedAt: run.StartedAt,
	}
	if report != nil {
		rec.DryRun = report.DryRun
		rec.FinishedAt = report.FinishedAt
		rec.Summary = summarize(report)
		for _, it := range report.Items {
			rec.Items = append(rec.Items, ItemRecord{
				RunID:    run.ID,
				Stage:    it.Stage,
				SourceID: it.SourceID,
				TargetID: it.TargetID,
				Label:    it.Label,
				Action:   string(it.Action),
				Detail:   it.Detail,
			})
		}
	}

	return j.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", rec.ID).Delete(&ItemRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear run items: %w", err)
		}
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("failed to save run %s: %w", rec.ID, err)
		}
		return nil
	})
}

func summarize(report *models.Report) string {
	var lines []string
	for _, stage := range report.Stages() {
		lines = append(lines, stage+": "+report.Summary(stage))
	}
	return strings.Join(lines, "\n")
}

// Runs returns the most recent runs, newest first, without their items.
func (j *Journal) Runs(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	q := j.db.Order("started_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Run returns one run with its items.
func (j *Journal) Run(id string) (*RunRecord, error) {
	var rec RunRecord
	if err := j.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).First(&rec, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return &rec, nil
}
