// Package migration moves monitoring configuration from the source API to
// the target API in four dependent stages.
package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/prompt"
)

// Source is the read-only API being migrated from.
type Source interface {
	ListNodes(ctx context.Context) ([]models.SourceNode, error)
	ListChecksForNode(ctx context.Context, nodeID string) ([]models.SourceCheck, error)
	ListMonitors(ctx context.Context) ([]models.SourceMonitor, error)
}

// Target is the API being migrated to.
type Target interface {
	ListEntities(ctx context.Context) ([]models.Entity, error)
	CreateEntity(ctx context.Context, payload models.Payload) (*models.Entity, error)
	UpdateEntity(ctx context.Context, id string, payload models.Payload) (*models.Entity, error)
	DeleteEntity(ctx context.Context, id string) error

	ListChecks(ctx context.Context, entityID string) ([]models.Check, error)
	CreateCheck(ctx context.Context, entityID string, payload models.Payload) (*models.Check, error)
	UpdateCheck(ctx context.Context, entityID, checkID string, payload models.Payload) (*models.Check, error)
	DeleteCheck(ctx context.Context, entityID, checkID string) error
	TestNewCheck(ctx context.Context, entityID string, payload models.Payload) ([]models.CheckResult, error)
	TestExistingCheck(ctx context.Context, entityID, checkID string) ([]models.CheckResult, error)

	ListAlarms(ctx context.Context, entityID string) ([]models.Alarm, error)
	CreateAlarm(ctx context.Context, entityID string, payload models.Payload) (*models.Alarm, error)
	DeleteAlarm(ctx context.Context, entityID, alarmID string) error
	TestAlarm(ctx context.Context, entityID, criteria string, checkData []models.CheckResult) ([]models.AlarmTestResult, error)

	ListNotifications(ctx context.Context) ([]models.Notification, error)
	CreateNotification(ctx context.Context, payload models.Payload) (*models.Notification, error)
	DeleteNotification(ctx context.Context, id string) error
	TestNotification(ctx context.Context, kind string, details map[string]string) (*models.NotificationTestResult, error)

	ListNotificationPlans(ctx context.Context) ([]models.NotificationPlan, error)
	CreateNotificationPlan(ctx context.Context, payload models.Payload) (*models.NotificationPlan, error)
	UpdateNotificationPlan(ctx context.Context, id string, payload models.Payload) (*models.NotificationPlan, error)
	DeleteNotificationPlan(ctx context.Context, id string) error

	ListMonitoringZones(ctx context.Context) ([]models.MonitoringZone, error)
}

// Options tune a run.
type Options struct {
	DryRun           bool     // plan only, commit nothing
	NoTest           bool     // skip live check, alarm and webhook tests
	MonitoringZones  []string // default zones for remote checks; empty means all
	ConsistencyLevel string   // ALL, ONE or QUORUM
}

// EntityPair is a node and the entity it resolved to.
type EntityPair struct {
	Node   models.SourceNode
	Entity *models.Entity
}

// MigratedCheck is a source check and the target check it resolved to.
type MigratedCheck struct {
	Node    models.SourceNode
	Entity  *models.Entity
	Source  models.SourceCheck
	Monitor models.SourceMonitor
	Check   *models.Check
}

// Migrator runs the migration stages against one source and one target.
type Migrator struct {
	Source  Source
	Target  Target
	Gate    prompt.Gate
	Options Options
	RunID   string

	logger func(string)
	debug  func(string)

	cache     *targetCache
	report    *models.Report
	zones     []string
	hostnames map[string]string // chosen target address by node ID
	ignored   map[string]bool   // declined notifications by type and address
}

// New creates a Migrator. Progress lines go to logger.
func New(src Source, dst Target, gate prompt.Gate, opts Options, logger func(string)) *Migrator {
	if logger == nil {
		logger = func(string) {}
	}
	if gate == nil {
		gate = prompt.Auto{}
	}
	return &Migrator{
		Source:  src,
		Target:  dst,
		Gate:    gate,
		Options: opts,
		logger:  logger,
	}
}

// SetDebug enables payload dumps through debug.
func (m *Migrator) SetDebug(debug func(string)) {
	m.debug = debug
}

func (m *Migrator) begin(command string) *models.Report {
	m.cache = newTargetCache(m.Target)
	m.zones = nil
	m.hostnames = make(map[string]string)
	m.ignored = make(map[string]bool)
	m.report = &models.Report{
		RunID:     m.RunID,
		Command:   command,
		DryRun:    m.Options.DryRun,
		StartedAt: time.Now(),
	}
	if m.Options.DryRun {
		m.logf("Dry run: nothing will be committed")
	}
	return m.report
}

func (m *Migrator) finish() *models.Report {
	m.report.Finish()
	return m.report
}

// Run migrates entities, checks, notifications and alarms in that order.
// Per-item failures are recorded in the report; the returned error is set
// only when the run could not continue.
func (m *Migrator) Run(ctx context.Context) (*models.Report, error) {
	m.begin("migrate")
	defer m.finish()

	nodes, err := m.Source.ListNodes(ctx)
	if err != nil {
		return m.report, fmt.Errorf("listing source nodes: %w", err)
	}
	monitors, err := m.Source.ListMonitors(ctx)
	if err != nil {
		return m.report, fmt.Errorf("listing source monitors: %w", err)
	}

	pairs, err := m.migrateEntities(ctx, nodes)
	if err != nil {
		return m.report, err
	}
	if err := m.checkpoint(ctx); err != nil {
		return m.report, err
	}

	checks, err := m.migrateChecks(ctx, pairs, monitors)
	if err != nil {
		return m.report, err
	}
	if err := m.checkpoint(ctx); err != nil {
		return m.report, err
	}

	plans, err := m.migrateNotifications(ctx, monitorsOf(checks))
	if err != nil {
		return m.report, err
	}
	if err := m.checkpoint(ctx); err != nil {
		return m.report, err
	}

	if err := m.migrateAlarms(ctx, checks, plans); err != nil {
		return m.report, err
	}

	m.logSummary()
	return m.report, nil
}

// SyncNotifications runs only the notification stage, over every source
// monitor.
func (m *Migrator) SyncNotifications(ctx context.Context) (*models.Report, error) {
	m.begin("notifications sync")
	defer m.finish()

	monitors, err := m.Source.ListMonitors(ctx)
	if err != nil {
		return m.report, fmt.Errorf("listing source monitors: %w", err)
	}
	if _, err := m.migrateNotifications(ctx, monitors); err != nil {
		return m.report, err
	}
	m.logSummary()
	return m.report, nil
}

// monitorsOf returns the distinct monitors of surviving checks in first
// seen order.
func monitorsOf(checks []MigratedCheck) []models.SourceMonitor {
	seen := make(map[string]bool)
	var monitors []models.SourceMonitor
	for _, mc := range checks {
		if seen[mc.Monitor.ID] {
			continue
		}
		seen[mc.Monitor.ID] = true
		monitors = append(monitors, mc.Monitor)
	}
	return monitors
}

func (m *Migrator) checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		m.logf("Migration cancelled by user")
		return err
	}
	return nil
}

// abortErr tells whether an error ends the run rather than one item.
func abortErr(ctx context.Context, err error) bool {
	return errors.Is(err, prompt.ErrInputClosed) || ctx.Err() != nil
}

// confirm asks the gate unless this is a dry run.
func (m *Migrator) confirm(question string) (bool, error) {
	if m.Options.DryRun {
		return true, nil
	}
	return m.Gate.Confirm(question)
}

func (m *Migrator) logf(format string, args ...interface{}) {
	m.logger(fmt.Sprintf(format, args...))
}

func (m *Migrator) debugf(format string, args ...interface{}) {
	if m.debug != nil {
		m.debug(fmt.Sprintf(format, args...))
	}
}

// record adds an item to the report and logs it.
func (m *Migrator) record(item models.ItemResult) {
	m.report.Add(item)

	prefix := ""
	if m.Options.DryRun && (item.Action == models.ActionCreated || item.Action == models.ActionUpdated || item.Action == models.ActionDeleted) {
		prefix = "(dry run) "
	}
	switch item.Action {
	case models.ActionCreated:
		m.logf("  %sCREATED: %s (ID %s)", prefix, item.Label, item.TargetID)
	case models.ActionUpdated:
		m.logf("  %sUPDATED: %s (ID %s): %s", prefix, item.Label, item.TargetID, item.Detail)
	case models.ActionUnchanged:
		m.logf("  UNCHANGED: %s (ID %s)", item.Label, item.TargetID)
	case models.ActionDeleted:
		m.logf("  %sDELETED: %s (ID %s)", prefix, item.Label, item.TargetID)
	case models.ActionUnsupported:
		m.logf("  UNSUPPORTED: %s: %s", item.Label, item.Detail)
	case models.ActionFailed:
		m.logf("  FAIL: %s: %s", item.Label, item.Detail)
	default:
		m.logf("  SKIP: %s: %s", item.Label, item.Detail)
	}
}

func (m *Migrator) logSummary() {
	m.logf("")
	for _, stage := range m.report.Stages() {
		m.logf("%-20s %s", stage+":", m.report.Summary(stage))
	}
}
