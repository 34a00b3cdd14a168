package migration

import (
	"context"
	"fmt"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// Purge deletes every alarm and check of every entity, then the entity,
// then all notification plans and notifications. The caller is expected to
// have confirmed the purge; a failing delete is recorded and skipped.
func (m *Migrator) Purge(ctx context.Context) (*models.Report, error) {
	m.begin("clean")
	defer m.finish()

	m.logf("=== Purge ===")
	entities, err := m.Target.ListEntities(ctx)
	if err != nil {
		return m.report, fmt.Errorf("listing entities: %w", err)
	}
	for _, e := range entities {
		if err := m.purgeEntity(ctx, e); err != nil {
			return m.report, err
		}
	}
	if err := m.cleanNotifications(ctx); err != nil {
		return m.report, err
	}
	m.logSummary()
	return m.report, nil
}

// CleanNotifications deletes all notification plans, then all
// notifications.
func (m *Migrator) CleanNotifications(ctx context.Context) (*models.Report, error) {
	m.begin("notifications clean")
	defer m.finish()

	if err := m.cleanNotifications(ctx); err != nil {
		return m.report, err
	}
	m.logSummary()
	return m.report, nil
}

func (m *Migrator) purgeEntity(ctx context.Context, e models.Entity) error {
	alarms, err := m.Target.ListAlarms(ctx, e.ID)
	if err == nil {
		for _, a := range alarms {
			if err := m.remove(ctx, "alarm "+a.ID+" on "+e.Label, a.ID, func(ctx context.Context) error {
				return m.Target.DeleteAlarm(ctx, e.ID, a.ID)
			}); err != nil {
				return err
			}
		}
	} else if m.purgeFailed(ctx, "alarms of "+e.Label, e.ID, err) {
		return err
	}

	checks, err := m.Target.ListChecks(ctx, e.ID)
	if err == nil {
		for _, c := range checks {
			if err := m.remove(ctx, "check "+c.Label+" on "+e.Label, c.ID, func(ctx context.Context) error {
				return m.Target.DeleteCheck(ctx, e.ID, c.ID)
			}); err != nil {
				return err
			}
		}
	} else if m.purgeFailed(ctx, "checks of "+e.Label, e.ID, err) {
		return err
	}

	return m.remove(ctx, "entity "+e.Label, e.ID, func(ctx context.Context) error {
		return m.Target.DeleteEntity(ctx, e.ID)
	})
}

func (m *Migrator) cleanNotifications(ctx context.Context) error {
	m.logf("=== Notification plans ===")
	plans, err := m.Target.ListNotificationPlans(ctx)
	if err != nil {
		return fmt.Errorf("listing notification plans: %w", err)
	}
	for _, p := range plans {
		if err := m.remove(ctx, "plan "+p.Label, p.ID, func(ctx context.Context) error {
			return m.Target.DeleteNotificationPlan(ctx, p.ID)
		}); err != nil {
			return err
		}
	}

	m.logf("=== Notifications ===")
	notifications, err := m.Target.ListNotifications(ctx)
	if err != nil {
		return fmt.Errorf("listing notifications: %w", err)
	}
	for _, n := range notifications {
		if err := m.remove(ctx, n.Type+" "+n.Address(), n.ID, func(ctx context.Context) error {
			return m.Target.DeleteNotification(ctx, n.ID)
		}); err != nil {
			return err
		}
	}
	return nil
}

// remove deletes one record unless this is a dry run. Only cancellation is
// returned as an error.
func (m *Migrator) remove(ctx context.Context, label, id string, del func(context.Context) error) error {
	if err := m.checkpoint(ctx); err != nil {
		return err
	}
	item := models.ItemResult{Stage: models.StagePurge, TargetID: id, Label: label, Action: models.ActionDeleted}
	if !m.Options.DryRun {
		if err := del(ctx); err != nil {
			if abortErr(ctx, err) {
				return err
			}
			item.Action, item.Detail = models.ActionFailed, err.Error()
		}
	}
	m.record(item)
	return nil
}

// purgeFailed records a failed listing and reports whether the run must
// stop.
func (m *Migrator) purgeFailed(ctx context.Context, label, id string, err error) bool {
	if abortErr(ctx, err) {
		return true
	}
	m.record(models.ItemResult{Stage: models.StagePurge, TargetID: id, Label: label, Action: models.ActionFailed, Detail: err.Error()})
	return false
}
