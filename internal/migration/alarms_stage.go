package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// migrateAlarms creates the alarm of every migrated check whose monitor
// got a notification plan. Existing equal alarms are left alone.
func (m *Migrator) migrateAlarms(ctx context.Context, checks []MigratedCheck, plans map[string]*models.NotificationPlan) error {
	m.logf("=== Alarms ===")

	for _, mc := range checks {
		if err := m.checkpoint(ctx); err != nil {
			return err
		}
		if err := m.migrateAlarm(ctx, mc, plans[mc.Monitor.ID]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) migrateAlarm(ctx context.Context, mc MigratedCheck, plan *models.NotificationPlan) error {
	item := models.ItemResult{Stage: models.StageAlarms, SourceID: mc.Source.ID, Label: mc.Check.Label + " on " + mc.Node.Name}

	if plan == nil {
		item.Action, item.Detail = models.ActionSkipped, "no notification plan"
		m.record(item)
		return nil
	}
	alarm := BuildAlarm(mc, plan.ID, m.Options.ConsistencyLevel)
	if alarm == nil {
		item.Action, item.Detail = models.ActionSkipped, "no alarm rules for "+mc.Check.Type
		m.record(item)
		return nil
	}

	existing, err := m.cache.Alarms(ctx, mc.Entity.ID)
	if err != nil {
		if abortErr(ctx, err) {
			return err
		}
		item.Action, item.Detail = models.ActionFailed, err.Error()
		m.record(item)
		return nil
	}
	if dup := FindDuplicateAlarm(*alarm, existing); dup != nil {
		item.Action, item.TargetID = models.ActionUnchanged, dup.ID
		m.record(item)
		return nil
	}

	if !m.Options.NoTest && !m.Options.DryRun {
		if passed, detail := m.testAlarm(ctx, *alarm); !passed {
			ok, err := m.Gate.Override(fmt.Sprintf("Alarm for %s failed its test (%s). Save anyway?", item.Label, detail))
			if err != nil {
				return err
			}
			if !ok {
				item.Action, item.Detail = models.ActionSkipped, "test failed: "+detail
				m.record(item)
				return nil
			}
		}
	}

	ok, err := m.confirm(fmt.Sprintf("Create alarm for %s?", item.Label))
	if err != nil {
		return err
	}
	if !ok {
		item.Action, item.Detail = models.ActionSkipped, "declined"
		m.record(item)
		return nil
	}

	created := alarm
	if m.Options.DryRun {
		alarm.ID = m.cache.pendingID("alarm")
	} else {
		payload, err := models.ToPayload(alarm)
		if err == nil {
			m.debugf("  alarm %s payload: %v", item.Label, payload)
			created, err = m.Target.CreateAlarm(ctx, mc.Entity.ID, payload)
		}
		if err != nil {
			if abortErr(ctx, err) {
				return err
			}
			item.Action, item.Detail = models.ActionFailed, err.Error()
			m.record(item)
			return nil
		}
	}
	m.cache.addAlarm(*created)
	item.Action, item.TargetID = models.ActionCreated, created.ID
	m.record(item)
	return nil
}

// testAlarm feeds fresh data of the existing check through the criteria;
// every predicted state must be OK.
func (m *Migrator) testAlarm(ctx context.Context, alarm models.Alarm) (bool, string) {
	if isPending(alarm.CheckID) {
		return true, ""
	}
	data, err := m.Target.TestExistingCheck(ctx, alarm.EntityID, alarm.CheckID)
	if err != nil {
		return false, err.Error()
	}
	results, err := m.Target.TestAlarm(ctx, alarm.EntityID, alarm.Criteria, data)
	if err != nil {
		return false, err.Error()
	}
	if len(results) == 0 {
		return false, "no results"
	}
	for _, r := range results {
		if !strings.EqualFold(r.State, "OK") {
			return false, "state " + r.State
		}
	}
	return true, ""
}
