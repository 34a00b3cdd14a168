package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// PlanLabel is the label of the notification plan built for a monitor.
func PlanLabel(monitor models.SourceMonitor) string {
	return monitor.Name + ":" + monitor.ID
}

func receiverKey(kind, address string) string {
	return kind + " " + address
}

// migrateNotifications creates one notification per distinct receiver
// address and one plan per monitor. It returns the plans by monitor ID;
// monitors without any usable notification get no plan.
func (m *Migrator) migrateNotifications(ctx context.Context, monitors []models.SourceMonitor) (map[string]*models.NotificationPlan, error) {
	m.logf("=== Notifications ===")

	plans := make(map[string]*models.NotificationPlan)
	if _, err := m.cache.Notifications(ctx); err != nil {
		if abortErr(ctx, err) {
			return plans, err
		}
		m.record(models.ItemResult{Stage: models.StageNotifications, Label: "notifications", Action: models.ActionFailed, Detail: err.Error()})
		return plans, nil
	}

	resolved := make(map[string]*models.Notification)
	for _, monitor := range monitors {
		if err := m.checkpoint(ctx); err != nil {
			return plans, err
		}

		var ids []string
		seen := make(map[string]bool)
		for _, r := range monitor.Receivers {
			key := receiverKey(r.Kind, r.Address)
			if m.ignored[key] {
				continue
			}
			n, ok := resolved[key]
			if !ok {
				var err error
				n, err = m.migrateNotification(ctx, r)
				if err != nil {
					return plans, err
				}
				if n == nil {
					continue
				}
				resolved[key] = n
			}
			if !seen[n.ID] {
				seen[n.ID] = true
				ids = append(ids, n.ID)
			}
		}

		if len(ids) == 0 {
			m.record(models.ItemResult{
				Stage: models.StagePlans, SourceID: monitor.ID, Label: PlanLabel(monitor),
				Action: models.ActionSkipped, Detail: "no notifications",
			})
			continue
		}
		plan, err := m.migratePlan(ctx, monitor, ids)
		if err != nil {
			return plans, err
		}
		if plan != nil {
			plans[monitor.ID] = plan
		}
	}
	return plans, nil
}

func (m *Migrator) migrateNotification(ctx context.Context, r models.Receiver) (*models.Notification, error) {
	key := receiverKey(r.Kind, r.Address)
	item := models.ItemResult{Stage: models.StageNotifications, Label: key}

	existing, err := m.cache.Notifications(ctx)
	if err != nil {
		if abortErr(ctx, err) {
			return nil, err
		}
		item.Action, item.Detail = models.ActionFailed, err.Error()
		m.record(item)
		return nil, nil
	}
	if n := MatchNotification(r.Kind, r.Address, existing); n != nil {
		item.Action, item.TargetID = models.ActionUnchanged, n.ID
		m.record(item)
		return n, nil
	}

	label := r.Name
	if label == "" {
		label = r.Address
	}
	details := models.NotificationDetails(r.Kind, r.Address)
	payload := models.Payload{"label": label, "type": r.Kind, "details": details}

	if r.Kind == models.ReceiverWebhook && !m.Options.NoTest && !m.Options.DryRun {
		if passed, detail := m.testNotification(ctx, r.Kind, details); !passed {
			ok, err := m.Gate.Override(fmt.Sprintf("Webhook %s failed its test (%s). Save anyway?", r.Address, detail))
			if err != nil {
				return nil, err
			}
			if !ok {
				m.ignored[key] = true
				item.Action, item.Detail = models.ActionSkipped, "test failed: "+detail
				m.record(item)
				return nil, nil
			}
		}
	}

	ok, err := m.confirm(fmt.Sprintf("Create %s notification %s?", r.Kind, r.Address))
	if err != nil {
		return nil, err
	}
	if !ok {
		m.ignored[key] = true
		item.Action, item.Detail = models.ActionSkipped, "declined"
		m.record(item)
		return nil, nil
	}

	var n *models.Notification
	if m.Options.DryRun {
		n = &models.Notification{ID: m.cache.pendingID("notification"), Label: label, Type: r.Kind, Details: details}
	} else {
		n, err = m.Target.CreateNotification(ctx, payload)
		if err != nil {
			if abortErr(ctx, err) {
				return nil, err
			}
			item.Action, item.Detail = models.ActionFailed, err.Error()
			m.record(item)
			return nil, nil
		}
	}
	m.cache.addNotification(*n)
	item.Action, item.TargetID = models.ActionCreated, n.ID
	m.record(item)
	return n, nil
}

func (m *Migrator) testNotification(ctx context.Context, kind string, details map[string]string) (bool, string) {
	res, err := m.Target.TestNotification(ctx, kind, details)
	if err != nil {
		return false, err.Error()
	}
	if !strings.EqualFold(res.Status, "success") {
		if res.Message != "" {
			return false, res.Message
		}
		return false, "status " + res.Status
	}
	return true, ""
}

// migratePlan reconciles the plan of one monitor. All three states notify
// the same set.
func (m *Migrator) migratePlan(ctx context.Context, monitor models.SourceMonitor, ids []string) (*models.NotificationPlan, error) {
	label := PlanLabel(monitor)
	item := models.ItemResult{Stage: models.StagePlans, SourceID: monitor.ID, Label: label}

	plans, err := m.cache.Plans(ctx)
	if err != nil {
		if abortErr(ctx, err) {
			return nil, err
		}
		item.Action, item.Detail = models.ActionFailed, err.Error()
		m.record(item)
		return nil, nil
	}

	desired := models.NotificationPlan{Label: label, CriticalState: ids, WarningState: ids, OKState: ids}
	existing := MatchPlan(label, plans)
	action, payload := ReconcilePlan(desired, existing)
	item.Action = action

	var question string
	switch action {
	case models.ActionUnchanged:
		item.TargetID = existing.ID
		m.record(item)
		return existing, nil
	case models.ActionCreated:
		question = fmt.Sprintf("Create notification plan %q?", label)
	default:
		item.TargetID = existing.ID
		question = fmt.Sprintf("Update notification plan %q?", label)
	}
	ok, err := m.confirm(question)
	if err != nil {
		return nil, err
	}
	if !ok {
		item.Action, item.Detail = models.ActionSkipped, "declined"
		m.record(item)
		return nil, nil
	}

	var plan *models.NotificationPlan
	switch {
	case m.Options.DryRun:
		plan = &desired
		plan.ID = item.TargetID
		if plan.ID == "" {
			plan.ID = m.cache.pendingID("plan")
		}
	case action == models.ActionCreated:
		plan, err = m.Target.CreateNotificationPlan(ctx, payload)
	default:
		plan, err = m.Target.UpdateNotificationPlan(ctx, existing.ID, payload)
	}
	if err != nil {
		if abortErr(ctx, err) {
			return nil, err
		}
		item.Action, item.Detail = models.ActionFailed, err.Error()
		m.record(item)
		return nil, nil
	}
	m.cache.putPlan(*plan)
	item.TargetID = plan.ID
	m.record(item)
	return plan, nil
}
