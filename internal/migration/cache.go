package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

const pendingPrefix = "pending-"

// targetCache holds target collections for one run. Each collection is
// listed on first use and then only extended with records the run itself
// creates or updates.
type targetCache struct {
	target Target

	entities      []models.Entity
	entitiesReady bool

	checks map[string][]models.Check // by entity ID
	alarms map[string][]models.Alarm // by entity ID

	notifications      []models.Notification
	notificationsReady bool

	plans      []models.NotificationPlan
	plansReady bool

	zones      []models.MonitoringZone
	zonesReady bool

	pending int
}

func newTargetCache(target Target) *targetCache {
	return &targetCache{
		target: target,
		checks: make(map[string][]models.Check),
		alarms: make(map[string][]models.Alarm),
	}
}

// pendingID returns a placeholder id for a record a dry run would create.
func (c *targetCache) pendingID(kind string) string {
	c.pending++
	return fmt.Sprintf("%s%s-%d", pendingPrefix, kind, c.pending)
}

func isPending(id string) bool {
	return strings.HasPrefix(id, pendingPrefix)
}

func (c *targetCache) Entities(ctx context.Context) ([]models.Entity, error) {
	if !c.entitiesReady {
		entities, err := c.target.ListEntities(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing entities: %w", err)
		}
		c.entities = entities
		c.entitiesReady = true
	}
	return c.entities, nil
}

func (c *targetCache) putEntity(e models.Entity) {
	for i := range c.entities {
		if c.entities[i].ID == e.ID {
			c.entities[i] = e
			return
		}
	}
	c.entities = append(c.entities, e)
}

func (c *targetCache) Checks(ctx context.Context, entityID string) ([]models.Check, error) {
	if checks, ok := c.checks[entityID]; ok || isPending(entityID) {
		return checks, nil
	}
	checks, err := c.target.ListChecks(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing checks for entity %s: %w", entityID, err)
	}
	if checks == nil {
		checks = []models.Check{}
	}
	c.checks[entityID] = checks
	return checks, nil
}

func (c *targetCache) putCheck(ch models.Check) {
	checks := c.checks[ch.EntityID]
	for i := range checks {
		if checks[i].ID == ch.ID {
			checks[i] = ch
			return
		}
	}
	c.checks[ch.EntityID] = append(checks, ch)
}

func (c *targetCache) Alarms(ctx context.Context, entityID string) ([]models.Alarm, error) {
	if alarms, ok := c.alarms[entityID]; ok || isPending(entityID) {
		return alarms, nil
	}
	alarms, err := c.target.ListAlarms(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing alarms for entity %s: %w", entityID, err)
	}
	if alarms == nil {
		alarms = []models.Alarm{}
	}
	c.alarms[entityID] = alarms
	return alarms, nil
}

func (c *targetCache) addAlarm(a models.Alarm) {
	c.alarms[a.EntityID] = append(c.alarms[a.EntityID], a)
}

func (c *targetCache) Notifications(ctx context.Context) ([]models.Notification, error) {
	if !c.notificationsReady {
		notifications, err := c.target.ListNotifications(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing notifications: %w", err)
		}
		c.notifications = notifications
		c.notificationsReady = true
	}
	return c.notifications, nil
}

func (c *targetCache) addNotification(n models.Notification) {
	c.notifications = append(c.notifications, n)
}

func (c *targetCache) Plans(ctx context.Context) ([]models.NotificationPlan, error) {
	if !c.plansReady {
		plans, err := c.target.ListNotificationPlans(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing notification plans: %w", err)
		}
		c.plans = plans
		c.plansReady = true
	}
	return c.plans, nil
}

func (c *targetCache) putPlan(p models.NotificationPlan) {
	for i := range c.plans {
		if c.plans[i].ID == p.ID {
			c.plans[i] = p
			return
		}
	}
	c.plans = append(c.plans, p)
}

func (c *targetCache) Zones(ctx context.Context) ([]models.MonitoringZone, error) {
	if !c.zonesReady {
		zones, err := c.target.ListMonitoringZones(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing monitoring zones: %w", err)
		}
		c.zones = zones
		c.zonesReady = true
	}
	return c.zones, nil
}
