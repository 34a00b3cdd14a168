package testhelpers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// ErrFakeNotFound is returned by FakeTarget for unknown ids.
var ErrFakeNotFound = errors.New("not found")

// ========================================
// Fake Source
// ========================================

// FakeSource is an in-memory source API
type FakeSource struct {
	Nodes    []models.SourceNode
	Checks   map[string][]models.SourceCheck // by node ID
	Monitors []models.SourceMonitor

	ListErr error
}

// NewFakeSource creates an empty fake source
func NewFakeSource() *FakeSource {
	return &FakeSource{Checks: make(map[string][]models.SourceCheck)}
}

// WithNode adds a node and its checks
func (s *FakeSource) WithNode(node models.SourceNode, checks ...models.SourceCheck) *FakeSource {
	s.Nodes = append(s.Nodes, node)
	for _, c := range checks {
		c.NodeID = node.ID
		s.Checks[node.ID] = append(s.Checks[node.ID], c)
	}
	return s
}

// WithMonitor adds a monitor
func (s *FakeSource) WithMonitor(m models.SourceMonitor) *FakeSource {
	s.Monitors = append(s.Monitors, m)
	return s
}

func (s *FakeSource) ListNodes(ctx context.Context) ([]models.SourceNode, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return append([]models.SourceNode(nil), s.Nodes...), nil
}

func (s *FakeSource) ListChecksForNode(ctx context.Context, nodeID string) ([]models.SourceCheck, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return append([]models.SourceCheck(nil), s.Checks[nodeID]...), nil
}

func (s *FakeSource) ListMonitors(ctx context.Context) ([]models.SourceMonitor, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return append([]models.SourceMonitor(nil), s.Monitors...), nil
}

// ========================================
// Fake Target
// ========================================

// FakeTarget is an in-memory target API. Every method call is counted in
// Calls and every create/update payload is kept in Payloads, both keyed by
// method name.
type FakeTarget struct {
	mu sync.Mutex

	Entities      []models.Entity
	Checks        map[string][]models.Check // by entity ID
	Alarms        map[string][]models.Alarm // by entity ID
	Notifications []models.Notification
	Plans         []models.NotificationPlan
	Zones         []models.MonitoringZone

	CheckAvailable     bool   // result of check tests
	AlarmState         string // result of alarm tests
	NotificationStatus string // result of notification tests

	ListErr   error
	CreateErr error

	AlarmListErr map[string]error // by entity ID
	DeleteErr    map[string]error // by record ID

	Deleted []string // "<kind> <id>" in call order

	Calls    map[string]int
	Payloads map[string][]models.Payload
}

// NewFakeTarget creates an empty target with two monitoring zones and
// passing live tests
func NewFakeTarget() *FakeTarget {
	return &FakeTarget{
		Checks: make(map[string][]models.Check),
		Alarms: make(map[string][]models.Alarm),
		Zones: []models.MonitoringZone{
			{ID: "mzdfw", Label: "Dallas Fort Worth (DFW)", CountryCode: "US"},
			{ID: "mzord", Label: "Chicago (ORD)", CountryCode: "US"},
		},
		CheckAvailable:     true,
		AlarmState:         "OK",
		NotificationStatus: "success",
		AlarmListErr:       make(map[string]error),
		DeleteErr:          make(map[string]error),
		Calls:              make(map[string]int),
		Payloads:           make(map[string][]models.Payload),
	}
}

// WithEntity seeds an existing entity
func (f *FakeTarget) WithEntity(e models.Entity) *FakeTarget {
	if e.ID == "" {
		e.ID = newID("en")
	}
	f.Entities = append(f.Entities, e)
	return f
}

// WithCheck seeds an existing check
func (f *FakeTarget) WithCheck(c models.Check) *FakeTarget {
	if c.ID == "" {
		c.ID = newID("ch")
	}
	f.Checks[c.EntityID] = append(f.Checks[c.EntityID], c)
	return f
}

// WithNotification seeds an existing notification
func (f *FakeTarget) WithNotification(n models.Notification) *FakeTarget {
	if n.ID == "" {
		n.ID = newID("nt")
	}
	f.Notifications = append(f.Notifications, n)
	return f
}

// WithPlan seeds an existing notification plan
func (f *FakeTarget) WithPlan(p models.NotificationPlan) *FakeTarget {
	if p.ID == "" {
		p.ID = newID("np")
	}
	f.Plans = append(f.Plans, p)
	return f
}

// WithAlarm seeds an existing alarm
func (f *FakeTarget) WithAlarm(a models.Alarm) *FakeTarget {
	if a.ID == "" {
		a.ID = newID("al")
	}
	f.Alarms[a.EntityID] = append(f.Alarms[a.EntityID], a)
	return f
}

// CallCount returns how many times a method was called
func (f *FakeTarget) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

// AllChecks returns every stored check
func (f *FakeTarget) AllChecks() []models.Check {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Check
	for _, e := range f.Entities {
		out = append(out, f.Checks[e.ID]...)
	}
	return out
}

// AllAlarms returns every stored alarm
func (f *FakeTarget) AllAlarms() []models.Alarm {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Alarm
	for _, e := range f.Entities {
		out = append(out, f.Alarms[e.ID]...)
	}
	return out
}

func (f *FakeTarget) record(method string, payload models.Payload) {
	f.Calls[method]++
	if payload != nil {
		f.Payloads[method] = append(f.Payloads[method], payload)
	}
}

func newID(prefix string) string {
	return prefix + uuid.New().String()[:8]
}

// decodeInto applies payload over base, then decodes the result into dest.
func decodeInto(base interface{}, payload models.Payload, dest interface{}) error {
	merged := models.Payload{}
	if base != nil {
		p, err := models.ToPayload(base)
		if err != nil {
			return err
		}
		merged = p
	}
	for k, v := range payload {
		merged[k] = v
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (f *FakeTarget) entityIndex(id string) int {
	for i := range f.Entities {
		if f.Entities[i].ID == id {
			return i
		}
	}
	return -1
}

// Entities

func (f *FakeTarget) ListEntities(ctx context.Context) ([]models.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListEntities", nil)
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]models.Entity(nil), f.Entities...), nil
}

func (f *FakeTarget) CreateEntity(ctx context.Context, payload models.Payload) (*models.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateEntity", payload)
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	var e models.Entity
	if err := decodeInto(nil, payload, &e); err != nil {
		return nil, err
	}
	e.ID = newID("en")
	f.Entities = append(f.Entities, e)
	return &e, nil
}

func (f *FakeTarget) UpdateEntity(ctx context.Context, id string, payload models.Payload) (*models.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateEntity", payload)
	i := f.entityIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("entity %s: %w", id, ErrFakeNotFound)
	}
	var e models.Entity
	if err := decodeInto(f.Entities[i], payload, &e); err != nil {
		return nil, err
	}
	e.ID = id
	f.Entities[i] = e
	return &e, nil
}

func (f *FakeTarget) DeleteEntity(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteEntity", nil)
	if err := f.DeleteErr[id]; err != nil {
		return err
	}
	f.Deleted = append(f.Deleted, "entity "+id)
	i := f.entityIndex(id)
	if i < 0 {
		return nil
	}
	f.Entities = append(f.Entities[:i], f.Entities[i+1:]...)
	delete(f.Checks, id)
	delete(f.Alarms, id)
	return nil
}

// Checks

func (f *FakeTarget) ListChecks(ctx context.Context, entityID string) ([]models.Check, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListChecks", nil)
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]models.Check(nil), f.Checks[entityID]...), nil
}

func (f *FakeTarget) CreateCheck(ctx context.Context, entityID string, payload models.Payload) (*models.Check, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateCheck", payload)
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	var c models.Check
	if err := decodeInto(nil, payload, &c); err != nil {
		return nil, err
	}
	c.ID = newID("ch")
	c.EntityID = entityID
	f.Checks[entityID] = append(f.Checks[entityID], c)
	return &c, nil
}

func (f *FakeTarget) UpdateCheck(ctx context.Context, entityID, checkID string, payload models.Payload) (*models.Check, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateCheck", payload)
	for i, c := range f.Checks[entityID] {
		if c.ID != checkID {
			continue
		}
		var updated models.Check
		if err := decodeInto(c, payload, &updated); err != nil {
			return nil, err
		}
		updated.ID = checkID
		updated.EntityID = entityID
		f.Checks[entityID][i] = updated
		return &updated, nil
	}
	return nil, fmt.Errorf("check %s: %w", checkID, ErrFakeNotFound)
}

func (f *FakeTarget) DeleteCheck(ctx context.Context, entityID, checkID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteCheck", nil)
	if err := f.DeleteErr[checkID]; err != nil {
		return err
	}
	f.Deleted = append(f.Deleted, "check "+checkID)
	checks := f.Checks[entityID]
	for i, c := range checks {
		if c.ID == checkID {
			f.Checks[entityID] = append(checks[:i], checks[i+1:]...)
			break
		}
	}
	return nil
}

func (f *FakeTarget) checkResults() []models.CheckResult {
	return []models.CheckResult{{
		"monitoring_zone_id": "mzdfw",
		"available":          f.CheckAvailable,
		"status":             "code=200,rt=0.1s",
		"metrics":            map[string]interface{}{},
	}}
}

func (f *FakeTarget) TestNewCheck(ctx context.Context, entityID string, payload models.Payload) ([]models.CheckResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("TestNewCheck", payload)
	return f.checkResults(), nil
}

func (f *FakeTarget) TestExistingCheck(ctx context.Context, entityID, checkID string) ([]models.CheckResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("TestExistingCheck", nil)
	return f.checkResults(), nil
}

// Alarms

func (f *FakeTarget) ListAlarms(ctx context.Context, entityID string) ([]models.Alarm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListAlarms", nil)
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	if err := f.AlarmListErr[entityID]; err != nil {
		return nil, err
	}
	return append([]models.Alarm(nil), f.Alarms[entityID]...), nil
}

func (f *FakeTarget) CreateAlarm(ctx context.Context, entityID string, payload models.Payload) (*models.Alarm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateAlarm", payload)
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	var a models.Alarm
	if err := decodeInto(nil, payload, &a); err != nil {
		return nil, err
	}
	a.ID = newID("al")
	a.EntityID = entityID
	f.Alarms[entityID] = append(f.Alarms[entityID], a)
	return &a, nil
}

func (f *FakeTarget) DeleteAlarm(ctx context.Context, entityID, alarmID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteAlarm", nil)
	if err := f.DeleteErr[alarmID]; err != nil {
		return err
	}
	f.Deleted = append(f.Deleted, "alarm "+alarmID)
	alarms := f.Alarms[entityID]
	for i, a := range alarms {
		if a.ID == alarmID {
			f.Alarms[entityID] = append(alarms[:i], alarms[i+1:]...)
			break
		}
	}
	return nil
}

func (f *FakeTarget) TestAlarm(ctx context.Context, entityID, criteria string, checkData []models.CheckResult) ([]models.AlarmTestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("TestAlarm", models.Payload{"criteria": criteria})
	return []models.AlarmTestResult{{State: f.AlarmState, Status: "matched"}}, nil
}

// Notifications

func (f *FakeTarget) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListNotifications", nil)
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]models.Notification(nil), f.Notifications...), nil
}

func (f *FakeTarget) CreateNotification(ctx context.Context, payload models.Payload) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateNotification", payload)
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	var n models.Notification
	if err := decodeInto(nil, payload, &n); err != nil {
		return nil, err
	}
	n.ID = newID("nt")
	f.Notifications = append(f.Notifications, n)
	return &n, nil
}

func (f *FakeTarget) DeleteNotification(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteNotification", nil)
	if err := f.DeleteErr[id]; err != nil {
		return err
	}
	f.Deleted = append(f.Deleted, "notification "+id)
	for i, n := range f.Notifications {
		if n.ID == id {
			f.Notifications = append(f.Notifications[:i], f.Notifications[i+1:]...)
			break
		}
	}
	return nil
}

func (f *FakeTarget) TestNotification(ctx context.Context, kind string, details map[string]string) (*models.NotificationTestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("TestNotification", models.Payload{"type": kind})
	return &models.NotificationTestResult{Status: f.NotificationStatus}, nil
}

// Notification plans

func (f *FakeTarget) ListNotificationPlans(ctx context.Context) ([]models.NotificationPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListNotificationPlans", nil)
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]models.NotificationPlan(nil), f.Plans...), nil
}

func (f *FakeTarget) CreateNotificationPlan(ctx context.Context, payload models.Payload) (*models.NotificationPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateNotificationPlan", payload)
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	var p models.NotificationPlan
	if err := decodeInto(nil, payload, &p); err != nil {
		return nil, err
	}
	p.ID = newID("np")
	f.Plans = append(f.Plans, p)
	return &p, nil
}

func (f *FakeTarget) UpdateNotificationPlan(ctx context.Context, id string, payload models.Payload) (*models.NotificationPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateNotificationPlan", payload)
	for i, p := range f.Plans {
		if p.ID != id {
			continue
		}
		var updated models.NotificationPlan
		if err := decodeInto(p, payload, &updated); err != nil {
			return nil, err
		}
		updated.ID = id
		f.Plans[i] = updated
		return &updated, nil
	}
	return nil, fmt.Errorf("notification plan %s: %w", id, ErrFakeNotFound)
}

func (f *FakeTarget) DeleteNotificationPlan(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteNotificationPlan", nil)
	if err := f.DeleteErr[id]; err != nil {
		return err
	}
	f.Deleted = append(f.Deleted, "plan "+id)
	for i, p := range f.Plans {
		if p.ID == id {
			f.Plans = append(f.Plans[:i], f.Plans[i+1:]...)
			break
		}
	}
	return nil
}

// Monitoring zones

func (f *FakeTarget) ListMonitoringZones(ctx context.Context) ([]models.MonitoringZone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListMonitoringZones", nil)
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]models.MonitoringZone(nil), f.Zones...), nil
}
