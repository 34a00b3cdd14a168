package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// RackspaceClient talks to the Cloud Monitoring API.
type RackspaceClient struct {
	client *Client
}

// NewRackspaceClient authenticates against identity and returns a client
// bound to the monitoring endpoint.
func NewRackspaceClient(ctx context.Context, conn *models.Connection) (*RackspaceClient, error) {
	session, err := Authenticate(ctx, conn)
	if err != nil {
		return nil, err
	}
	monConn := *conn
	monConn.BaseURL = session.MonitoringURL
	return NewRackspaceClientWithToken(&monConn, session.Token)
}

// NewRackspaceClientWithToken builds a client for an already issued token.
func NewRackspaceClientWithToken(conn *models.Connection, token string) (*RackspaceClient, error) {
	client, err := NewClient(conn)
	if err != nil {
		return nil, err
	}
	client.authorize = func(req *http.Request) {
		req.Header.Set("X-Auth-Token", token)
	}
	return &RackspaceClient{client: client}, nil
}

func listAs[T any](raws []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("parsing resource: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Entities

func (r *RackspaceClient) ListEntities(ctx context.Context) ([]models.Entity, error) {
	raws, err := r.client.GetAll(ctx, "/entities")
	if err != nil {
		return nil, err
	}
	return listAs[models.Entity](raws)
}

func (r *RackspaceClient) CreateEntity(ctx context.Context, payload models.Payload) (*models.Entity, error) {
	var e models.Entity
	if err := r.client.CreateAndFetch(ctx, "/entities", payload, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *RackspaceClient) UpdateEntity(ctx context.Context, id string, payload models.Payload) (*models.Entity, error) {
	var e models.Entity
	if err := r.client.UpdateAndFetch(ctx, "/entities/"+id, payload, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *RackspaceClient) DeleteEntity(ctx context.Context, id string) error {
	return r.client.Delete(ctx, "/entities/"+id)
}

// Checks

func (r *RackspaceClient) ListChecks(ctx context.Context, entityID string) ([]models.Check, error) {
	raws, err := r.client.GetAll(ctx, "/entities/"+entityID+"/checks")
	if err != nil {
		return nil, err
	}
	checks, err := listAs[models.Check](raws)
	if err != nil {
		return nil, err
	}
	for i := range checks {
		checks[i].EntityID = entityID
	}
	return checks, nil
}

func (r *RackspaceClient) CreateCheck(ctx context.Context, entityID string, payload models.Payload) (*models.Check, error) {
	var c models.Check
	if err := r.client.CreateAndFetch(ctx, "/entities/"+entityID+"/checks", payload, &c); err != nil {
		return nil, err
	}
	c.EntityID = entityID
	return &c, nil
}

func (r *RackspaceClient) UpdateCheck(ctx context.Context, entityID, checkID string, payload models.Payload) (*models.Check, error) {
	var c models.Check
	if err := r.client.UpdateAndFetch(ctx, "/entities/"+entityID+"/checks/"+checkID, payload, &c); err != nil {
		return nil, err
	}
	c.EntityID = entityID
	return &c, nil
}

func (r *RackspaceClient) DeleteCheck(ctx context.Context, entityID, checkID string) error {
	return r.client.Delete(ctx, "/entities/"+entityID+"/checks/"+checkID)
}

// TestNewCheck runs a check payload once without saving it.
func (r *RackspaceClient) TestNewCheck(ctx context.Context, entityID string, payload models.Payload) ([]models.CheckResult, error) {
	body, _, err := r.client.Post(ctx, "/entities/"+entityID+"/test-check", payload)
	if err != nil {
		return nil, err
	}
	return parseCheckResults(body)
}

// TestExistingCheck runs a saved check once.
func (r *RackspaceClient) TestExistingCheck(ctx context.Context, entityID, checkID string) ([]models.CheckResult, error) {
	body, _, err := r.client.Post(ctx, "/entities/"+entityID+"/checks/"+checkID+"/test", nil)
	if err != nil {
		return nil, err
	}
	return parseCheckResults(body)
}

func parseCheckResults(body []byte) ([]models.CheckResult, error) {
	var results []models.CheckResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("parsing check test result: %w", err)
	}
	return results, nil
}

// Alarms

func (r *RackspaceClient) ListAlarms(ctx context.Context, entityID string) ([]models.Alarm, error) {
	raws, err := r.client.GetAll(ctx, "/entities/"+entityID+"/alarms")
	if err != nil {
		return nil, err
	}
	alarms, err := listAs[models.Alarm](raws)
	if err != nil {
		return nil, err
	}
	for i := range alarms {
		alarms[i].EntityID = entityID
	}
	return alarms, nil
}

func (r *RackspaceClient) CreateAlarm(ctx context.Context, entityID string, payload models.Payload) (*models.Alarm, error) {
	var a models.Alarm
	if err := r.client.CreateAndFetch(ctx, "/entities/"+entityID+"/alarms", payload, &a); err != nil {
		return nil, err
	}
	a.EntityID = entityID
	return &a, nil
}

func (r *RackspaceClient) DeleteAlarm(ctx context.Context, entityID, alarmID string) error {
	return r.client.Delete(ctx, "/entities/"+entityID+"/alarms/"+alarmID)
}

// TestAlarm evaluates criteria against previously collected check data.
func (r *RackspaceClient) TestAlarm(ctx context.Context, entityID, criteria string, checkData []models.CheckResult) ([]models.AlarmTestResult, error) {
	payload := map[string]interface{}{
		"criteria":   criteria,
		"check_data": checkData,
	}
	body, _, err := r.client.Post(ctx, "/entities/"+entityID+"/test-alarm", payload)
	if err != nil {
		return nil, err
	}
	var results []models.AlarmTestResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("parsing alarm test result: %w", err)
	}
	return results, nil
}

// Notifications

func (r *RackspaceClient) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	raws, err := r.client.GetAll(ctx, "/notifications")
	if err != nil {
		return nil, err
	}
	return listAs[models.Notification](raws)
}

func (r *RackspaceClient) CreateNotification(ctx context.Context, payload models.Payload) (*models.Notification, error) {
	var n models.Notification
	if err := r.client.CreateAndFetch(ctx, "/notifications", payload, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *RackspaceClient) DeleteNotification(ctx context.Context, id string) error {
	return r.client.Delete(ctx, "/notifications/"+id)
}

// TestNotification sends a test message through an unsaved notification.
func (r *RackspaceClient) TestNotification(ctx context.Context, kind string, details map[string]string) (*models.NotificationTestResult, error) {
	payload := map[string]interface{}{"type": kind, "details": details}
	body, _, err := r.client.Post(ctx, "/test-notification", payload)
	if err != nil {
		return nil, err
	}
	var result models.NotificationTestResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing notification test result: %w", err)
	}
	return &result, nil
}

// Notification plans

func (r *RackspaceClient) ListNotificationPlans(ctx context.Context) ([]models.NotificationPlan, error) {
	raws, err := r.client.GetAll(ctx, "/notification_plans")
	if err != nil {
		return nil, err
	}
	return listAs[models.NotificationPlan](raws)
}

func (r *RackspaceClient) CreateNotificationPlan(ctx context.Context, payload models.Payload) (*models.NotificationPlan, error) {
	var p models.NotificationPlan
	if err := r.client.CreateAndFetch(ctx, "/notification_plans", payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RackspaceClient) UpdateNotificationPlan(ctx context.Context, id string, payload models.Payload) (*models.NotificationPlan, error) {
	var p models.NotificationPlan
	if err := r.client.UpdateAndFetch(ctx, "/notification_plans/"+id, payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RackspaceClient) DeleteNotificationPlan(ctx context.Context, id string) error {
	return r.client.Delete(ctx, "/notification_plans/"+id)
}

// Monitoring zones

func (r *RackspaceClient) ListMonitoringZones(ctx context.Context) ([]models.MonitoringZone, error) {
	raws, err := r.client.GetAll(ctx, "/monitoring_zones")
	if err != nil {
		return nil, err
	}
	return listAs[models.MonitoringZone](raws)
}
