package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// FakeTenant is the tenant id the fake API's catalog advertises.
const FakeTenant = "123456"

// FakeMonitoringAPI serves a FakeTarget over HTTP the way the real identity
// and monitoring endpoints do: token auth, marker pagination, 201 + Location
// on create and 204 + Location on update.
type FakeMonitoringAPI struct {
	*httptest.Server
	Target   *FakeTarget
	Token    string
	PageSize int
}

// NewFakeMonitoringAPI starts a server backed by target. Close it when done.
func NewFakeMonitoringAPI(target *FakeTarget) *FakeMonitoringAPI {
	a := &FakeMonitoringAPI{Target: target, Token: "fake-token", PageSize: 100}
	a.Server = httptest.NewServer(a.routes())
	return a
}

// AuthURL is the identity endpoint root.
func (a *FakeMonitoringAPI) AuthURL() string {
	return a.URL + "/identity/v2.0"
}

// MonitoringURL is the monitoring endpoint root advertised in the catalog.
func (a *FakeMonitoringAPI) MonitoringURL() string {
	return a.URL + "/v1.0/" + FakeTenant
}

func (a *FakeMonitoringAPI) routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/identity/v2.0/tokens", a.handleTokens)

	r.Route("/v1.0/{tenant}", func(r chi.Router) {
		r.Use(a.requireToken)

		r.Get("/entities", a.listEntities)
		r.Post("/entities", a.createEntity)
		r.Get("/entities/{entityID}", a.getEntity)
		r.Put("/entities/{entityID}", a.updateEntity)
		r.Delete("/entities/{entityID}", a.deleteEntity)

		r.Get("/entities/{entityID}/checks", a.listChecks)
		r.Post("/entities/{entityID}/checks", a.createCheck)
		r.Get("/entities/{entityID}/checks/{checkID}", a.getCheck)
		r.Put("/entities/{entityID}/checks/{checkID}", a.updateCheck)
		r.Delete("/entities/{entityID}/checks/{checkID}", a.deleteCheck)
		r.Post("/entities/{entityID}/test-check", a.testNewCheck)
		r.Post("/entities/{entityID}/checks/{checkID}/test", a.testExistingCheck)

		r.Get("/entities/{entityID}/alarms", a.listAlarms)
		r.Post("/entities/{entityID}/alarms", a.createAlarm)
		r.Get("/entities/{entityID}/alarms/{alarmID}", a.getAlarm)
		r.Delete("/entities/{entityID}/alarms/{alarmID}", a.deleteAlarm)
		r.Post("/entities/{entityID}/test-alarm", a.testAlarm)

		r.Get("/notifications", a.listNotifications)
		r.Post("/notifications", a.createNotification)
		r.Get("/notifications/{id}", a.getNotification)
		r.Delete("/notifications/{id}", a.deleteNotification)
		r.Post("/test-notification", a.testNotification)

		r.Get("/notification_plans", a.listPlans)
		r.Post("/notification_plans", a.createPlan)
		r.Get("/notification_plans/{id}", a.getPlan)
		r.Put("/notification_plans/{id}", a.updatePlan)
		r.Delete("/notification_plans/{id}", a.deletePlan)

		r.Get("/monitoring_zones", a.listZones)
	})
	return r
}

func (a *FakeMonitoringAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Auth-Token") != a.Token {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *FakeMonitoringAPI) handleTokens(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access": map[string]interface{}{
			"token": map[string]interface{}{
				"id":     a.Token,
				"tenant": map[string]string{"id": FakeTenant},
			},
			"serviceCatalog": []interface{}{
				map[string]interface{}{
					"name": "cloudMonitoring",
					"type": "rax:monitor",
					"endpoints": []interface{}{
						map[string]string{"publicURL": a.MonitoringURL(), "tenantId": FakeTenant},
					},
				},
			},
		},
	})
}

// Helpers

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"type": "error", "code": status, "message": msg})
}

func readPayload(r *http.Request) (models.Payload, error) {
	var p models.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	return p, nil
}

// writePage writes one page of items starting at the marker query value.
func writePage[T any](w http.ResponseWriter, r *http.Request, size int, items []T, idOf func(T) string) {
	start := 0
	if marker := r.URL.Query().Get("marker"); marker != "" {
		for i, it := range items {
			if idOf(it) == marker {
				start = i
				break
			}
		}
	}
	end := start + size
	var next interface{}
	if end < len(items) {
		next = idOf(items[end])
	} else {
		end = len(items)
	}
	values := items[start:end]
	if values == nil {
		values = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"values":   values,
		"metadata": map[string]interface{}{"count": len(values), "limit": size, "marker": r.URL.Query().Get("marker"), "next_marker": next},
	})
}

func (a *FakeMonitoringAPI) created(w http.ResponseWriter, path string) {
	w.Header().Set("Location", a.MonitoringURL()+path)
	w.WriteHeader(http.StatusCreated)
}

func (a *FakeMonitoringAPI) updated(w http.ResponseWriter, path string) {
	w.Header().Set("Location", a.MonitoringURL()+path)
	w.WriteHeader(http.StatusNoContent)
}

func (a *FakeMonitoringAPI) fail(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, err.Error())
}

// Entities

func (a *FakeMonitoringAPI) listEntities(w http.ResponseWriter, r *http.Request) {
	items, err := a.Target.ListEntities(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writePage(w, r, a.PageSize, items, func(e models.Entity) string { return e.ID })
}

func (a *FakeMonitoringAPI) createEntity(w http.ResponseWriter, r *http.Request) {
	p, err := readPayload(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	e, err := a.Target.CreateEntity(r.Context(), p)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.created(w, "/entities/"+e.ID)
}

func (a *FakeMonitoringAPI) findEntity(id string) (models.Entity, bool) {
	a.Target.mu.Lock()
	defer a.Target.mu.Unlock()
	for _, e := range a.Target.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return models.Entity{}, false
}

func (a *FakeMonitoringAPI) getEntity(w http.ResponseWriter, r *http.Request) {
	e, ok := a.findEntity(chi.URLParam(r, "entityID"))
	if !ok {
		writeError(w, http.StatusNotFound, "entity not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *FakeMonitoringAPI) updateEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "entityID")
	p, err := readPayload(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	if _, err := a.Target.UpdateEntity(r.Context(), id, p); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	a.updated(w, "/entities/"+id)
}

func (a *FakeMonitoringAPI) deleteEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "entityID")
	if _, ok := a.findEntity(id); !ok {
		writeError(w, http.StatusNotFound, "entity not found")
		return
	}
	a.Target.DeleteEntity(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// Checks

func (a *FakeMonitoringAPI) findCheck(entityID, checkID string) (models.Check, bool) {
	a.Target.mu.Lock()
	defer a.Target.mu.Unlock()
	for _, c := range a.Target.Checks[entityID] {
		if c.ID == checkID {
			return c, true
		}
	}
	return models.Check{}, false
}

func (a *FakeMonitoringAPI) listChecks(w http.ResponseWriter, r *http.Request) {
	items, err := a.Target.ListChecks(r.Context(), chi.URLParam(r, "entityID"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writePage(w, r, a.PageSize, items, func(c models.Check) string { return c.ID })
}

func (a *FakeMonitoringAPI) createCheck(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	p, err := readPayload(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	c, err := a.Target.CreateCheck(r.Context(), entityID, p)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.created(w, "/entities/"+entityID+"/checks/"+c.ID)
}

func (a *FakeMonitoringAPI) getCheck(w http.ResponseWriter, r *http.Request) {
	c, ok := a.findCheck(chi.URLParam(r, "entityID"), chi.URLParam(r, "checkID"))
	if !ok {
		writeError(w, http.StatusNotFound, "check not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *FakeMonitoringAPI) updateCheck(w http.ResponseWriter, r *http.Request) {
	entityID, checkID := chi.URLParam(r, "entityID"), chi.URLParam(r, "checkID")
	p, err := readPayload(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	if _, err := a.Target.UpdateCheck(r.Context(), entityID, checkID, p); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	a.updated(w, "/entities/"+entityID+"/checks/"+checkID)
}

func (a *FakeMonitoringAPI) deleteCheck(w http.ResponseWriter, r *http.Request) {
	entityID, checkID := chi.URLParam(r, "entityID"), chi.URLParam(r, "checkID")
	if _, ok := a.findCheck(entityID, checkID); !ok {
		writeError(w, http.StatusNotFound, "check not found")
		return
	}
	a.Target.DeleteCheck(r.Context(), entityID, checkID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *FakeMonitoringAPI) testNewCheck(w http.ResponseWriter, r *http.Request) {
	p, err := readPayload(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	results, _ := a.Target.TestNewCheck(r.Context(), chi.URLParam(r, "entityID"), p)
	writeJSON(w, http.StatusOK, results)
}

func (a *FakeMonitoringAPI) testExistingCheck(w http.ResponseWriter, r *http.Request) {
	results, _ := a.Target.TestExistingCheck(r.Context(), chi.URLParam(r, "entityID"), chi.URLParam(r, "checkID"))
	writeJSON(w, http.StatusOK, results)
}

// Alarms

func (a *FakeMonitoringAPI) listAlarms(w http.ResponseWriter, r *http.Request) {
	items, err := a.Target.ListAlarms(r.Context(), chi.URLParam(r, "entityID"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writePage(w, r, a.PageSize, items, func(al models.Alarm) string { return al.ID })
}

func (a *FakeMonitoringAPI) createAlarm(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	p, err := readPayload(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	al, err := a.Target.CreateAlarm(r.Context(), entityID, p)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.created(w, "/entities/"+entityID+"/alarms/"+al.ID)
}

func (a *FakeMonitoringAPI) getAlarm(w http.ResponseWriter, r *http.Request) {
	entityID, alarmID := chi.URLParam(r, "entityID"), chi.URLParam(r, "alarmID")
	a.Target.mu.Lock()
	defer a.Target.mu.Unlock()
	for _, al := range a.Target.Alarms[entityID] {
		if al.ID == alarmID {
			writeJSON(w, http.StatusOK, al)
			return
		}
	}
	writeError(w, http.StatusNotFound, "alarm not found")
}

func (a *FakeMonitoringAPI) deleteAlarm(w http.ResponseWriter, r *http.Request) {
	a.Target.DeleteAlarm(r.Context(), chi.URLParam(r, "entityID"), chi.URLParam(r, "alarmID"))
	w.WriteHeader(http.StatusNoContent)
}

func (a *FakeMonitoringAPI) testAlarm(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Criteria  string               `json:"criteria"`
		CheckData []models.CheckResult `json:"check_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.fail(w, err)
		return
	}
	results, _ := a.Target.TestAlarm(r.Context(), chi.URLParam(r, "entityID"), body.Criteria, body.CheckData)
	writeJSON(w, http.StatusOK, results)
}

// Notifications

func (a *FakeMonitoringAPI) listNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := a.Target.ListNotifications(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writePage(w, r, a.PageSize, items, func(n models.Notification) string { return n.ID })
}

func (a *FakeMonitoringAPI) createNotification(w http.ResponseWriter, r *http.Request) {
	p, err := readPayload(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	n, err := a.Target.CreateNotification(r.Context(), p)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.created(w, "/notifications/"+n.ID)
}

func (a *FakeMonitoringAPI) getNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.Target.mu.Lock()
	defer a.Target.mu.Unlock()
	for _, n := range a.Target.Notifications {
		if n.ID == id {
			writeJSON(w, http.StatusOK, n)
			return
		}
	}
	writeError(w, http.StatusNotFound, "notification not found")
}

func (a *FakeMonitoringAPI) deleteNotification(w http.ResponseWriter, r *http.Request) {
	a.Target.DeleteNotification(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (a *FakeMonitoringAPI) testNotification(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type    string            `json:"type"`
		Details map[string]string `json:"details"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.fail(w, err)
		return
	}
	result, _ := a.Target.TestNotification(r.Context(), body.Type, body.Details)
	writeJSON(w, http.StatusOK, result)
}

// Notification plans

func (a *FakeMonitoringAPI) listPlans(w http.ResponseWriter, r *http.Request) {
	items, err := a.Target.ListNotificationPlans(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writePage(w, r, a.PageSize, items, func(p models.NotificationPlan) string { return p.ID })
}

func (a *FakeMonitoringAPI) createPlan(w http.ResponseWriter, r *http.Request) {
	p, err := readPayload(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	plan, err := a.Target.CreateNotificationPlan(r.Context(), p)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.created(w, "/notification_plans/"+plan.ID)
}

func (a *FakeMonitoringAPI) getPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.Target.mu.Lock()
	defer a.Target.mu.Unlock()
	for _, p := range a.Target.Plans {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeError(w, http.StatusNotFound, "notification plan not found")
}

func (a *FakeMonitoringAPI) updatePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := readPayload(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	if _, err := a.Target.UpdateNotificationPlan(r.Context(), id, p); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	a.updated(w, "/notification_plans/"+id)
}

func (a *FakeMonitoringAPI) deletePlan(w http.ResponseWriter, r *http.Request) {
	a.Target.DeleteNotificationPlan(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (a *FakeMonitoringAPI) listZones(w http.ResponseWriter, r *http.Request) {
	items, err := a.Target.ListMonitoringZones(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writePage(w, r, a.PageSize, items, func(z models.MonitoringZone) string { return z.ID })
}
