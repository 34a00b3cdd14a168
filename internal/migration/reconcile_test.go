package migration

import (
	"reflect"
	"testing"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/testhelpers"
)

func TestReconcileCreated(t *testing.T) {
	desired := models.Payload{"label": "web01", "agent_id": "n1", "gone": nil}
	action, delta := Reconcile(desired, nil, models.NodeRefKey)
	if action != models.ActionCreated {
		t.Fatalf("action = %s, want Created", action)
	}
	if _, ok := delta["gone"]; ok {
		t.Error("nil fields must be dropped")
	}
	if delta["label"] != "web01" {
		t.Errorf("delta = %v", delta)
	}
}

func TestReconcileEntityIdempotent(t *testing.T) {
	node := testhelpers.NewNodeBuilder().WithID("n1").WithName("web01").WithPublicIPs("2.2.2.2").Build()
	desired := BuildEntity(node)

	var existing models.Entity
	if err := decodePayload(desired, &existing); err != nil {
		t.Fatal(err)
	}
	existing.ID = "en1"

	action, delta := Reconcile(desired, recordPayload(&existing), models.NodeRefKey)
	if action != models.ActionUnchanged || delta != nil {
		t.Errorf("got %s %v, want Unchanged", action, delta)
	}
}

func TestReconcileCheckIdempotent(t *testing.T) {
	sc := testhelpers.NewCheckBuilder().WithID("c1").WithType("SSH").WithDetail("port", "22").Build()
	desired, err := BuildCheck(sc, CheckContext{
		Monitor:         testhelpers.NewMonitorBuilder().Build(),
		MonitoringZones: []string{"mzord", "mzdfw"},
		TargetHostname:  "1.1.1.1",
	})
	if err != nil {
		t.Fatal(err)
	}
	var existing models.Check
	if err := decodePayload(desired, &existing); err != nil {
		t.Fatal(err)
	}
	existing.ID = "ch1"
	existing.MonitoringZones = []string{"mzord", "mzdfw"} // server order may differ

	action, delta := Reconcile(desired, recordPayload(&existing), models.CheckRefKey)
	if action != models.ActionUnchanged {
		t.Errorf("got %s %v, want Unchanged", action, delta)
	}
}

func TestReconcileUpdated(t *testing.T) {
	existing := &models.Entity{
		ID:          "en1",
		Label:       "renamed-by-hand",
		IPAddresses: map[string]string{"public0_v4": "1.1.1.1"},
		Metadata:    map[string]string{"owner": "ops"},
	}
	desired := models.Payload{
		"label":        "web01",
		"ip_addresses": map[string]interface{}{"public0_v4": "1.1.1.1"},
		"agent_id":     "n1",
		"metadata":     map[string]interface{}{models.NodeRefKey: "n1"},
	}
	action, delta := Reconcile(desired, recordPayload(existing), models.NodeRefKey)
	if action != models.ActionUpdated {
		t.Fatalf("action = %s, want Updated", action)
	}
	if _, ok := delta["label"]; ok {
		t.Error("label must never be overwritten")
	}
	if _, ok := delta["ip_addresses"]; ok {
		t.Error("equal fields must be dropped")
	}
	if delta["agent_id"] != "n1" {
		t.Errorf("agent_id missing from delta %v", delta)
	}
	want := map[string]interface{}{"owner": "ops", models.NodeRefKey: "n1"}
	if !reflect.DeepEqual(delta["metadata"], want) {
		t.Errorf("metadata = %v, want merged %v", delta["metadata"], want)
	}
}

func TestReconcileMetadataRefMatch(t *testing.T) {
	existing := &models.Check{
		ID:       "ch1",
		Type:     "remote.ping",
		Metadata: map[string]string{models.CheckRefKey: "c1", "note": "kept"},
	}
	desired := models.Payload{"type": "remote.ping", "metadata": map[string]interface{}{models.CheckRefKey: "c1"}}
	action, _ := Reconcile(desired, recordPayload(existing), models.CheckRefKey)
	if action != models.ActionUnchanged {
		t.Errorf("action = %s, want Unchanged", action)
	}
}

func TestReconcileEmptyCollections(t *testing.T) {
	existing := models.Payload{"details": nil}
	desired := models.Payload{"details": map[string]interface{}{}}
	if action, delta := Reconcile(desired, existing, ""); action != models.ActionUnchanged {
		t.Errorf("got %s %v, want Unchanged", action, delta)
	}
}

func TestReconcilePlan(t *testing.T) {
	desired := models.NotificationPlan{
		Label:         "web:m1",
		CriticalState: []string{"nt2", "nt1"},
		WarningState:  []string{"nt2", "nt1"},
		OKState:       []string{"nt2", "nt1"},
	}

	action, payload := ReconcilePlan(desired, nil)
	if action != models.ActionCreated {
		t.Fatalf("action = %s, want Created", action)
	}
	if !reflect.DeepEqual(payload["critical_state"], []string{"nt1", "nt2"}) {
		t.Errorf("critical_state = %v", payload["critical_state"])
	}

	reordered := &models.NotificationPlan{
		ID: "np1", Label: "web:m1",
		CriticalState: []string{"nt1", "nt2"},
		WarningState:  []string{"nt1", "nt2"},
		OKState:       []string{"nt2", "nt1"},
	}
	if action, _ := ReconcilePlan(desired, reordered); action != models.ActionUnchanged {
		t.Errorf("reordered states: action = %s, want Unchanged", action)
	}

	partial := *reordered
	partial.OKState = []string{"nt1"}
	action, payload = ReconcilePlan(desired, &partial)
	if action != models.ActionUpdated {
		t.Fatalf("action = %s, want Updated", action)
	}
	for _, k := range []string{"label", "critical_state", "warning_state", "ok_state"} {
		if _, ok := payload[k]; !ok {
			t.Errorf("update must carry the full plan, missing %s", k)
		}
	}
}

func TestRecordPayloadNil(t *testing.T) {
	var e *models.Entity
	if p := recordPayload(e); p != nil {
		t.Errorf("expected nil payload, got %v", p)
	}
}
