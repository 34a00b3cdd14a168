package models

import (
	"reflect"
	"testing"
)

func TestToPayload(t *testing.T) {
	e := Entity{
		Label:       "web01",
		IPAddresses: map[string]string{"public0_v4": "1.2.3.4"},
		AgentID:     "n123",
		Metadata:    map[string]string{NodeRefKey: "n123"},
	}
	p, err := ToPayload(e)
	if err != nil {
		t.Fatalf("ToPayload: %v", err)
	}
	if _, ok := p["id"]; ok {
		t.Error("empty id should be omitted")
	}
	if p["label"] != "web01" {
		t.Errorf("label = %v, want web01", p["label"])
	}
	ips, ok := p["ip_addresses"].(map[string]interface{})
	if !ok || ips["public0_v4"] != "1.2.3.4" {
		t.Errorf("ip_addresses = %v", p["ip_addresses"])
	}
}

func TestPayloadNormalize(t *testing.T) {
	p := Payload{"zones": []string{"mzord"}, "port": 22}
	n := p.Normalize()
	want := Payload{"zones": []interface{}{"mzord"}, "port": float64(22)}
	if !reflect.DeepEqual(n, want) {
		t.Errorf("Normalize = %#v, want %#v", n, want)
	}
	if Payload(nil).Normalize() != nil {
		t.Error("Normalize(nil) should be nil")
	}
}

func TestPayloadCompact(t *testing.T) {
	p := Payload{"a": 1, "b": nil, "c": ""}
	got := p.Compact()
	if _, ok := got["b"]; ok {
		t.Error("Compact kept nil field")
	}
	if _, ok := got["c"]; !ok {
		t.Error("Compact dropped empty string field")
	}
	if _, ok := p["b"]; !ok {
		t.Error("Compact mutated the original")
	}
}

func TestStringMap(t *testing.T) {
	got := StringMap(map[string]interface{}{"a": "x", "b": 2})
	if !reflect.DeepEqual(got, map[string]string{"a": "x"}) {
		t.Errorf("StringMap = %v", got)
	}
	if StringMap("nope") != nil {
		t.Error("StringMap(non-map) should be nil")
	}
}

func TestNotificationAddress(t *testing.T) {
	email := Notification{Type: ReceiverEmail, Details: NotificationDetails(ReceiverEmail, "ops@example.com")}
	if got := email.Address(); got != "ops@example.com" {
		t.Errorf("email Address = %q", got)
	}
	hook := Notification{Type: ReceiverWebhook, Details: NotificationDetails(ReceiverWebhook, "https://hooks.example.com/x")}
	if got := hook.Address(); got != "https://hooks.example.com/x" {
		t.Errorf("webhook Address = %q", got)
	}
	var empty Notification
	if empty.Address() != "" {
		t.Error("empty notification should have no address")
	}
}

func TestCheckResultAvailable(t *testing.T) {
	if !(CheckResult{"available": true}).Available() {
		t.Error("available=true reported unavailable")
	}
	if (CheckResult{"available": false}).Available() {
		t.Error("available=false reported available")
	}
	if (CheckResult{}).Available() {
		t.Error("missing available reported available")
	}
}
