package migration

import (
	"encoding/json"
	"testing"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name   string
		input  interface{}
		expect int
	}{
		{"float64", float64(42), 42},
		{"int", 7, 7},
		{"json.Number", json.Number("99"), 99},
		{"nil", nil, 0},
		{"string", "not a number", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := toInt(tc.input)
			if got != tc.expect {
				t.Errorf("toInt(%v) = %d, want %d", tc.input, got, tc.expect)
			}
		})
	}
}

func TestStringField(t *testing.T) {
	obj := map[string]interface{}{
		"name":  "hello",
		"count": float64(42),
		"ok":    true,
		"empty": nil,
	}
	tests := []struct {
		field  string
		expect string
	}{
		{"name", "hello"},
		{"count", "42"},
		{"ok", "true"},
		{"empty", ""},
		{"missing", ""},
	}
	for _, tc := range tests {
		if got := stringField(obj, tc.field); got != tc.expect {
			t.Errorf("stringField(%s) = %q, want %q", tc.field, got, tc.expect)
		}
	}
}

func TestHasField(t *testing.T) {
	obj := map[string]interface{}{"a": "x", "b": "", "c": nil, "d": float64(0)}
	for field, want := range map[string]bool{"a": true, "b": false, "c": false, "d": true, "z": false} {
		if got := hasField(obj, field); got != want {
			t.Errorf("hasField(%s) = %v, want %v", field, got, want)
		}
	}
}

func TestIntField(t *testing.T) {
	obj := map[string]interface{}{
		"port":  float64(22),
		"str":   " 8080 ",
		"bad":   "abc",
		"other": []interface{}{},
	}
	tests := []struct {
		field  string
		want   int
		wantOK bool
	}{
		{"port", 22, true},
		{"str", 8080, true},
		{"bad", 0, false},
		{"other", 0, false},
		{"missing", 0, false},
	}
	for _, tc := range tests {
		got, ok := intField(obj, tc.field)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("intField(%s) = %d, %v; want %d, %v", tc.field, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestBoolField(t *testing.T) {
	obj := map[string]interface{}{
		"yes":    true,
		"no":     false,
		"str":    "true",
		"one":    float64(1),
		"garble": "maybe",
	}
	tests := []struct {
		field  string
		expect bool
	}{
		{"yes", true},
		{"no", false},
		{"str", true},
		{"one", true},
		{"garble", false},
		{"missing", false},
	}
	for _, tc := range tests {
		if got := boolField(obj, tc.field); got != tc.expect {
			t.Errorf("boolField(%s) = %v, want %v", tc.field, got, tc.expect)
		}
	}
}

func TestDecodePayload(t *testing.T) {
	var e models.Entity
	p := models.Payload{"label": "web01", "ip_addresses": map[string]interface{}{"public0_v4": "1.2.3.4"}}
	if err := decodePayload(p, &e); err != nil {
		t.Fatalf("decodePayload: %v", err)
	}
	if e.Label != "web01" || e.IPAddresses["public0_v4"] != "1.2.3.4" {
		t.Errorf("decoded %+v", e)
	}
	if err := decodePayload(models.Payload{"label": 5}, &e); err == nil {
		t.Error("expected error for wrong field type")
	}
}

func TestFieldNames(t *testing.T) {
	got := fieldNames(models.Payload{"metadata": 1, "details": 2, "disabled": 3})
	if got != "details, disabled, metadata" {
		t.Errorf("fieldNames = %q", got)
	}
}
