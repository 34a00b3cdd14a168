package migration

import (
	"reflect"
	"sort"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// unorderedFields are list fields whose order carries no meaning.
var unorderedFields = map[string]bool{
	"monitoring_zones_poll": true,
}

// Reconcile compares a desired payload with the existing record's payload
// (nil when there is none).
//
// Without an existing record the action is Created and the delta is the
// desired payload minus nil fields. Otherwise each desired field that deep
// equals the existing one is dropped. The label of an existing record is
// never overwritten. Metadata is left alone when it already carries the
// same refKey value, and otherwise sent merged over the existing metadata.
// An empty delta is Unchanged.
func Reconcile(desired, existing models.Payload, refKey string) (models.Action, models.Payload) {
	want := desired.Compact().Normalize()
	if existing == nil {
		return models.ActionCreated, want
	}
	have := existing.Normalize()

	delta := models.Payload{}
	for field, value := range want {
		switch field {
		case "label", "id":
			continue
		case "metadata":
			if m := reconcileMetadata(value, have[field], refKey); m != nil {
				delta[field] = m
			}
			continue
		}
		if valuesEqual(field, value, have[field]) {
			continue
		}
		delta[field] = value
	}
	if len(delta) == 0 {
		return models.ActionUnchanged, nil
	}
	return models.ActionUpdated, delta
}

// reconcileMetadata returns the metadata to send, or nil to leave it alone.
func reconcileMetadata(want, have interface{}, refKey string) map[string]interface{} {
	w := models.StringMap(want)
	h := models.StringMap(have)
	if refKey != "" && w[refKey] != "" && w[refKey] == h[refKey] {
		return nil
	}
	merged := make(map[string]interface{}, len(h)+len(w))
	changed := false
	for k, v := range h {
		merged[k] = v
	}
	for k, v := range w {
		if h[k] != v {
			changed = true
		}
		merged[k] = v
	}
	if !changed {
		return nil
	}
	return merged
}

// valuesEqual compares two normalized JSON values. Absent, null and empty
// collections compare equal.
func valuesEqual(field string, a, b interface{}) bool {
	if isEmpty(a) && isEmpty(b) {
		return true
	}
	if unorderedFields[field] {
		return reflect.DeepEqual(sortedList(a), sortedList(b))
	}
	return reflect.DeepEqual(a, b)
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]interface{}:
		return len(t) == 0
	case []interface{}:
		return len(t) == 0
	}
	return false
}

func sortedList(v interface{}) []string {
	items, _ := v.([]interface{})
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// ReconcilePlan compares a desired plan with an existing one. The three
// state lists are compared as sets; any difference sends the full plan.
func ReconcilePlan(desired models.NotificationPlan, existing *models.NotificationPlan) (models.Action, models.Payload) {
	payload := models.Payload{
		"label":          desired.Label,
		"critical_state": models.SortedCopy(desired.CriticalState),
		"warning_state":  models.SortedCopy(desired.WarningState),
		"ok_state":       models.SortedCopy(desired.OKState),
	}
	if existing == nil {
		return models.ActionCreated, payload
	}
	if sameSet(desired.CriticalState, existing.CriticalState) &&
		sameSet(desired.WarningState, existing.WarningState) &&
		sameSet(desired.OKState, existing.OKState) {
		return models.ActionUnchanged, nil
	}
	return models.ActionUpdated, payload
}

func sameSet(a, b []string) bool {
	as, bs := make(map[string]bool, len(a)), make(map[string]bool, len(b))
	for _, s := range a {
		as[s] = true
	}
	for _, s := range b {
		bs[s] = true
	}
	return reflect.DeepEqual(as, bs)
}

// recordPayload converts an existing record into its wire payload; nil
// records give a nil payload.
func recordPayload(v interface{}) models.Payload {
	if v == nil || reflect.ValueOf(v).IsNil() {
		return nil
	}
	p, err := models.ToPayload(v)
	if err != nil {
		return nil
	}
	return p
}
