package models

import "sort"

// Metadata keys used to remember where a target record came from.
const (
	NodeRefKey  = "ck_node_id"
	CheckRefKey = "ck_check_id"
)

// Entity is the target-side representation of a monitored host.
type Entity struct {
	ID          string            `json:"id,omitempty" yaml:"id"`
	Label       string            `json:"label" yaml:"label"`
	IPAddresses map[string]string `json:"ip_addresses,omitempty" yaml:"ip_addresses,omitempty"`
	AgentID     string            `json:"agent_id,omitempty" yaml:"agent_id,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Check is a probe attached to exactly one entity.
type Check struct {
	ID              string                 `json:"id,omitempty" yaml:"id"`
	EntityID        string                 `json:"-" yaml:"entity_id"`
	Label           string                 `json:"label,omitempty" yaml:"label"`
	Type            string                 `json:"type" yaml:"type"`
	MonitoringZones []string               `json:"monitoring_zones_poll,omitempty" yaml:"monitoring_zones,omitempty"`
	TargetHostname  string                 `json:"target_hostname,omitempty" yaml:"target_hostname,omitempty"`
	Details         map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
	Disabled        bool                   `json:"disabled" yaml:"disabled"`
	Metadata        map[string]string      `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Period          int                    `json:"period,omitempty" yaml:"period,omitempty"`
	Timeout         int                    `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Notification is a single notification destination.
type Notification struct {
	ID      string            `json:"id,omitempty" yaml:"id"`
	Label   string            `json:"label" yaml:"label"`
	Type    string            `json:"type" yaml:"type"`
	Details map[string]string `json:"details" yaml:"details"`
}

// Address returns the destination address regardless of notification type.
func (n *Notification) Address() string {
	if n.Details == nil {
		return ""
	}
	if a := n.Details["address"]; a != "" {
		return a
	}
	return n.Details["url"]
}

// NotificationDetails returns the details map for a notification type.
func NotificationDetails(kind, address string) map[string]string {
	if kind == ReceiverEmail {
		return map[string]string{"address": address}
	}
	return map[string]string{"url": address}
}

// NotificationPlan binds notifications to alarm severities.
type NotificationPlan struct {
	ID            string   `json:"id,omitempty" yaml:"id"`
	Label         string   `json:"label" yaml:"label"`
	CriticalState []string `json:"critical_state" yaml:"critical_state"`
	WarningState  []string `json:"warning_state" yaml:"warning_state"`
	OKState       []string `json:"ok_state" yaml:"ok_state"`
}

// Alarm evaluates a criteria script against a check's results.
type Alarm struct {
	ID                 string            `json:"id,omitempty" yaml:"id"`
	EntityID           string            `json:"-" yaml:"entity_id"`
	CheckID            string            `json:"check_id" yaml:"check_id"`
	NotificationPlanID string            `json:"notification_plan_id" yaml:"notification_plan_id"`
	Criteria           string            `json:"criteria" yaml:"criteria"`
	Metadata           map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// MonitoringZone is a location remote checks are executed from.
type MonitoringZone struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	CountryCode string `json:"country_code" yaml:"country_code"`
}

// CheckResult is one monitoring zone's answer to a check test. It is kept
// as raw JSON because the alarm test wants it back verbatim.
type CheckResult map[string]interface{}

// Available reports whether the probe reached its target.
func (r CheckResult) Available() bool {
	v, ok := r["available"].(bool)
	return ok && v
}

// AlarmTestResult is the predicted state of an alarm.
type AlarmTestResult struct {
	State  string `json:"state"`
	Status string `json:"status"`
}

// NotificationTestResult is the outcome of a test notification.
type NotificationTestResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SortedCopy returns a sorted copy of ids.
func SortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
