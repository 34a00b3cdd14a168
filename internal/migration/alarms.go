package migration

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// alarmRule is one criteria fragment, used only when its source field is
// present. Rules without a field always apply.
type alarmRule struct {
	field    string
	template string
}

// alarmFamily lists the rules for one target check type, in severity order.
// When needs is set, at least one of those source fields must be present
// for an alarm to be built.
type alarmFamily struct {
	checkType string
	rules     []alarmRule
	needs     []string
}

var alarmFamilies = map[string]alarmFamily{
	"remote.http": {checkType: "http", rules: []alarmRule{
		{"code", httpStatusCodeCriteria},
		{"body", httpBodyMatchCriteria},
		{"rt_ms", httpResponseTimeCriteria},
		{"", httpOKCriteria},
	}},
	"remote.ping": {checkType: "ping", rules: []alarmRule{{"", pingPacketLossCriteria}}},
	"remote.ssh":  {checkType: "ssh", rules: []alarmRule{{"", sshListeningCriteria}}},
	"remote.dns":  {checkType: "dns", rules: []alarmRule{{"", dnsRecordExistsCriteria}}},
	"remote.tcp": {checkType: "tcp", rules: []alarmRule{
		{"banner_match", tcpBannerMatchCriteria},
		{"", tcpOKCriteria},
	}},
	"agent.memory": {checkType: "memory_percent_used", needs: []string{"mem_percent_crit", "mem_percent_warn"}, rules: []alarmRule{
		{"mem_percent_crit", memoryCriticalCriteria},
		{"mem_percent_warn", memoryWarningCriteria},
		{"", memoryOKCriteria},
	}},
	"agent.disk": {checkType: "disk_percent_used", needs: []string{"fs_critical", "fs_warn"}, rules: []alarmRule{
		{"fs_critical", diskCriticalCriteria},
		{"fs_warn", diskWarningCriteria},
		{"", diskOKCriteria},
	}},
	"agent.plugin":  {checkType: "agent_plugin", rules: []alarmRule{{"", agentPluginCriteria}}},
	"agent.cpu":     {checkType: "cpu"},
	"agent.network": {checkType: "network"},
}

func render(tmpl, value string) string {
	args := make([]interface{}, strings.Count(tmpl, "%s"))
	for i := range args {
		args[i] = value
	}
	return fmt.Sprintf(tmpl, args...)
}

// Criteria builds the alarm criteria for a target check type from the
// source check details. It returns "" when the type has no applicable rules.
func Criteria(targetType string, details map[string]interface{}, consistency string) string {
	family, ok := alarmFamilies[targetType]
	if !ok || len(family.rules) == 0 {
		return ""
	}
	if len(family.needs) > 0 {
		found := false
		for _, f := range family.needs {
			if hasField(details, f) {
				found = true
				break
			}
		}
		if !found {
			return ""
		}
	}

	var b strings.Builder
	for _, r := range family.rules {
		if r.field != "" && !hasField(details, r.field) {
			continue
		}
		b.WriteString(render(r.template, stringField(details, r.field)))
	}
	criteria := strings.TrimSpace(b.String())
	if criteria == "" {
		return ""
	}
	if IsRemote(targetType) && consistency != "" {
		criteria = ":set consistencyLevel=" + consistency + "\n" + criteria
	}
	return criteria
}

// BuildAlarm returns the alarm for a migrated check bound to a plan, or nil
// when the check type has no alarm rules.
func BuildAlarm(mc MigratedCheck, planID, consistency string) *models.Alarm {
	criteria := Criteria(mc.Check.Type, mc.Source.Details, consistency)
	if criteria == "" {
		return nil
	}
	metadata := make(map[string]string, len(mc.Check.Metadata)+1)
	for k, v := range mc.Check.Metadata {
		metadata[k] = v
	}
	metadata["check_type"] = alarmFamilies[mc.Check.Type].checkType
	return &models.Alarm{
		EntityID:           mc.Entity.ID,
		CheckID:            mc.Check.ID,
		NotificationPlanID: planID,
		Criteria:           criteria,
		Metadata:           metadata,
	}
}

// AlarmEqual compares the identity fields of two alarms.
func AlarmEqual(a, b models.Alarm) bool {
	return a.CheckID == b.CheckID &&
		a.NotificationPlanID == b.NotificationPlanID &&
		a.Criteria == b.Criteria &&
		metadataEqual(a.Metadata, b.Metadata)
}

func metadataEqual(a, b map[string]string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// FindDuplicateAlarm returns the existing alarm equal to alarm, if any.
func FindDuplicateAlarm(alarm models.Alarm, existing []models.Alarm) *models.Alarm {
	for i := range existing {
		if AlarmEqual(alarm, existing[i]) {
			return &existing[i]
		}
	}
	return nil
}
