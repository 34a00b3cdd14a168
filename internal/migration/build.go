package migration

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// ErrUnsupportedType is returned for source check types with no mapping.
var ErrUnsupportedType = errors.New("unsupported check type")

// checkTypes maps source check types to target check types.
var checkTypes = map[string]string{
	"HTTP":      "remote.http",
	"HTTPS":     "remote.http",
	"PING":      "remote.ping",
	"SSH":       "remote.ssh",
	"DNS":       "remote.dns",
	"TCP":       "remote.tcp",
	"IO":        "agent.disk",
	"CPU":       "agent.cpu",
	"MEMORY":    "agent.memory",
	"PLUGIN":    "agent.plugin",
	"BANDWIDTH": "agent.network",
}

// detailBuilder converts source check details into target details.
type detailBuilder func(sourceType string, src map[string]interface{}) map[string]interface{}

// detailBuilders is keyed by target check type.
var detailBuilders = map[string]detailBuilder{
	"remote.http":   httpDetails,
	"remote.ping":   noDetails,
	"remote.ssh":    sshDetails,
	"remote.tcp":    tcpDetails,
	"remote.dns":    dnsDetails,
	"agent.disk":    renamed(map[string]string{"mount": "target", "fs": "target"}),
	"agent.cpu":     noDetails,
	"agent.memory":  noDetails,
	"agent.plugin":  renamed(map[string]string{"plugin": "file", "args": "args"}),
	"agent.network": renamed(map[string]string{"interface": "target"}),
}

func init() {
	for src, dst := range checkTypes {
		if _, ok := detailBuilders[dst]; !ok {
			panic(fmt.Sprintf("migration: no detail builder for %s (%s)", dst, src))
		}
		if _, ok := alarmFamilies[dst]; !ok {
			panic(fmt.Sprintf("migration: no alarm family for %s (%s)", dst, src))
		}
	}
}

// TargetType returns the target check type for a source check type.
func TargetType(sourceType string) (string, bool) {
	t, ok := checkTypes[strings.ToUpper(sourceType)]
	return t, ok
}

// SupportedTypes lists the source check types that can be migrated.
func SupportedTypes() []string {
	types := make([]string, 0, len(checkTypes))
	for t := range checkTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsRemote reports whether a target check type polls from monitoring zones.
func IsRemote(targetType string) bool {
	return strings.HasPrefix(targetType, "remote.")
}

func noDetails(string, map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{}
}

func httpDetails(sourceType string, src map[string]interface{}) map[string]interface{} {
	d := map[string]interface{}{"method": "GET"}
	for _, attr := range []string{"url", "method", "auth_user", "auth_password", "body"} {
		if hasField(src, attr) {
			d[attr] = stringField(src, attr)
		}
	}
	if strings.EqualFold(sourceType, "HTTPS") {
		d["ssl"] = true
	}
	return d
}

func sshDetails(_ string, src map[string]interface{}) map[string]interface{} {
	d := map[string]interface{}{}
	if port, ok := intField(src, "port"); ok {
		d["port"] = port
	}
	return d
}

func tcpDetails(_ string, src map[string]interface{}) map[string]interface{} {
	d := map[string]interface{}{}
	if port, ok := intField(src, "port"); ok {
		d["port"] = port
	}
	if _, ok := src["use_ssl"]; ok {
		d["ssl"] = boolField(src, "use_ssl")
	}
	if hasField(src, "banner_match") {
		d["banner_match"] = stringField(src, "banner_match")
	}
	return d
}

func dnsDetails(_ string, src map[string]interface{}) map[string]interface{} {
	d := map[string]interface{}{}
	if hasField(src, "dns_query") {
		d["query"] = stringField(src, "dns_query")
	}
	if hasField(src, "record_type") {
		d["record_type"] = stringField(src, "record_type")
	}
	return d
}

// renamed copies present source fields to new names. The first present
// source field wins for a given target name.
func renamed(fields map[string]string) detailBuilder {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return func(_ string, src map[string]interface{}) map[string]interface{} {
		d := map[string]interface{}{}
		for _, from := range names {
			to := fields[from]
			if _, done := d[to]; done {
				continue
			}
			if v := stringField(src, from); v != "" {
				d[to] = v
			}
		}
		return d
	}
}

// BuildEntity returns the entity payload for a node.
func BuildEntity(node models.SourceNode) models.Payload {
	ips := make(map[string]interface{}, len(node.IPAddresses))
	for label, ip := range node.IPAddresses {
		ips[label] = ip
	}
	return models.Payload{
		"label":        node.Name,
		"ip_addresses": ips,
		"agent_id":     node.ID,
		"metadata":     map[string]interface{}{models.NodeRefKey: node.ID},
	}
}

// CheckContext carries the run-time choices a check payload depends on.
type CheckContext struct {
	Monitor         models.SourceMonitor
	MonitoringZones []string
	TargetHostname  string
}

// CheckLabel is the label a migrated check gets.
func CheckLabel(monitor models.SourceMonitor, check models.SourceCheck) string {
	return monitor.Name + ":" + check.Type
}

// BuildCheck returns the check payload for a source check.
func BuildCheck(check models.SourceCheck, cc CheckContext) (models.Payload, error) {
	targetType, ok := TargetType(check.Type)
	if !ok {
		return nil, fmt.Errorf("%s: %w", check.Type, ErrUnsupportedType)
	}
	src := check.Details
	if src == nil {
		src = map[string]interface{}{}
	}
	p := models.Payload{
		"label":    CheckLabel(cc.Monitor, check),
		"type":     targetType,
		"details":  detailBuilders[targetType](check.Type, src),
		"disabled": !check.Enabled,
		"metadata": map[string]interface{}{models.CheckRefKey: check.ID},
	}
	if IsRemote(targetType) {
		p["monitoring_zones_poll"] = models.SortedCopy(cc.MonitoringZones)
		p["target_hostname"] = cc.TargetHostname
	}
	return p, nil
}
