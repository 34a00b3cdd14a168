package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Receiver kinds understood by the target's notification types.
const (
	ReceiverEmail   = "email"
	ReceiverWebhook = "webhook"
)

// SourceNode is a host as reported by the source system.
type SourceNode struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	IPAddresses map[string]string `json:"ip_addresses" yaml:"ip_addresses"` // label → address
	Tags        []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// SourceCheck is a single probe attached to a source node.
type SourceCheck struct {
	ID        string                 `json:"id" yaml:"id"`
	NodeID    string                 `json:"node_id" yaml:"node_id"`
	MonitorID string                 `json:"monitor_id" yaml:"monitor_id"`
	Type      string                 `json:"type" yaml:"type"` // HTTP, HTTPS, PING, ...
	Details   map[string]interface{} `json:"details" yaml:"details"`
	Enabled   bool                   `json:"enabled" yaml:"enabled"`
}

// Receiver is one notification destination of a source monitor.
type Receiver struct {
	Name    string `json:"name" yaml:"name"`
	Kind    string `json:"kind" yaml:"kind"` // "email" or "webhook"
	Address string `json:"address" yaml:"address"`
}

// SourceMonitor groups checks and owns their notification receivers.
type SourceMonitor struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Receivers []Receiver `json:"receivers" yaml:"receivers"`
}

// LabelAddresses builds the labeled address map of a node. The primary
// address becomes public0_v4, remaining public addresses follow sorted as
// public1_v4.., and private addresses are sorted into private0_v4..
func LabelAddresses(primary string, public, private []string) map[string]string {
	pub := make([]string, 0, len(public))
	for _, ip := range public {
		if ip != "" && ip != primary {
			pub = append(pub, ip)
		}
	}
	sort.Strings(pub)
	if primary == "" && len(pub) > 0 {
		primary, pub = pub[0], pub[1:]
	}

	ips := make(map[string]string)
	if primary != "" {
		ips["public0_v4"] = primary
	}
	for i, ip := range pub {
		ips[fmt.Sprintf("public%d_v4", i+1)] = ip
	}

	priv := append([]string(nil), private...)
	sort.Strings(priv)
	n := 0
	for _, ip := range priv {
		if ip == "" {
			continue
		}
		ips[fmt.Sprintf("private%d_v4", n)] = ip
		n++
	}
	return ips
}

// OrderedLabels returns the labels of an address map, public before private,
// each group in index order.
func OrderedLabels(ips map[string]string) []string {
	labels := make([]string, 0, len(ips))
	for l := range ips {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		gi, ni := labelRank(labels[i])
		gj, nj := labelRank(labels[j])
		if gi != gj {
			return gi < gj
		}
		if ni != nj {
			return ni < nj
		}
		return labels[i] < labels[j]
	})
	return labels
}

// PublicAddresses returns the addresses whose label marks them public.
func PublicAddresses(ips map[string]string) []string {
	var out []string
	for _, l := range OrderedLabels(ips) {
		if strings.Contains(l, "public") {
			out = append(out, ips[l])
		}
	}
	return out
}

func labelRank(label string) (group, index int) {
	switch {
	case strings.HasPrefix(label, "public"):
		group = 0
	case strings.HasPrefix(label, "private"):
		group = 1
	default:
		group = 2
	}
	digits := strings.TrimLeft(label, "abcdefghijklmnopqrstuvwxyz")
	if i := strings.IndexByte(digits, '_'); i >= 0 {
		digits = digits[:i]
	}
	index, err := strconv.Atoi(digits)
	if err != nil {
		index = 0
	}
	return group, index
}
