// Package testhelpers provides source data builders and in-memory fakes of
// both APIs for testing
package testhelpers

import (
	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// ========================================
// Node Builder
// ========================================

// NodeBuilder builds SourceNode instances for testing
type NodeBuilder struct {
	node    models.SourceNode
	primary string
	public  []string
	private []string
}

// NewNodeBuilder creates a node builder with defaults
func NewNodeBuilder() *NodeBuilder {
	return &NodeBuilder{
		node:    models.SourceNode{ID: "n00000001", Name: "test-node"},
		primary: "50.56.0.1",
	}
}

// WithID sets the node ID
func (b *NodeBuilder) WithID(id string) *NodeBuilder {
	b.node.ID = id
	return b
}

// WithName sets the node name
func (b *NodeBuilder) WithName(name string) *NodeBuilder {
	b.node.Name = name
	return b
}

// WithPrimaryIP sets the primary public address
func (b *NodeBuilder) WithPrimaryIP(ip string) *NodeBuilder {
	b.primary = ip
	return b
}

// WithPublicIPs adds secondary public addresses
func (b *NodeBuilder) WithPublicIPs(ips ...string) *NodeBuilder {
	b.public = append(b.public, ips...)
	return b
}

// WithPrivateIPs adds private addresses
func (b *NodeBuilder) WithPrivateIPs(ips ...string) *NodeBuilder {
	b.private = append(b.private, ips...)
	return b
}

// Build returns the built node
func (b *NodeBuilder) Build() models.SourceNode {
	n := b.node
	n.IPAddresses = models.LabelAddresses(b.primary, b.public, b.private)
	return n
}

// ========================================
// Check Builder
// ========================================

// CheckBuilder builds SourceCheck instances for testing
type CheckBuilder struct {
	check models.SourceCheck
}

// NewCheckBuilder creates a check builder with defaults
func NewCheckBuilder() *CheckBuilder {
	return &CheckBuilder{
		check: models.SourceCheck{
			ID:        "c00000001",
			NodeID:    "n00000001",
			MonitorID: "m00000001",
			Type:      "PING",
			Details:   map[string]interface{}{},
			Enabled:   true,
		},
	}
}

// WithID sets the check ID
func (b *CheckBuilder) WithID(id string) *CheckBuilder {
	b.check.ID = id
	return b
}

// WithNode sets the owning node ID
func (b *CheckBuilder) WithNode(nodeID string) *CheckBuilder {
	b.check.NodeID = nodeID
	return b
}

// WithMonitor sets the owning monitor ID
func (b *CheckBuilder) WithMonitor(monitorID string) *CheckBuilder {
	b.check.MonitorID = monitorID
	return b
}

// WithType sets the source check type
func (b *CheckBuilder) WithType(typ string) *CheckBuilder {
	b.check.Type = typ
	return b
}

// WithDetail sets one detail value
func (b *CheckBuilder) WithDetail(key string, value interface{}) *CheckBuilder {
	b.check.Details[key] = value
	return b
}

// Disabled marks the check as disabled
func (b *CheckBuilder) Disabled() *CheckBuilder {
	b.check.Enabled = false
	return b
}

// Build returns the built check
func (b *CheckBuilder) Build() models.SourceCheck {
	c := b.check
	c.Details = make(map[string]interface{}, len(b.check.Details))
	for k, v := range b.check.Details {
		c.Details[k] = v
	}
	return c
}

// ========================================
// Monitor Builder
// ========================================

// MonitorBuilder builds SourceMonitor instances for testing
type MonitorBuilder struct {
	monitor models.SourceMonitor
}

// NewMonitorBuilder creates a monitor builder with defaults
func NewMonitorBuilder() *MonitorBuilder {
	return &MonitorBuilder{
		monitor: models.SourceMonitor{ID: "m00000001", Name: "test-monitor"},
	}
}

// WithID sets the monitor ID
func (b *MonitorBuilder) WithID(id string) *MonitorBuilder {
	b.monitor.ID = id
	return b
}

// WithName sets the monitor name
func (b *MonitorBuilder) WithName(name string) *MonitorBuilder {
	b.monitor.Name = name
	return b
}

// WithEmail adds an email receiver
func (b *MonitorBuilder) WithEmail(name, address string) *MonitorBuilder {
	b.monitor.Receivers = append(b.monitor.Receivers, models.Receiver{Name: name, Kind: models.ReceiverEmail, Address: address})
	return b
}

// WithWebhook adds a webhook receiver
func (b *MonitorBuilder) WithWebhook(name, url string) *MonitorBuilder {
	b.monitor.Receivers = append(b.monitor.Receivers, models.Receiver{Name: name, Kind: models.ReceiverWebhook, Address: url})
	return b
}

// Build returns the built monitor
func (b *MonitorBuilder) Build() models.SourceMonitor {
	m := b.monitor
	m.Receivers = append([]models.Receiver(nil), b.monitor.Receivers...)
	return m
}
