package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dghubble/oauth1"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// DefaultCloudkickURL is the source API root.
const DefaultCloudkickURL = "https://api.cloudkick.com/2.0"

// Receiver type codes used by the source API.
const (
	receiverCodeEmail   = 1
	receiverCodeWebhook = 4
)

// CloudkickClient reads nodes, checks, and monitors from the source API.
// Requests are signed with 2-legged OAuth 1.0.
type CloudkickClient struct {
	client *Client
}

// NewCloudkickClient creates a client signing with the connection's key
// (Username) and secret.
func NewCloudkickClient(conn *models.Connection) (*CloudkickClient, error) {
	if conn.BaseURL == "" {
		c := *conn
		c.BaseURL = DefaultCloudkickURL
		conn = &c
	}
	client, err := NewClient(conn)
	if err != nil {
		return nil, err
	}

	// The signing transport wraps the TLS-configured base client.
	base := client.httpClient
	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, base)
	signed := oauth1.NewConfig(conn.Username, conn.Secret).Client(ctx, oauth1.NewToken("", ""))
	signed.Timeout = base.Timeout
	client.httpClient = signed

	return &CloudkickClient{client: client}, nil
}

// newCloudkickClientWithHTTP is used by tests to skip signing.
func newCloudkickClientWithHTTP(baseURL string, hc *http.Client) *CloudkickClient {
	return &CloudkickClient{client: &Client{baseURL: baseURL, httpClient: hc}}
}

type ckNode struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	IPAddress  string   `json:"ipaddress"`
	PublicIPs  []string `json:"public_ips"`
	PrivateIPs []string `json:"private_ips"`
	Tags       []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

type ckCheck struct {
	ID        string `json:"id"`
	MonitorID string `json:"monitor_id"`
	Type      struct {
		Description string `json:"description"`
	} `json:"type"`
	Details   map[string]interface{} `json:"details"`
	IsEnabled bool                   `json:"is_enabled"`
}

type ckReceiver struct {
	Name string `json:"name"`
	Type struct {
		Code int `json:"code"`
	} `json:"type"`
	Details struct {
		EmailAddress string `json:"email_address"`
		URL          string `json:"url"`
	} `json:"details"`
}

type ckMonitor struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Receivers []ckReceiver `json:"notification_receivers"`
}

// ListNodes returns every node on the account.
func (c *CloudkickClient) ListNodes(ctx context.Context) ([]models.SourceNode, error) {
	var page struct {
		Items []ckNode `json:"items"`
	}
	if err := c.client.GetJSON(ctx, "/nodes", nil, &page); err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	nodes := make([]models.SourceNode, 0, len(page.Items))
	for _, n := range page.Items {
		nodes = append(nodes, convertNode(n))
	}
	return nodes, nil
}

func convertNode(n ckNode) models.SourceNode {
	node := models.SourceNode{
		ID:          n.ID,
		Name:        n.Name,
		IPAddresses: models.LabelAddresses(n.IPAddress, n.PublicIPs, n.PrivateIPs),
	}
	for _, t := range n.Tags {
		node.Tags = append(node.Tags, t.Name)
	}
	return node
}

// ListChecksForNode returns the checks attached to one node.
func (c *CloudkickClient) ListChecksForNode(ctx context.Context, nodeID string) ([]models.SourceCheck, error) {
	var page struct {
		Items []ckCheck `json:"items"`
	}
	params := url.Values{"node_ids": {nodeID}}
	if err := c.client.GetJSON(ctx, "/checks", params, &page); err != nil {
		return nil, fmt.Errorf("listing checks for node %s: %w", nodeID, err)
	}
	checks := make([]models.SourceCheck, 0, len(page.Items))
	for _, ck := range page.Items {
		checks = append(checks, models.SourceCheck{
			ID:        ck.ID,
			NodeID:    nodeID,
			MonitorID: ck.MonitorID,
			Type:      ck.Type.Description,
			Details:   ck.Details,
			Enabled:   ck.IsEnabled,
		})
	}
	return checks, nil
}

// ListMonitors returns every monitor with its notification receivers.
func (c *CloudkickClient) ListMonitors(ctx context.Context) ([]models.SourceMonitor, error) {
	var page struct {
		Items []ckMonitor `json:"items"`
	}
	if err := c.client.GetJSON(ctx, "/monitors", nil, &page); err != nil {
		return nil, fmt.Errorf("listing monitors: %w", err)
	}
	monitors := make([]models.SourceMonitor, 0, len(page.Items))
	for _, m := range page.Items {
		mon := models.SourceMonitor{ID: m.ID, Name: m.Name}
		for _, r := range m.Receivers {
			if rec, ok := convertReceiver(r); ok {
				mon.Receivers = append(mon.Receivers, rec)
			}
		}
		monitors = append(monitors, mon)
	}
	return monitors, nil
}

// convertReceiver maps a source receiver to an email or webhook receiver.
// Other receiver kinds are ignored.
func convertReceiver(r ckReceiver) (models.Receiver, bool) {
	switch {
	case r.Type.Code == receiverCodeEmail && r.Details.EmailAddress != "",
		r.Type.Code == 0 && r.Details.EmailAddress != "":
		return models.Receiver{Name: r.Name, Kind: models.ReceiverEmail, Address: r.Details.EmailAddress}, true
	case r.Type.Code == receiverCodeWebhook && r.Details.URL != "",
		r.Type.Code == 0 && r.Details.URL != "":
		return models.Receiver{Name: r.Name, Kind: models.ReceiverWebhook, Address: r.Details.URL}, true
	}
	return models.Receiver{}, false
}
