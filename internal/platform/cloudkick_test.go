package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

func newCloudkickServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/nodes":
			w.Write([]byte(`{"items":[{"id":"n1","name":"web01","ipaddress":"50.0.0.1",
				"public_ips":["60.0.0.1","50.0.0.1"],"private_ips":["10.0.0.2","10.0.0.1"],
				"tags":[{"name":"prod"}]}]}`))
		case "/checks":
			if got := r.URL.Query().Get("node_ids"); got != "n1" {
				t.Errorf("node_ids = %q, want n1", got)
			}
			w.Write([]byte(`{"items":[{"id":"c1","monitor_id":"m1","type":{"description":"HTTP"},
				"details":{"url":"http://web01/"},"is_enabled":false}]}`))
		case "/monitors":
			w.Write([]byte(`{"items":[{"id":"m1","name":"web","notification_receivers":[
				{"name":"ops","type":{"code":1},"details":{"email_address":"ops@example.com"}},
				{"name":"hook","type":{"code":4},"details":{"url":"https://hooks.example.com/x"}},
				{"name":"sms","type":{"code":2},"details":{"phone":"555"}}]}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestCloudkick_ListNodes(t *testing.T) {
	ts := newCloudkickServer(t)
	defer ts.Close()

	c := newCloudkickClientWithHTTP(ts.URL, ts.Client())
	nodes, err := c.ListNodes(context.Background())
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	want := map[string]string{
		"public0_v4":  "50.0.0.1",
		"public1_v4":  "60.0.0.1",
		"private0_v4": "10.0.0.1",
		"private1_v4": "10.0.0.2",
	}
	if !reflect.DeepEqual(nodes[0].IPAddresses, want) {
		t.Errorf("IPAddresses = %v, want %v", nodes[0].IPAddresses, want)
	}
	if !reflect.DeepEqual(nodes[0].Tags, []string{"prod"}) {
		t.Errorf("Tags = %v", nodes[0].Tags)
	}
}

func TestCloudkick_ListChecksForNode(t *testing.T) {
	ts := newCloudkickServer(t)
	defer ts.Close()

	c := newCloudkickClientWithHTTP(ts.URL, ts.Client())
	checks, err := c.ListChecksForNode(context.Background(), "n1")
	if err != nil {
		t.Fatalf("ListChecksForNode: %v", err)
	}
	if len(checks) != 1 {
		t.Fatalf("got %d checks, want 1", len(checks))
	}
	ck := checks[0]
	if ck.Type != "HTTP" || ck.MonitorID != "m1" || ck.NodeID != "n1" || ck.Enabled {
		t.Errorf("check = %+v", ck)
	}
	if ck.Details["url"] != "http://web01/" {
		t.Errorf("details = %v", ck.Details)
	}
}

func TestCloudkick_ListMonitors(t *testing.T) {
	ts := newCloudkickServer(t)
	defer ts.Close()

	c := newCloudkickClientWithHTTP(ts.URL, ts.Client())
	monitors, err := c.ListMonitors(context.Background())
	if err != nil {
		t.Fatalf("ListMonitors: %v", err)
	}
	if len(monitors) != 1 {
		t.Fatalf("got %d monitors, want 1", len(monitors))
	}
	want := []models.Receiver{
		{Name: "ops", Kind: models.ReceiverEmail, Address: "ops@example.com"},
		{Name: "hook", Kind: models.ReceiverWebhook, Address: "https://hooks.example.com/x"},
	}
	if !reflect.DeepEqual(monitors[0].Receivers, want) {
		t.Errorf("Receivers = %+v, want %+v", monitors[0].Receivers, want)
	}
}

func TestCloudkick_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"bad oauth"}`))
	}))
	defer ts.Close()

	c := newCloudkickClientWithHTTP(ts.URL, ts.Client())
	_, err := c.ListNodes(context.Background())
	if err == nil || !strings.Contains(err.Error(), "HTTP 403") {
		t.Fatalf("err = %v, want HTTP 403", err)
	}
}

func TestNewCloudkickClient_SignsRequests(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "OAuth ") || !strings.Contains(auth, `oauth_consumer_key="key"`) {
			t.Errorf("Authorization = %q", auth)
		}
		w.Write([]byte(`{"items":[]}`))
	}))
	defer ts.Close()

	c, err := NewCloudkickClient(&models.Connection{Name: "cloudkick", BaseURL: ts.URL, Username: "key", Secret: "secret"})
	if err != nil {
		t.Fatalf("NewCloudkickClient: %v", err)
	}
	nodes, err := c.ListNodes(context.Background())
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("got %d nodes, want 0", len(nodes))
	}
}
