package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// DefaultAuthURL is the public identity endpoint.
const DefaultAuthURL = "https://identity.api.rackspacecloud.com/v2.0"

// monitoringServiceType identifies Cloud Monitoring in the service catalog.
const monitoringServiceType = "rax:monitor"

// TokenResponse holds the parsed identity answer.
type TokenResponse struct {
	Access struct {
		Token struct {
			ID      string `json:"id"`
			Expires string `json:"expires"`
			Tenant  struct {
				ID string `json:"id"`
			} `json:"tenant"`
		} `json:"token"`
		ServiceCatalog []CatalogEntry `json:"serviceCatalog"`
	} `json:"access"`
}

// CatalogEntry is one service listed in the catalog.
type CatalogEntry struct {
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Endpoints []CatalogEndpoint `json:"endpoints"`
}

// CatalogEndpoint is a regional endpoint of a catalog entry.
type CatalogEndpoint struct {
	PublicURL string `json:"publicURL"`
	Region    string `json:"region"`
	TenantID  string `json:"tenantId"`
}

// Session is an authenticated handle on the monitoring API.
type Session struct {
	Token         string
	TenantID      string
	MonitoringURL string
}

// ParseTokenResponse parses an identity response body.
func ParseTokenResponse(body []byte) (*TokenResponse, error) {
	var resp TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}
	if resp.Access.Token.ID == "" {
		return nil, fmt.Errorf("token response missing access.token.id")
	}
	return &resp, nil
}

// DetectMonitoringURL picks the monitoring endpoint from the service catalog.
// Returns empty string if the catalog has none.
func DetectMonitoringURL(resp *TokenResponse) string {
	if resp == nil {
		return ""
	}
	for _, entry := range resp.Access.ServiceCatalog {
		if entry.Type != monitoringServiceType && entry.Name != "cloudMonitoring" {
			continue
		}
		for _, ep := range entry.Endpoints {
			if ep.PublicURL != "" {
				return strings.TrimRight(ep.PublicURL, "/")
			}
		}
	}
	return ""
}

// tokenRequest builds the API key credentials body.
func tokenRequest(username, apiKey string) map[string]interface{} {
	return map[string]interface{}{
		"auth": map[string]interface{}{
			"RAX-KSKEY:apiKeyCredentials": map[string]string{
				"username": username,
				"apiKey":   apiKey,
			},
		},
	}
}

// Authenticate exchanges the connection's username and API key for a token.
// A BaseURL set on the connection overrides the catalog endpoint.
func Authenticate(ctx context.Context, conn *models.Connection) (*Session, error) {
	authURL := conn.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	idConn := *conn
	idConn.BaseURL = authURL
	client, err := NewClient(&idConn)
	if err != nil {
		return nil, err
	}

	body, _, err := client.Post(ctx, "/tokens", tokenRequest(conn.Username, conn.Secret))
	if err != nil {
		return nil, fmt.Errorf("authenticating %s: %w", conn.Username, err)
	}
	resp, err := ParseTokenResponse(body)
	if err != nil {
		return nil, err
	}

	session := &Session{
		Token:    resp.Access.Token.ID,
		TenantID: resp.Access.Token.Tenant.ID,
	}
	if conn.BaseURL != "" {
		session.MonitoringURL = strings.TrimRight(conn.BaseURL, "/")
		return session, nil
	}
	session.MonitoringURL = DetectMonitoringURL(resp)
	if session.MonitoringURL == "" {
		return nil, fmt.Errorf("%s: no %s endpoint in service catalog", conn.Name, monitoringServiceType)
	}
	log.Printf("  DISCOVERY: %s: monitoring endpoint %s", conn.Name, session.MonitoringURL)
	return session, nil
}
