package models

import "time"

// Connection describes how to reach one of the two monitoring APIs.
type Connection struct {
	Name     string        `json:"name"`
	BaseURL  string        `json:"base_url"`
	AuthURL  string        `json:"auth_url,omitempty"` // identity endpoint (target only)
	Username string        `json:"username"`          // OAuth key for the source
	Secret   string        `json:"-"`                 // API key or OAuth secret
	Insecure bool          `json:"insecure"`          // skip TLS verification
	CACert   string        `json:"-"`                 // PEM bundle contents
	Timeout  time.Duration `json:"timeout"`
}

// MaskedSecret returns a fixed-width mask for display.
func (c *Connection) MaskedSecret() string {
	if c.Secret == "" {
		return ""
	}
	return "••••••••"
}
