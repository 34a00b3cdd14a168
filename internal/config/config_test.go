package config

import (
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	return ParseArgs(flag.NewFlagSet("test", flag.ContinueOnError), args)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	c, err := parse(t)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if c.Command != "migrate" {
		t.Errorf("Command = %q, want migrate", c.Command)
	}
	if c.ConsistencyLevel != "ALL" || c.TestFailurePolicy != PolicySkip {
		t.Errorf("defaults: %q %q", c.ConsistencyLevel, c.TestFailurePolicy)
	}
	if c.Timeout() != 60*time.Second {
		t.Errorf("Timeout = %s", c.Timeout())
	}
	if c.SaveOnFailure() {
		t.Error("default policy must skip")
	}
}

func TestCommands(t *testing.T) {
	chdir(t, t.TempDir())
	tests := []struct {
		args    []string
		want    string
		wantErr bool
	}{
		{[]string{"clean"}, "clean", false},
		{[]string{"-dry-run", "shell"}, "shell", false},
		{[]string{"notifications", "sync"}, "notifications sync", false},
		{[]string{"notifications", "clean"}, "notifications clean", false},
		{[]string{"notifications"}, "", true},
		{[]string{"export"}, "", true},
	}
	for _, tc := range tests {
		t.Run(strings.Join(tc.args, "_"), func(t *testing.T) {
			c, err := parse(t, tc.args...)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error, got command %q", c.Command)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if c.Command != tc.want {
				t.Errorf("Command = %q, want %q", c.Command, tc.want)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, "config.yaml", `
cloudkick_oauth_key: ckkey
cloudkick_oauth_secret: cksecret
rackspace_username: rsuser
rackspace_apikey: rskey
monitoring_zones: [mzdfw, mzord]
alarm_consistency_level: quorum
test_failure_policy: SAVE
http_timeout: 5
journal: from-file.db
`)
	c, err := parse(t, "-config", path, "-journal", "from-flag.db")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if c.CloudkickKey != "ckkey" || c.RackspaceAPIKey != "rskey" {
		t.Errorf("credentials not loaded: %+v", c)
	}
	if !reflect.DeepEqual(c.MonitoringZones, []string{"mzdfw", "mzord"}) {
		t.Errorf("zones = %v", c.MonitoringZones)
	}
	if c.ConsistencyLevel != "QUORUM" || !c.SaveOnFailure() {
		t.Errorf("level %q policy %q", c.ConsistencyLevel, c.TestFailurePolicy)
	}
	if c.Timeout() != 5*time.Second {
		t.Errorf("Timeout = %s", c.Timeout())
	}
	if c.Journal != "from-flag.db" {
		t.Errorf("flag must win over file, got %q", c.Journal)
	}
}

func TestLoadJSON(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, "config.json", `{
  "cloudkick_oauth_key": "ckkey",
  "rackspace_username": "rsuser",
  "monitoring_zones": ["mzlon"],
  "alarm_consistency_level": "ONE"
}`)
	c, err := parse(t, "-config", path)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if c.CloudkickKey != "ckkey" || c.ConsistencyLevel != "ONE" || c.MonitoringZones[0] != "mzlon" {
		t.Errorf("unexpected config %+v", c)
	}
}

func TestDefaultConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"rackspace_username": "found"}`), 0600); err != nil {
		t.Fatal(err)
	}
	c, err := parse(t)
	if err != nil {
		t.Fatal(err)
	}
	if c.RackspaceUsername != "found" {
		t.Errorf("default config file not loaded: %+v", c)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RACKSPACE_USERNAME", "env-user")
	path := writeFile(t, "config.yaml", "rackspace_username: file-user\n")

	c, err := parse(t, "-config", path)
	if err != nil {
		t.Fatal(err)
	}
	if c.RackspaceUsername != "env-user" {
		t.Errorf("RackspaceUsername = %q, want env-user", c.RackspaceUsername)
	}
}

func TestDotEnv(t *testing.T) {
	chdir(t, t.TempDir())
	os.Unsetenv("CLOUDKICK_OAUTH_SECRET")
	t.Cleanup(func() { os.Unsetenv("CLOUDKICK_OAUTH_SECRET") })
	envFile := writeFile(t, "creds.env", "CLOUDKICK_OAUTH_SECRET=from-dotenv\n")

	c, err := parse(t, "-env-file", envFile)
	if err != nil {
		t.Fatal(err)
	}
	if c.CloudkickSecret != "from-dotenv" {
		t.Errorf("CloudkickSecret = %q", c.CloudkickSecret)
	}
}

func TestValidation(t *testing.T) {
	chdir(t, t.TempDir())
	tests := []struct {
		name    string
		content string
	}{
		{"consistency", "alarm_consistency_level: MOST\n"},
		{"policy", "test_failure_policy: retry\n"},
		{"timeout", "http_timeout: -1\n"},
		{"ca bundle", "ca_certs_path: /nonexistent/ca.pem\n"},
		{"yaml", "monitoring_zones: {\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "config.yaml", tc.content)
			if _, err := parse(t, "-config", path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMissingCABundleInsecure(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, "config.yaml", "ca_certs_path: /nonexistent/ca.pem\ninsecure: true\n")
	if _, err := parse(t, "-config", path); err != nil {
		t.Errorf("insecure runs must tolerate a missing bundle: %v", err)
	}
}

func TestCABundle(t *testing.T) {
	chdir(t, t.TempDir())
	bundle := writeFile(t, "ca.pem", "-----BEGIN CERTIFICATE-----\n")
	path := writeFile(t, "config.yaml", "ca_certs_path: "+bundle+"\n")
	c, err := parse(t, "-config", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(c.CACert, "-----BEGIN") {
		t.Errorf("CACert = %q", c.CACert)
	}
	if c.TargetConnection().CACert != c.CACert || c.SourceConnection().CACert != c.CACert {
		t.Error("connections must carry the bundle")
	}
}

func TestConnections(t *testing.T) {
	c := &Config{
		CloudkickKey: "k", CloudkickSecret: "s",
		RackspaceUsername: "u", RackspaceAPIKey: "a",
		RackspaceAuthURL: "https://identity.example.com/v2.0", RackspaceMonitoringURL: "https://monitoring.example.com/v1.0/1",
		Insecure: true, HTTPTimeout: 10,
	}
	src := c.SourceConnection()
	if src.Username != "k" || src.Secret != "s" || src.Timeout != 10*time.Second || !src.Insecure {
		t.Errorf("source = %+v", src)
	}
	dst := c.TargetConnection()
	if dst.Username != "u" || dst.Secret != "a" || dst.AuthURL != c.RackspaceAuthURL || dst.BaseURL != c.RackspaceMonitoringURL {
		t.Errorf("target = %+v", dst)
	}
}

func TestVersionSkipsEverything(t *testing.T) {
	chdir(t, t.TempDir())
	c, err := parse(t, "-version", "bogus-command")
	if err != nil {
		t.Fatal(err)
	}
	if !c.ShowVersion {
		t.Error("ShowVersion not set")
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", abs)
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			panic("testing: failed to restore working directory: " + err.Error())
		}
	})
}
