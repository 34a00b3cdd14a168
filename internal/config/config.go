package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// Test failure policies for unattended runs.
const (
	PolicySkip = "skip"
	PolicySave = "save"
)

// Commands accepted on the command line.
var commands = map[string]bool{
	"migrate":             true,
	"clean":               true,
	"shell":               true,
	"test":                true,
	"notifications sync":  true,
	"notifications clean": true,
}

var consistencyLevels = []string{"ALL", "ONE", "QUORUM"}

// defaultConfigFiles are tried in the working directory when -config is
// not given.
var defaultConfigFiles = []string{"config.yaml", "config.json"}

// Config holds all configuration (CLI flags + config file + environment).
// JSON config files parse as YAML.
type Config struct {
	CloudkickKey    string `yaml:"cloudkick_oauth_key"`
	CloudkickSecret string `yaml:"cloudkick_oauth_secret"`
	CloudkickURL    string `yaml:"cloudkick_url"`

	RackspaceUsername      string `yaml:"rackspace_username"`
	RackspaceAPIKey        string `yaml:"rackspace_apikey"`
	RackspaceAuthURL       string `yaml:"rackspace_auth_url"`
	RackspaceMonitoringURL string `yaml:"rackspace_monitoring_url"`

	MonitoringZones   []string `yaml:"monitoring_zones"`
	ConsistencyLevel  string   `yaml:"alarm_consistency_level"`
	TestFailurePolicy string   `yaml:"test_failure_policy"`

	CACertsPath string `yaml:"ca_certs_path"`
	Insecure    bool   `yaml:"insecure"`
	HTTPTimeout int    `yaml:"http_timeout"` // seconds

	Journal         string `yaml:"journal"`
	SlackWebhookURL string `yaml:"slack_webhook_url"`

	// CLI only
	DryRun      bool   `yaml:"-"`
	Auto        bool   `yaml:"-"`
	NoTest      bool   `yaml:"-"`
	Debug       bool   `yaml:"-"`
	ShowVersion bool   `yaml:"-"`
	Output      string `yaml:"-"`
	Report      string `yaml:"-"`
	Command     string `yaml:"-"`

	// CACert is the contents of CACertsPath.
	CACert string `yaml:"-"`

	// internal: paths from CLI flags
	configFile string
	envFile    string
}

// Parse reads CLI flags, then overlays config file and environment values.
// CLI flags take precedence over both.
func Parse() *Config {
	c, err := ParseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return c
}

// ParseArgs is Parse over an explicit flag set and argument list.
func ParseArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	c := &Config{}
	fs.StringVar(&c.configFile, "config", "", "Path to config file (YAML or JSON)")
	fs.StringVar(&c.envFile, "env-file", ".env", "Path to a .env file with credentials")
	fs.BoolVar(&c.DryRun, "dry-run", false, "Don't commit anything, just print the report")
	fs.BoolVar(&c.Auto, "auto", false, "Don't prompt for anything")
	fs.BoolVar(&c.NoTest, "no-test", false, "Skip live check, alarm and webhook tests")
	fs.StringVar(&c.Output, "output", "", "Also write the log to this file")
	fs.StringVar(&c.Report, "report", "", "Write the run report to this YAML file")
	fs.StringVar(&c.Journal, "journal", "", "Journal DSN (SQLite path or postgres:// URL)")
	fs.BoolVar(&c.ShowVersion, "version", false, "Print version and exit")
	fs.BoolVar(&c.Debug, "v", false, "Verbose output (payload dumps)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.ShowVersion {
		return c, nil
	}

	cmd, err := command(fs.Args())
	if err != nil {
		return nil, err
	}
	c.Command = cmd

	path := c.configFile
	if path == "" {
		path = findDefaultFile()
	}
	if path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.loadEnv(); err != nil {
		return nil, err
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return c, nil
}

// command joins the positional arguments into a command name.
func command(args []string) (string, error) {
	if len(args) == 0 {
		return "migrate", nil
	}
	cmd := strings.Join(args, " ")
	if args[0] == "notifications" && len(args) == 1 {
		return "", errors.New("notifications needs a subcommand: sync or clean")
	}
	if !commands[cmd] {
		return "", fmt.Errorf("unknown command %q", cmd)
	}
	return cmd, nil
}

func findDefaultFile() string {
	for _, name := range defaultConfigFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// loadFile reads a YAML or JSON config file. Values from the file are only
// applied if the corresponding CLI flag was not explicitly set.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	// Only apply file values if CLI flag wasn't set
	if c.Journal == "" {
		c.Journal = file.Journal
	}

	c.CloudkickKey = file.CloudkickKey
	c.CloudkickSecret = file.CloudkickSecret
	c.CloudkickURL = file.CloudkickURL
	c.RackspaceUsername = file.RackspaceUsername
	c.RackspaceAPIKey = file.RackspaceAPIKey
	c.RackspaceAuthURL = file.RackspaceAuthURL
	c.RackspaceMonitoringURL = file.RackspaceMonitoringURL
	c.MonitoringZones = file.MonitoringZones
	c.ConsistencyLevel = file.ConsistencyLevel
	c.TestFailurePolicy = file.TestFailurePolicy
	c.CACertsPath = file.CACertsPath
	c.Insecure = file.Insecure
	c.HTTPTimeout = file.HTTPTimeout
	c.SlackWebhookURL = file.SlackWebhookURL
	return nil
}

// loadEnv loads the .env file, if present, and applies environment
// variables over file values.
func (c *Config) loadEnv() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", c.envFile, err)
		}
	}

	vars := map[string]*string{
		"CLOUDKICK_OAUTH_KEY":      &c.CloudkickKey,
		"CLOUDKICK_OAUTH_SECRET":   &c.CloudkickSecret,
		"CLOUDKICK_URL":            &c.CloudkickURL,
		"RACKSPACE_USERNAME":       &c.RackspaceUsername,
		"RACKSPACE_APIKEY":         &c.RackspaceAPIKey,
		"RACKSPACE_AUTH_URL":       &c.RackspaceAuthURL,
		"RACKSPACE_MONITORING_URL": &c.RackspaceMonitoringURL,
		"SLACK_WEBHOOK_URL":        &c.SlackWebhookURL,
	}
	for name, dest := range vars {
		if v := os.Getenv(name); v != "" {
			*dest = v
		}
	}
	if v := os.Getenv("MAAS_MIGRATE_JOURNAL"); v != "" && c.Journal == "" {
		c.Journal = v
	}
	return nil
}

// finish applies defaults and validates.
func (c *Config) finish() error {
	if c.ConsistencyLevel == "" {
		c.ConsistencyLevel = "ALL"
	}
	c.ConsistencyLevel = strings.ToUpper(c.ConsistencyLevel)
	valid := false
	for _, l := range consistencyLevels {
		if c.ConsistencyLevel == l {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("alarm_consistency_level must be one of %s, got %q", strings.Join(consistencyLevels, ", "), c.ConsistencyLevel)
	}

	if c.TestFailurePolicy == "" {
		c.TestFailurePolicy = PolicySkip
	}
	c.TestFailurePolicy = strings.ToLower(c.TestFailurePolicy)
	if c.TestFailurePolicy != PolicySkip && c.TestFailurePolicy != PolicySave {
		return fmt.Errorf("test_failure_policy must be %s or %s, got %q", PolicySkip, PolicySave, c.TestFailurePolicy)
	}

	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must not be negative, got %d", c.HTTPTimeout)
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 60
	}

	if c.CACertsPath != "" {
		data, err := os.ReadFile(c.CACertsPath)
		if err != nil {
			if !c.Insecure {
				return fmt.Errorf("reading CA bundle: %w", err)
			}
		} else {
			c.CACert = string(data)
		}
	}
	return nil
}

// Timeout is the HTTP client timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

// SaveOnFailure reports whether unattended runs keep records whose live
// test failed.
func (c *Config) SaveOnFailure() bool {
	return c.TestFailurePolicy == PolicySave
}

// SourceConnection describes the source API.
func (c *Config) SourceConnection() *models.Connection {
	return &models.Connection{
		Name:     "Cloudkick",
		BaseURL:  c.CloudkickURL,
		Username: c.CloudkickKey,
		Secret:   c.CloudkickSecret,
		Insecure: c.Insecure,
		CACert:   c.CACert,
		Timeout:  c.Timeout(),
	}
}

// TargetConnection describes the target API.
func (c *Config) TargetConnection() *models.Connection {
	return &models.Connection{
		Name:     "Rackspace Cloud Monitoring",
		BaseURL:  c.RackspaceMonitoringURL,
		AuthURL:  c.RackspaceAuthURL,
		Username: c.RackspaceUsername,
		Secret:   c.RackspaceAPIKey,
		Insecure: c.Insecure,
		CACert:   c.CACert,
		Timeout:  c.Timeout(),
	}
}
