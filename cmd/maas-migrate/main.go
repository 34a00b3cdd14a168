package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/config"
	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/journal"
	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/migration"
	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/platform"
	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/prompt"
	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/report"
	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/shell"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	cfg := config.Parse()
	if cfg.ShowVersion {
		fmt.Printf("maas-migrate %s (commit: %s, built: %s)\n", version, commit, date)
		return 0
	}
	if cfg.Command == "test" {
		return runTests()
	}

	run := models.NewRun(cfg.Command)
	logger, closeLog, err := newLogger(os.Stdout, cfg.Output, run)
	if err != nil {
		log.Printf("Setup failed: %v", err)
		return 1
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := prompt.Console()
	var gate prompt.Gate = console
	if cfg.Auto {
		gate = prompt.Auto{SaveOnFailure: cfg.SaveOnFailure()}
	}

	if err := promptCredentials(cfg, console); err != nil {
		log.Printf("Setup failed: %v", err)
		return 1
	}
	src, dst, err := setup(ctx, cfg)
	if err != nil {
		log.Printf("Setup failed: %v", err)
		return 1
	}

	var j *journal.Journal
	if cfg.Journal != "" {
		j, err = journal.Open(cfg.Journal, cfg.Debug)
		if err != nil {
			log.Printf("Setup failed: %v", err)
			return 1
		}
		defer j.Close()
	}

	if cfg.Command == "shell" {
		sh := shell.New(src, dst, console, os.Stdout)
		if j != nil {
			sh.History = j
		}
		if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Shell: %v", err)
			return 1
		}
		return 0
	}

	if cfg.Command == "clean" && !cfg.DryRun {
		ok, err := confirmClean(console)
		if err != nil || !ok {
			fmt.Println("Nothing deleted.")
			return 0
		}
	}

	m := migration.New(src, dst, gate, migration.Options{
		DryRun:           cfg.DryRun,
		NoTest:           cfg.NoTest,
		MonitoringZones:  cfg.MonitoringZones,
		ConsistencyLevel: cfg.ConsistencyLevel,
	}, logger)
	m.RunID = run.ID
	if cfg.Debug {
		m.SetDebug(func(line string) { logger("DEBUG " + line) })
	}

	var rep *models.Report
	switch cfg.Command {
	case "migrate":
		rep, err = m.Run(ctx)
	case "clean":
		rep, err = m.Purge(ctx)
	case "notifications sync":
		rep, err = m.SyncNotifications(ctx)
	case "notifications clean":
		rep, err = m.CleanNotifications(ctx)
	}

	code := 0
	if err != nil {
		run.Fail(err.Error())
		logger(fmt.Sprintf("Run stopped: %v", err))
		code = 1
	} else {
		run.Complete()
	}
	finish(cfg, run, rep, j)
	return code
}

// newLogger returns a line logger over stdout and the optional log file.
// Every line is also kept in the run.
func newLogger(stdout io.Writer, path string, run *models.Run) (func(string), func(), error) {
	out := stdout
	closeFn := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = io.MultiWriter(stdout, f)
		closeFn = func() { f.Close() }
	}
	return func(line string) {
		fmt.Fprintln(out, line)
		run.AppendLog(line)
	}, closeFn, nil
}

// promptCredentials asks for anything missing from config and environment.
// Unattended runs cannot prompt, so missing credentials are an error.
func promptCredentials(cfg *config.Config, in *prompt.Interactive) error {
	fields := []struct {
		label  string
		dest   *string
		secret bool
	}{
		{"Cloudkick OAuth Key", &cfg.CloudkickKey, false},
		{"Cloudkick OAuth Secret", &cfg.CloudkickSecret, true},
		{"Rackspace Username", &cfg.RackspaceUsername, false},
		{"Rackspace API Key", &cfg.RackspaceAPIKey, true},
	}
	for _, f := range fields {
		if *f.dest != "" {
			continue
		}
		if cfg.Auto {
			return fmt.Errorf("%s is not configured", f.label)
		}
		var v string
		var err error
		if f.secret {
			v, err = in.Secret(f.label)
		} else {
			v, err = in.Ask(f.label, "")
		}
		if err != nil {
			return err
		}
		*f.dest = v
	}
	return nil
}

// setup builds both clients and exercises each API once.
func setup(ctx context.Context, cfg *config.Config) (*platform.CloudkickClient, *platform.RackspaceClient, error) {
	srcConn := cfg.SourceConnection()
	src, err := platform.NewCloudkickClient(srcConn)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", srcConn.Name, err)
	}
	nodes, err := src.ListNodes(ctx)
	if err != nil {
		fmt.Printf("  %s: failed - %v\n", srcConn.Name, err)
		return nil, nil, fmt.Errorf("%s: %w", srcConn.Name, err)
	}
	fmt.Printf("  %s: ok (%d nodes)\n", srcConn.Name, len(nodes))

	dstConn := cfg.TargetConnection()
	if cfg.Debug {
		log.Printf("  %s: user %s, API key %s", dstConn.Name, dstConn.Username, dstConn.MaskedSecret())
	}
	dst, err := platform.NewRackspaceClient(ctx, dstConn)
	if err != nil {
		fmt.Printf("  %s: failed - %v\n", dstConn.Name, err)
		return nil, nil, fmt.Errorf("%s: %w", dstConn.Name, err)
	}
	entities, err := dst.ListEntities(ctx)
	if err != nil {
		fmt.Printf("  %s: failed - %v\n", dstConn.Name, err)
		return nil, nil, fmt.Errorf("%s: %w", dstConn.Name, err)
	}
	fmt.Printf("  %s: ok (%d entities)\n", dstConn.Name, len(entities))
	return src, dst, nil
}

// confirmClean always asks the operator, even in unattended mode.
func confirmClean(in *prompt.Interactive) (bool, error) {
	answer, err := in.Ask("This deletes ALL entities, checks, alarms, notification plans and notifications. Type 'yes' to continue", "")
	if err != nil {
		return false, err
	}
	return answer == "yes", nil
}

// finish prints and stores the report.
func finish(cfg *config.Config, run *models.Run, rep *models.Report, j *journal.Journal) {
	if rep == nil {
		return
	}
	fmt.Println()
	report.WriteText(os.Stdout, rep)

	if cfg.Report != "" {
		if err := report.WriteYAML(cfg.Report, rep); err != nil {
			log.Printf("Report: %v", err)
		} else {
			fmt.Printf("Report written to %s\n", cfg.Report)
		}
	}
	if j != nil {
		if err := j.Save(run, rep); err != nil {
			log.Printf("Journal: %v", err)
		}
	}
	if cfg.SlackWebhookURL != "" {
		// The run context may already be cancelled.
		if err := report.PostSlack(context.Background(), cfg.SlackWebhookURL, rep); err != nil {
			log.Printf("Slack: %v", err)
		}
	}
}

// runTests runs the module's unit tests with the go tool.
func runTests() int {
	cmd := exec.Command("go", "test", "./...")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		log.Printf("Running tests: %v", err)
		return 1
	}
	return 0
}
