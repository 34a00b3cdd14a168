// Package shell is a read-only REPL over both APIs for inspecting what a
// migration would work with.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/journal"
	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
)

// Source is the part of the source API the shell reads.
type Source interface {
	ListNodes(ctx context.Context) ([]models.SourceNode, error)
	ListChecksForNode(ctx context.Context, nodeID string) ([]models.SourceCheck, error)
	ListMonitors(ctx context.Context) ([]models.SourceMonitor, error)
}

// Target is the part of the target API the shell reads.
type Target interface {
	ListEntities(ctx context.Context) ([]models.Entity, error)
	ListChecks(ctx context.Context, entityID string) ([]models.Check, error)
	ListAlarms(ctx context.Context, entityID string) ([]models.Alarm, error)
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	ListNotificationPlans(ctx context.Context) ([]models.NotificationPlan, error)
	ListMonitoringZones(ctx context.Context) ([]models.MonitoringZone, error)
}

// History lists journaled runs.
type History interface {
	Runs(limit int) ([]journal.RunRecord, error)
}

type command struct {
	args int // required positional arguments
	help string
	run  func(ctx context.Context, args []string) (interface{}, error)
}

// Shell reads commands from In and writes YAML results to Out.
type Shell struct {
	Source  Source
	Target  Target
	History History // optional

	in       *bufio.Scanner
	out      io.Writer
	commands map[string]command
}

// New creates a shell over the two APIs.
func New(src Source, dst Target, in io.Reader, out io.Writer) *Shell {
	s := &Shell{Source: src, Target: dst, in: bufio.NewScanner(in), out: out}
	s.commands = map[string]command{
		"nodes": {help: "list source nodes", run: func(ctx context.Context, _ []string) (interface{}, error) {
			return s.Source.ListNodes(ctx)
		}},
		"checks": {args: 1, help: "checks <node id>: list source checks of a node", run: func(ctx context.Context, args []string) (interface{}, error) {
			return s.Source.ListChecksForNode(ctx, args[0])
		}},
		"monitors": {help: "list source monitors and their receivers", run: func(ctx context.Context, _ []string) (interface{}, error) {
			return s.Source.ListMonitors(ctx)
		}},
		"entities": {help: "list target entities", run: func(ctx context.Context, _ []string) (interface{}, error) {
			return s.Target.ListEntities(ctx)
		}},
		"entity-checks": {args: 1, help: "entity-checks <entity id>: list target checks of an entity", run: func(ctx context.Context, args []string) (interface{}, error) {
			return s.Target.ListChecks(ctx, args[0])
		}},
		"alarms": {args: 1, help: "alarms <entity id>: list target alarms of an entity", run: func(ctx context.Context, args []string) (interface{}, error) {
			return s.Target.ListAlarms(ctx, args[0])
		}},
		"notifications": {help: "list target notifications", run: func(ctx context.Context, _ []string) (interface{}, error) {
			return s.Target.ListNotifications(ctx)
		}},
		"plans": {help: "list target notification plans", run: func(ctx context.Context, _ []string) (interface{}, error) {
			return s.Target.ListNotificationPlans(ctx)
		}},
		"zones": {help: "list target monitoring zones", run: func(ctx context.Context, _ []string) (interface{}, error) {
			return s.Target.ListMonitoringZones(ctx)
		}},
		"runs": {help: "list journaled runs", run: s.runs},
	}
	return s
}

func (s *Shell) runs(context.Context, []string) (interface{}, error) {
	if s.History == nil {
		return nil, errors.New("no journal configured")
	}
	return s.History.Runs(20)
}

// Run reads commands until quit, end of input or cancellation. Command
// errors are printed and the loop continues.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Type 'help' for commands, 'quit' to leave.")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, "maas> ")
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}
		fields := strings.Fields(s.in.Text())
		if len(fields) == 0 {
			continue
		}
		name, args := fields[0], fields[1:]

		switch name {
		case "quit", "exit":
			return nil
		case "help":
			s.help()
			continue
		}

		if err := s.Exec(ctx, name, args); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// Exec runs one command and prints its result.
func (s *Shell) Exec(ctx context.Context, name string, args []string) error {
	cmd, ok := s.commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q (try 'help')", name)
	}
	if len(args) < cmd.args {
		return fmt.Errorf("usage: %s", cmd.help)
	}
	result, err := cmd.run(ctx, args)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(s.out)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return err
	}
	return enc.Close()
}

func (s *Shell) help() {
	names := make([]string, 0, len(s.commands))
	for n := range s.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(s.out, "  %-15s %s\n", n, s.commands[n].help)
	}
	fmt.Fprintf(s.out, "  %-15s %s\n", "quit", "leave the shell")
}
