package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/journal"
	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/models"
	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/prompt"
	"github.com/racker/rackspace-cloudmonitoring-migration-tool/internal/testhelpers"
)

type fakeHistory struct{ runs []journal.RunRecord }

func (h fakeHistory) Runs(limit int) ([]journal.RunRecord, error) { return h.runs, nil }

func newTestShell(input string) (*Shell, *bytes.Buffer) {
	node := testhelpers.NewNodeBuilder().WithID("n1").WithName("web01").Build()
	src := testhelpers.NewFakeSource().
		WithMonitor(testhelpers.NewMonitorBuilder().WithName("web").WithEmail("ops", "ops@example.com").Build()).
		WithNode(node, testhelpers.NewCheckBuilder().WithID("c1").WithType("SSH").Build())
	dst := testhelpers.NewFakeTarget().
		WithEntity(models.Entity{ID: "en1", Label: "web01"}).
		WithCheck(models.Check{ID: "ch1", EntityID: "en1", Label: "web:SSH", Type: "remote.ssh"})

	var out bytes.Buffer
	return New(src, dst, strings.NewReader(input), &out), &out
}

func TestShellCommands(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"nodes\n", []string{"name: web01", "public0_v4: 50.56.0.1"}},
		{"checks n1\n", []string{"id: c1", "type: SSH"}},
		{"monitors\n", []string{"address: ops@example.com", "kind: email"}},
		{"entities\n", []string{"id: en1"}},
		{"entity-checks en1\n", []string{"id: ch1", "type: remote.ssh"}},
		{"zones\n", []string{"id: mzdfw", "id: mzord"}},
		{"help\n", []string{"entity-checks", "quit"}},
		{"bogus\n", []string{`error: unknown command "bogus"`}},
		{"checks\n", []string{"error: usage: checks <node id>"}},
		{"runs\n", []string{"error: no journal configured"}},
		{"\n\nquit\nnodes\n", []string{"maas> maas> maas> "}},
	}
	for _, tc := range tests {
		t.Run(strings.TrimSpace(tc.input), func(t *testing.T) {
			s, out := newTestShell(tc.input)
			if err := s.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			for _, want := range tc.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestShellQuitStops(t *testing.T) {
	s, out := newTestShell("quit\nnodes\n")
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "web01") {
		t.Error("commands after quit must not run")
	}
}

func TestShellHistory(t *testing.T) {
	s, out := newTestShell("runs\n")
	s.History = fakeHistory{runs: []journal.RunRecord{{ID: "run-1", Command: "migrate", Status: "completed"}}}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "id: run-1") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestShellAPIError(t *testing.T) {
	s, out := newTestShell("entities\nzones\n")
	s.Target.(*testhelpers.FakeTarget).ListErr = errors.New("HTTP 503")
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if strings.Count(out.String(), "error: HTTP 503") != 2 {
		t.Errorf("errors must not end the shell:\n%s", out.String())
	}
}

func TestShellCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _ := newTestShell("nodes\n")
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestShellReadsAfterPrompts(t *testing.T) {
	in := prompt.NewInteractive(strings.NewReader("apikey\nentities\nquit\n"), &bytes.Buffer{})
	if got, err := in.Secret("API key"); err != nil || got != "apikey" {
		t.Fatalf("Secret = (%q, %v)", got, err)
	}

	var out bytes.Buffer
	sh := New(testhelpers.NewFakeSource(), testhelpers.NewFakeTarget().WithEntity(models.Entity{ID: "en1", Label: "web01"}), in, &out)
	if err := sh.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "id: en1") {
		t.Errorf("entities not listed after prompts:\n%s", out.String())
	}
}
