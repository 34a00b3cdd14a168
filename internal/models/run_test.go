package models

import "testing"

func TestRunLifecycle(t *testing.T) {
	r := NewRun("migrate")
	if r.ID == "" {
		t.Fatal("NewRun did not assign an ID")
	}
	if r.Status != "running" {
		t.Errorf("Status = %q, want running", r.Status)
	}

	r.AppendLog("one")
	r.AppendLog("two")
	r.AppendLog("three")
	if got := r.LogsSince(1); len(got) != 2 || got[0] != "two" {
		t.Errorf("LogsSince(1) = %v, want [two three]", got)
	}
	if got := r.LogsSince(5); got != nil {
		t.Errorf("LogsSince(5) = %v, want nil", got)
	}

	r.Fail("boom")
	if r.Status != "failed" || r.Error != "boom" {
		t.Errorf("after Fail: (%q, %q), want (failed, boom)", r.Status, r.Error)
	}

	other := NewRun("clean")
	if other.ID == r.ID {
		t.Error("two runs share an ID")
	}
	other.Complete()
	if other.Status != "completed" {
		t.Errorf("Status = %q, want completed", other.Status)
	}
}
