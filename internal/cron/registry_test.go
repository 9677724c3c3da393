package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryPreservesOrder(t *testing.T) {
	sweep := &stubJob{name: "auction-sweep"}
	retention := &stubJob{name: "outbox-retention"}
	registry := NewRegistry(sweep, nil, retention)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs after dropping nil, got %d", len(jobs))
	}
	if jobs[0] != sweep || jobs[1] != retention {
		t.Fatal("jobs returned out of order")
	}
}

func TestRegistryJobsReturnsCopy(t *testing.T) {
	registry := NewRegistry(&stubJob{name: "auction-sweep"})

	jobs := registry.Jobs()
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("internal slice leaked to caller")
	}
}
