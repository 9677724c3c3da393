package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/scrapbid/scrapbid-backend/pkg/logger"
)

type fakeLock struct {
	held     bool
	acquires int
	denied   bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.denied || f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	return nil
}

type recordingJob struct {
	name string
	err  error
	runs int
}

func (j *recordingJob) Name() string { return j.name }

func (j *recordingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func newCronService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestRunCycleContinuesPastFailingJob(t *testing.T) {
	sweep := &recordingJob{name: "auction-sweep", err: errors.New("boom")}
	retention := &recordingJob{name: "outbox-retention"}
	service := newCronService(t, &fakeLock{}, sweep, retention)

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}

	if sweep.runs != 1 {
		t.Fatalf("sweep job ran %d times, want 1", sweep.runs)
	}
	if retention.runs != 1 {
		t.Fatalf("retention job must still run after a failure, ran %d", retention.runs)
	}
}

func TestRunCycleSkipsWhenLockHeldElsewhere(t *testing.T) {
	job := &recordingJob{name: "auction-sweep"}
	lock := &fakeLock{denied: true}
	service := newCronService(t, lock, job)

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}

	if job.runs != 0 {
		t.Fatalf("job must not run without the lock, ran %d", job.runs)
	}
	if lock.acquires != 1 {
		t.Fatalf("expected one acquire attempt, saw %d", lock.acquires)
	}
}

func TestRunCycleReleasesLock(t *testing.T) {
	lock := &fakeLock{}
	service := newCronService(t, lock, &recordingJob{name: "auction-sweep"})

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if lock.held {
		t.Fatal("lock must be released after the cycle")
	}
}

func TestNewServiceRequiresLock(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
	})
	if err == nil {
		t.Fatal("expected error without a lock")
	}
}
