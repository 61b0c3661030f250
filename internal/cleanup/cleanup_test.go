package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeStore struct {
	removed int64
	err     error
	entered chan struct{}
	block   chan struct{}
}

func (f *fakeStore) CleanupHelpSessions(context.Context) (int64, error) {
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	return f.removed, f.err
}

type fakeMembercount struct{ ttl time.Duration }

func (f *fakeMembercount) Sweep(ttl time.Duration) int {
	f.ttl = ttl
	return 2
}

type fakeOwners struct{}

func (fakeOwners) Sweep() int { return 1 }

type panicOwners struct{}

func (panicOwners) Sweep() int { panic("boom") }

func TestRunOnceCounts(t *testing.T) {
	store := &fakeStore{removed: 3}
	mc := &fakeMembercount{}
	s, err := New(Config{MembercountTTL: 30 * time.Minute}, store, mc, fakeOwners{}, zap.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	result := s.RunOnce(context.Background())
	if result.Skipped || result.Err != nil {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.HelpSessions != 3 || result.Membercount != 2 || result.TempOwners != 1 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if mc.ttl != 30*time.Minute {
		t.Fatalf("expected configured ttl, got %s", mc.ttl)
	}
}

func TestRunOnceContinuesAfterStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	s, _ := New(Config{}, store, &fakeMembercount{}, fakeOwners{}, zap.NewNop())

	result := s.RunOnce(context.Background())
	if result.Err == nil {
		t.Fatalf("expected error reported")
	}
	if result.Membercount != 2 || result.TempOwners != 1 {
		t.Fatalf("other sweeps should still run, got %+v", result)
	}
}

func TestRunOnceRecoversPanic(t *testing.T) {
	s, _ := New(Config{}, &fakeStore{}, nil, panicOwners{}, zap.NewNop())
	result := s.RunOnce(context.Background())
	if result.Err == nil {
		t.Fatalf("expected panic converted to error")
	}
	if again := s.RunOnce(context.Background()); again.Skipped {
		t.Fatalf("lock must be released after panic")
	}
}

func TestRunOnceSkipsWhenBusy(t *testing.T) {
	store := &fakeStore{entered: make(chan struct{}), block: make(chan struct{})}
	s, _ := New(Config{}, store, nil, nil, zap.NewNop())

	done := make(chan Result)
	go func() { done <- s.RunOnce(context.Background()) }()
	<-store.entered

	if result := s.RunOnce(context.Background()); !result.Skipped {
		t.Fatalf("expected overlapping run to be skipped")
	}
	close(store.block)
	if result := <-done; result.Skipped {
		t.Fatalf("first run should complete")
	}
}

func TestInvalidSchedule(t *testing.T) {
	if _, err := New(Config{Schedule: "not a schedule"}, nil, nil, nil, zap.NewNop()); err == nil {
		t.Fatalf("expected schedule error")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	s, _ := New(Config{Schedule: "@every 1h"}, &fakeStore{}, nil, nil, zap.NewNop())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)
}
