// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// countingService runs until cancelled, or fails its first failFirst runs.
type countingService struct {
	name      string
	failFirst int32
	runs      atomic.Int32
	stopped   atomic.Int32
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.runs.Add(1)
	if n <= s.failFirst {
		return errors.New("transient failure")
	}
	<-ctx.Done()
	s.stopped.Add(1)
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTreeConfig_Defaults(t *testing.T) {
	t.Parallel()
	got := TreeConfig{FailureBackoff: time.Second}.withDefaults()
	want := DefaultTreeConfig()
	want.FailureBackoff = time.Second
	if got != want {
		t.Errorf("withDefaults() = %+v, want %+v", got, want)
	}
	tree := NewTree(quietLogger(), TreeConfig{})
	if tree.config != DefaultTreeConfig() {
		t.Errorf("tree config = %+v", tree.config)
	}
}

func TestTree_Lifecycle(t *testing.T) {
	t.Parallel()
	tree := NewTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	hub := &countingService{name: "hub"}
	api := &countingService{name: "http"}
	tree.AddBackgroundService(hub)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitFor(t, "services to start", func() bool { return hub.runs.Load() == 1 && api.runs.Load() == 1 })
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}
	if hub.stopped.Load() != 1 || api.stopped.Load() != 1 {
		t.Errorf("stopped hub=%d http=%d", hub.stopped.Load(), api.stopped.Load())
	}
	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatal(err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services: %v", report)
	}
}

func TestTree_RestartsBackgroundOnly(t *testing.T) {
	t.Parallel()
	tree := NewTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	flaky := &countingService{name: "scheduler", failFirst: 2}
	api := &countingService{name: "http"}
	tree.AddBackgroundService(flaky)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)
	waitFor(t, "restarts", func() bool { return flaky.runs.Load() >= 3 })
	cancel()
	<-errCh

	if got := api.runs.Load(); got != 1 {
		t.Errorf("api service ran %d times, want 1", got)
	}
}
