package services

import (
	"context"
	"testing"
	"time"

	"checkbook/internal/core"
	"checkbook/internal/ledger/memory"
)

func TestNewScheduler(t *testing.T) {
	config := DefaultSchedulerConfig()
	scheduler := NewScheduler(nil, nil, config)

	if scheduler == nil {
		t.Error("NewScheduler should return non-nil scheduler")
	}
	if scheduler.processor != nil {
		t.Error("processor should be nil when passed nil")
	}
}

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	if config.Interval != 1*time.Hour {
		t.Errorf("expected Interval 1h, got %v", config.Interval)
	}
}

func TestNewScheduler_ZeroIntervalFallsBack(t *testing.T) {
	scheduler := NewScheduler(nil, nil, SchedulerConfig{})

	if scheduler.config.Interval != DefaultSchedulerConfig().Interval {
		t.Errorf("expected default interval, got %v", scheduler.config.Interval)
	}
}

func TestScheduler_IsRunning(t *testing.T) {
	config := DefaultSchedulerConfig()
	scheduler := NewScheduler(nil, nil, config)

	if scheduler.IsRunning() {
		t.Error("scheduler should not be running initially")
	}
}

func TestScheduler_StartTwice(t *testing.T) {
	config := DefaultSchedulerConfig()
	config.Interval = 100 * time.Millisecond
	scheduler := NewScheduler(nil, nil, config)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Mark as running without starting the loop; a nil processor would
	// panic inside runOnce.
	scheduler.mu.Lock()
	scheduler.running = true
	scheduler.mu.Unlock()

	// Second start should fail
	err := scheduler.Start(ctx)
	if err == nil {
		t.Error("expected error when starting already running scheduler")
	}
}

func TestScheduler_StopNotRunning(t *testing.T) {
	config := DefaultSchedulerConfig()
	scheduler := NewScheduler(nil, nil, config)

	ctx := context.Background()

	// Stop when not running should not error
	err := scheduler.Stop(ctx)
	if err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestScheduler_RunsOnStartup(t *testing.T) {
	store := memory.New()
	tpl := seedTemplate(t, store, monthlyTemplate(core.NewDate(2024, 3, 1)))

	processor := newProcessor(store, store)
	clock := core.FixedClock(core.NewDate(2024, 3, 15))
	scheduler := NewScheduler(processor, clock, SchedulerConfig{Interval: time.Hour})

	ctx := context.Background()
	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !scheduler.IsRunning() {
		t.Error("scheduler should report running after Start")
	}

	// The startup pass fires synchronously at the head of the loop;
	// give it a moment to land.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := store.GetTemplateEntry(ctx, tpl.ID, clock.Today()); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("scheduler never processed the due template")
		}
		time.Sleep(10 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if scheduler.IsRunning() {
		t.Error("scheduler should not report running after Stop")
	}
}
