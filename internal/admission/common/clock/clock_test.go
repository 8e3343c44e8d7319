package clock

import (
	"sync"
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}

	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Clock time %v outside [%v, %v]", now, before, after)
	}
}

func TestMockClock_Now(t *testing.T) {
	fixedTime := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: fixedTime}

	if now := clock.Now(); !now.Equal(fixedTime) {
		t.Errorf("Expected %v, got %v", fixedTime, now)
	}
	if first, second := clock.Now(), clock.Now(); !first.Equal(second) {
		t.Errorf("Mock clock should return consistent time: first=%v, second=%v", first, second)
	}
}

func TestMockClock_AdvanceAndSet(t *testing.T) {
	initialTime := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: initialTime}

	testCases := []struct {
		name     string
		duration time.Duration
		expected time.Time
	}{
		{"advance by 1 hour", time.Hour, initialTime.Add(time.Hour)},
		{"advance by 30 minutes more", 30 * time.Minute, initialTime.Add(90 * time.Minute)},
		{"advance by zero", 0, initialTime.Add(90 * time.Minute)},
		{"go backwards", -2 * time.Hour, initialTime.Add(-30 * time.Minute)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clock.Advance(tc.duration)
			if got := clock.Now(); !got.Equal(tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}

	clock.Set(initialTime)
	if got := clock.Now(); !got.Equal(initialTime) {
		t.Errorf("Set: expected %v, got %v", initialTime, got)
	}
}

func TestMockClock_ConcurrentAdvance(t *testing.T) {
	start := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: start}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); clock.Advance(time.Second) }()
		go func() { defer wg.Done(); _ = clock.Now() }()
	}
	wg.Wait()

	if got := clock.Now(); !got.Equal(start.Add(100 * time.Second)) {
		t.Errorf("expected 100 advances to be applied, got %v", got.Sub(start))
	}
}

func TestClockInterface(t *testing.T) {
	var _ Clock = RealClock{}
	var _ Clock = &MockClock{}
}
