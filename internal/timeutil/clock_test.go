package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)
	if d := clock.Since(past); d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestRealClock_NewTimer(t *testing.T) {
	clock := RealClock{}
	timer := clock.NewTimer(10 * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C():
	case <-time.After(time.Second):
		t.Error("timer did not fire")
	}
}

func TestRearm_DropsStaleTick(t *testing.T) {
	clock := RealClock{}
	timer := clock.NewTimer(time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	Rearm(timer, time.Hour)

	select {
	case <-timer.C():
		t.Error("rearmed timer delivered a stale tick")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestMockClock_NowAndSet(t *testing.T) {
	fixedTime := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	clock := NewMockClock(fixedTime)
	if !clock.Now().Equal(fixedTime) {
		t.Errorf("got %v, want %v", clock.Now(), fixedTime)
	}

	newTime := fixedTime.Add(time.Hour)
	clock.Set(newTime)
	if !clock.Now().Equal(newTime) {
		t.Errorf("got %v, want %v", clock.Now(), newTime)
	}
	if d := clock.Since(fixedTime); d != time.Hour {
		t.Errorf("Since() = %v, want 1h", d)
	}
}

func TestMockTimer_FiresOnAdvance(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	timer := clock.NewTimer(100 * time.Millisecond)

	clock.Advance(50 * time.Millisecond)
	select {
	case <-timer.C():
		t.Fatal("timer fired early")
	default:
	}

	clock.Advance(50 * time.Millisecond)
	select {
	case <-timer.C():
	default:
		t.Fatal("timer did not fire at deadline")
	}
}

func TestMockTimer_StopAndReset(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	timer := clock.NewTimer(10 * time.Millisecond)

	if !timer.Stop() {
		t.Error("Stop() on active timer should return true")
	}
	clock.Advance(time.Second)
	select {
	case <-timer.C():
		t.Fatal("stopped timer fired")
	default:
	}

	timer.Reset(10 * time.Millisecond)
	clock.Advance(10 * time.Millisecond)
	select {
	case <-timer.C():
	default:
		t.Fatal("reset timer did not fire")
	}
	if timer.Stop() {
		t.Error("Stop() on fired timer should return false")
	}
}
