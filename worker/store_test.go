package worker

import (
	"testing"
	"time"
)

func TestStepWindowBoundaries(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	delay := 2 * time.Hour

	lower, upper := StepWindow(now, delay)

	if !upper.Equal(now.Add(-delay)) {
		t.Fatalf("expected upper bound now-delay, got %v", upper)
	}
	if !lower.Equal(upper.Add(-EligibilityWindow)) {
		t.Fatalf("expected lower bound upper-24h, got %v", lower)
	}

	// anchor exactly at now-delay is due
	if !InWindow(upper, lower, upper) {
		t.Fatal("expected anchor at now-delay to be selected")
	}

	// anchor exactly at now-delay-24h-1s is too old
	tooOld := now.Add(-delay).Add(-EligibilityWindow).Add(-time.Second)
	if InWindow(tooOld, lower, upper) {
		t.Fatal("expected anchor past the safety window not to be selected")
	}

	// the lower bound itself is exclusive
	if InWindow(lower, lower, upper) {
		t.Fatal("expected anchor exactly at the lower bound not to be selected")
	}

	// an anchor newer than the due time is not yet eligible
	if InWindow(upper.Add(time.Second), lower, upper) {
		t.Fatal("expected anchor newer than now-delay not to be selected")
	}
}
