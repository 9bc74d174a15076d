package globaltime

import (
	"testing"
	"time"
)

func TestMockTimePinsTheClock(t *testing.T) {
	pinned := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.FixedZone("CET", 3600))
	SetMockTime(pinned)
	defer ResetTime()

	if got := Now(); !got.Equal(pinned) {
		t.Fatalf("Now() = %v, want %v", got, pinned)
	}
	if got := UTC(); got.Location() != time.UTC || !got.Equal(pinned) {
		t.Fatalf("UTC() = %v, want %v in UTC", got, pinned.UTC())
	}
}

func TestResetTimeRestoresTheWallClock(t *testing.T) {
	SetMockTime(time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC))
	ResetTime()

	if got := Now(); time.Since(got) > time.Minute {
		t.Fatalf("Now() = %v, want roughly the wall clock", got)
	}
}
