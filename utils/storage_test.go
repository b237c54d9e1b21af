package utils

import (
	"math"
	"strings"
	"testing"
)

func TestFormatFileSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 Bytes"},
		{1, "1 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1 MB"},
		{5*1024*1024 + 256*1024, "5.25 MB"},
		{3 * 1024 * 1024 * 1024, "3 GB"},
		{int64(2) * 1024 * 1024 * 1024 * 1024, "2 TB"},
	}

	for _, tt := range tests {
		if got := FormatFileSize(tt.bytes); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestCalculatePercentage(t *testing.T) {
	t.Parallel()

	if got := CalculatePercentage(50, 100); got != 50 {
		t.Errorf("CalculatePercentage(50, 100) = %v, want 50", got)
	}
	if got := CalculatePercentage(90, 100); got != 90 {
		t.Errorf("CalculatePercentage(90, 100) = %v, want 90", got)
	}
	if got := CalculatePercentage(123, 0); got != 0 {
		t.Errorf("CalculatePercentage(123, 0) = %v, want 0 for zero limit", got)
	}
}

// Counters past 2^53 lose low bits if both operands are converted to
// float64 before dividing; the exact-rational division must stay monotonic
// there.
func TestCalculatePercentageLargeCounters(t *testing.T) {
	t.Parallel()

	limit := int64(math.MaxInt64)
	base := int64(1) << 60

	prev := CalculatePercentage(base, limit)
	for i := 1; i <= 4; i++ {
		used := base + int64(i)*(int64(1)<<40)
		got := CalculatePercentage(used, limit)
		if got <= prev {
			t.Fatalf("percentage not monotonic: used=%d gave %v, previous %v", used, got, prev)
		}
		prev = got
	}

	// The naive float64(used)/float64(limit) of full 63-bit counters is off
	// by more than the rational division's single rounding step.
	used := limit - 1
	got := CalculatePercentage(used, limit)
	if got > 100 {
		t.Fatalf("CalculatePercentage(%d, %d) = %v, want <= 100", used, limit, got)
	}
	if got < 99.999 {
		t.Fatalf("CalculatePercentage(%d, %d) = %v, want ~100", used, limit, got)
	}
}

func TestWouldExceed(t *testing.T) {
	t.Parallel()

	if WouldExceed(90, 100, 5) {
		t.Error("WouldExceed(90, 100, 5) = true, want false")
	}
	if !WouldExceed(90, 100, 20) {
		t.Error("WouldExceed(90, 100, 20) = false, want true")
	}
	// Exactly at the limit is allowed.
	if WouldExceed(90, 100, 10) {
		t.Error("WouldExceed(90, 100, 10) = true, want false at exact limit")
	}
	if !WouldExceed(100, 100, 1) {
		t.Error("WouldExceed(100, 100, 1) = false, want true")
	}
	// A sum that would wrap int64 must still register as exceeding.
	if !WouldExceed(math.MaxInt64-10, 100, math.MaxInt64-20) {
		t.Error("WouldExceed near MaxInt64 = false, want true")
	}
	if WouldExceed(50, 100, -10) {
		t.Error("WouldExceed with negative additional = true, want false")
	}
}

func TestValidateFileSize(t *testing.T) {
	t.Parallel()

	if err := ValidateFileSize(MaxFileSize); err != nil {
		t.Errorf("ValidateFileSize at ceiling returned error: %v", err)
	}
	if err := ValidateFileSize(0); err != nil {
		t.Errorf("ValidateFileSize(0) returned error: %v", err)
	}

	err := ValidateFileSize(MaxFileSize + 1)
	if err == nil {
		t.Fatal("ValidateFileSize above ceiling returned nil error")
	}
	if !strings.Contains(err.Error(), "500 MB") {
		t.Errorf("error %q does not name the limit", err)
	}

	if err := ValidateFileSize(-1); err == nil {
		t.Error("ValidateFileSize(-1) returned nil error")
	}
}
