package coerce

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFloat64(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want float64
	}{
		{"float64", 1.5, 1.5},
		{"int", 3, 3},
		{"int64", int64(-7), -7},
		{"string number", "12.25", 12.25},
		{"string garbage", "abc", 0},
		{"json number", json.Number("99.5"), 99.5},
		{"bool true", true, 1},
		{"bool false", false, 0},
		{"nil", nil, 0},
		{"map", map[string]any{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Float64(tc.in); got != tc.want {
				t.Fatalf("Float64(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestInt64(t *testing.T) {
	if got := Int64("42"); got != 42 {
		t.Fatalf("Int64(\"42\") = %d", got)
	}
	if got := Int64(7.9); got != 7 {
		t.Fatalf("Int64(7.9) = %d, want truncation to 7", got)
	}
	if got := Int64(nil); got != 0 {
		t.Fatalf("Int64(nil) = %d", got)
	}
}

func TestBool(t *testing.T) {
	for in, want := range map[string]bool{"true": true, "false": false, "nope": false} {
		if got := Bool(in); got != want {
			t.Fatalf("Bool(%q) = %v, want %v", in, got, want)
		}
	}
	if !Bool(1) || Bool(0) {
		t.Fatal("numeric Bool coercion broken")
	}
}

func TestUnixMillis(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := UnixMillis(ts.UnixMilli()); !got.Equal(ts) {
		t.Fatalf("UnixMillis round trip = %v, want %v", got, ts)
	}
	if !UnixMillis(0).IsZero() {
		t.Fatal("UnixMillis(0) should be zero time")
	}
	if !UnixMillis("garbage").IsZero() {
		t.Fatal("UnixMillis(garbage) should be zero time")
	}
}

func TestTruncate2(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{120.0, 120.0},
		{120.009, 120.0},
		{0.019999, 0.01},
		{10.555, 10.55},
		{0, 0},
	}
	for _, tc := range cases {
		if got := Truncate2(tc.in); got != tc.want {
			t.Fatalf("Truncate2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
