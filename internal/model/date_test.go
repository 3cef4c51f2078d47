package model

import (
	"testing"
	"time"
)

func TestDateOfKeepsCivilDate(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2024-03-01 23:30 UTC is already 2024-03-02 in Tokyo.
	ts := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC).In(tokyo)
	got := DateOf(ts)
	want := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("DateOf = %v, want %v", got, want)
	}
}

func TestParseAndFormatDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got := FormatDate(d); got != "2024-02-29" {
		t.Fatalf("FormatDate = %q", got)
	}
	if _, err := ParseDate("29.02.2024"); err == nil {
		t.Fatal("expected error for non ISO date")
	}
}

func TestTaskIsTemplate(t *testing.T) {
	daily := RecurrenceDaily
	empty := ""
	cases := []struct {
		name string
		task Task
		want bool
	}{
		{"nil recurrence", Task{}, false},
		{"empty recurrence", Task{Recurrence: &empty}, false},
		{"daily", Task{Recurrence: &daily}, true},
	}
	for _, tc := range cases {
		if got := tc.task.IsTemplate(); got != tc.want {
			t.Errorf("%s: IsTemplate = %v, want %v", tc.name, got, tc.want)
		}
	}
}
