package task

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-28")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if d != (Date{Year: 2026, Month: time.February, Day: 28}) {
		t.Errorf("ParseDate() = %+v", d)
	}
	if got := d.AddDays(1).String(); got != "2026-03-01" {
		t.Errorf("AddDays(1) = %s, want 2026-03-01", got)
	}

	for _, bad := range []string{"", "2026-13-01", "17/10/2026", "tomorrow"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestDate_Ordering(t *testing.T) {
	a := Date{Year: 2026, Month: 10, Day: 17}
	b := a.AddDays(1)

	if !a.Before(b) || a.After(b) {
		t.Errorf("expected %s before %s", a, b)
	}
	if a.Before(a) || a.After(a) {
		t.Errorf("a date is neither before nor after itself")
	}
}

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		Due Date `json:"due"`
	}

	data, err := json.Marshal(wrapper{Due: Date{Year: 2026, Month: 1, Day: 5}})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"due":"2026-01-05"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"due":"bad"}`), &w); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestDate_Scan(t *testing.T) {
	var d Date
	if err := d.Scan("2026-07-04"); err != nil {
		t.Fatalf("Scan(string) error = %v", err)
	}
	if d.String() != "2026-07-04" {
		t.Errorf("Scan(string) = %s", d)
	}
	if err := d.Scan([]byte("2026-07-05")); err != nil || d.Day != 5 {
		t.Errorf("Scan([]byte) = %s, %v", d, err)
	}
	if err := d.Scan(nil); err != nil || !d.IsZero() {
		t.Errorf("Scan(nil) = %s, %v", d, err)
	}
	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
