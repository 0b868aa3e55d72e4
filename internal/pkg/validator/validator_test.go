package validator

import (
	"errors"
	"testing"
	"time"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b",
		"0188D0F2-7B8C-7B4A-8A2B-6B8B8B8B8B8B",
	}
	invalid := []string{
		"123e4567-e89b-12d3-a456-426614174000", // not v7
		"0188d0f27b8c7b4a8a2b6b8b8b8b8b8b",     // missing dashes
		"",
	}
	for _, uuid := range valid {
		if !IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = false, want true", uuid)
		}
	}
	for _, uuid := range invalid {
		if IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = true, want false", uuid)
		}
	}
}

func TestIsValidComponentCode(t *testing.T) {
	valid := []string{"BASE", "HRA", "SPECIAL_ALLOWANCE", "LTA2"}
	invalid := []string{"", "base", "1BASE", "HRA-1", "PAYABLE DAYS", "A234567890123456789012345678901234"}
	for _, code := range valid {
		if !IsValidComponentCode(code) {
			t.Errorf("IsValidComponentCode(%q) = false, want true", code)
		}
	}
	for _, code := range invalid {
		if IsValidComponentCode(code) {
			t.Errorf("IsValidComponentCode(%q) = true, want false", code)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31"}
	invalid := []string{"2023-13-01", "2023-01-32", "2023/01/01", "01-01-2023", ""}
	for _, s := range valid {
		if _, ok := IsValidDate(s); !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if _, ok := IsValidDate(s); ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestParseClock(t *testing.T) {
	cases := map[string]int{"00:00": 0, "10:00": 600, "14:30": 870, " 09:05 ": 545}
	for in, want := range cases {
		got, err := ParseClock(in)
		if err != nil || got != want {
			t.Errorf("ParseClock(%q) = %d, %v, want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"", "25:00", "10", "ten"} {
		if _, err := ParseClock(in); err == nil {
			t.Errorf("ParseClock(%q) expected error", in)
		}
	}
}

func TestParseMonth(t *testing.T) {
	cases := map[string]time.Month{
		"1":        time.January,
		"12":       time.December,
		"March":    time.March,
		"february": time.February,
		"Sep":      time.September,
	}
	for in, want := range cases {
		got, err := ParseMonth(in)
		if err != nil || got != want {
			t.Errorf("ParseMonth(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	for _, in := range []string{"0", "13", "Marchember", "", "ma"} {
		_, err := ParseMonth(in)
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Errorf("ParseMonth(%q) error = %v, want ValidationErrors", in, err)
		}
	}
}

func TestIsInSlice(t *testing.T) {
	slice := []string{"a", "b", "c"}
	if !IsInSlice("a", slice) {
		t.Errorf("IsInSlice('a') = false, want true")
	}
	if IsInSlice("d", slice) {
		t.Errorf("IsInSlice('d') = true, want false")
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "month", Message: "invalid"},
		{Field: "year", Message: "required"},
	}
	want := "month: invalid; year: required"
	if errs.Error() != want {
		t.Errorf("ValidationErrors.Error() = %q, want %q", errs.Error(), want)
	}
	m := errs.ToMap()
	if m["month"] != "invalid" || m["year"] != "required" {
		t.Errorf("ValidationErrors.ToMap() = %v", m)
	}
}

type structSample struct {
	Code     string `json:"code" validate:"required,componentcode"`
	StartsAt string `json:"starts_at" validate:"required,hhmm"`
	Day      string `json:"day" validate:"omitempty,date"`
	Kind     string `json:"kind" validate:"oneof=EARNING DEDUCTION"`
}

func TestStruct(t *testing.T) {
	ok := structSample{Code: "HRA", StartsAt: "10:00", Day: "2024-02-29", Kind: "EARNING"}
	if err := Struct(ok); err != nil {
		t.Fatalf("Struct(valid) = %v", err)
	}

	bad := structSample{Code: "hra", StartsAt: "25:61", Day: "2024-02-30", Kind: "BONUS"}
	err := Struct(bad)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Struct(invalid) error = %T, want ValidationErrors", err)
	}
	m := verrs.ToMap()
	for _, field := range []string{"code", "starts_at", "day", "kind"} {
		if _, found := m[field]; !found {
			t.Errorf("expected validation error for %q, got %v", field, m)
		}
	}
}
