package patient

import (
	"reflect"
	"testing"
	"time"
)

func TestMissingFields(t *testing.T) {
	full := CreatePatientRequest{
		RUT:        "12.345.678-5",
		FirstNames: "Ana María",
		LastNames:  "Pérez Soto",
		BirthDate:  "1990-04-12",
		Phone:      "+56911111111",
		Email:      "ana@example.cl",
	}

	if got := MissingFields(full); len(got) != 0 {
		t.Fatalf("expected none missing, got %v", got)
	}

	got := MissingFields(CreatePatientRequest{FirstNames: "  ", Email: "a@b.cl"})
	want := []string{"RUT", "first names", "last names", "birth date", "phone"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MissingFields() = %v, want %v", got, want)
	}
}

func TestAgeAt(t *testing.T) {
	birth := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2024, time.June, 14, 12, 0, 0, 0, time.UTC), 33},
		{time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), 34},
		{time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), 34},
		{time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 33},
		{time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		if got := AgeAt(birth, tt.now); got != tt.want {
			t.Fatalf("AgeAt(%v) = %d, want %d", tt.now, got, tt.want)
		}
	}
}

func TestParseBirthDate(t *testing.T) {
	now := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

	got, err := ParseBirthDate("2000-02-29", now)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected date %v", got)
	}

	if _, err := ParseBirthDate("2000-02-29T15:04:05Z", now); err != nil {
		t.Fatalf("RFC3339 should parse: %v", err)
	}

	for _, bad := range []string{"", "29/02/2000", "2025-01-01", "yesterday"} {
		if _, err := ParseBirthDate(bad, now); err != ErrBadBirthDate {
			t.Fatalf("ParseBirthDate(%q) err=%v, want ErrBadBirthDate", bad, err)
		}
	}
}

func TestApplyUpdateRecalculatesAge(t *testing.T) {
	now := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
	p := Patient{
		FirstNames: "Ana",
		BirthDate:  time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
		Age:        34,
		Phone:      "1",
	}

	name := " Ana María "
	birth := time.Date(2000, time.December, 1, 0, 0, 0, 0, time.UTC)
	ApplyUpdate(&p, UpdatePatientRequest{FirstNames: &name}, &birth, now)

	if p.FirstNames != "Ana María" {
		t.Fatalf("name not trimmed: %q", p.FirstNames)
	}
	if p.Age != 23 {
		t.Fatalf("age not recalculated: %d", p.Age)
	}
	if p.Phone != "1" {
		t.Fatal("untouched field changed")
	}
	if !p.UpdatedAt.Equal(now) {
		t.Fatal("UpdatedAt not bumped")
	}
}

func TestNewSearchResult(t *testing.T) {
	r := NewSearchResult(nil, 21, SearchFilter{Page: 2, Limit: 10})

	if r.TotalPages != 3 {
		t.Fatalf("TotalPages = %d, want 3", r.TotalPages)
	}
	if r.Data == nil {
		t.Fatal("Data must be an empty slice, not nil")
	}

	if got := NewSearchResult(nil, 0, SearchFilter{Page: 1, Limit: 10}).TotalPages; got != 0 {
		t.Fatalf("empty result TotalPages = %d", got)
	}

	if off := (SearchFilter{Page: 3, Limit: 25}).Offset(); off != 50 {
		t.Fatalf("Offset() = %d", off)
	}
}

func TestUpdateRequestEmpty(t *testing.T) {
	if !(UpdatePatientRequest{}).Empty() {
		t.Fatal("zero request should be empty")
	}
	s := "x"
	if (UpdatePatientRequest{Phone: &s}).Empty() {
		t.Fatal("request with phone should not be empty")
	}
}

func TestNewFromCreateRequest(t *testing.T) {
	now := time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)
	birth := time.Date(1984, time.May, 11, 0, 0, 0, 0, time.UTC)

	p := NewFromCreateRequest(CreatePatientRequest{
		FirstNames: " Juan ",
		LastNames:  "Soto",
		Phone:      "+56 9 1234 5678",
		Email:      "juan@example.cl",
	}, "12.345.678-5", birth, now)

	if p.ID == "" {
		t.Fatal("expected generated id")
	}
	if p.RUT != "12.345.678-5" || p.FirstNames != "Juan" {
		t.Fatalf("unexpected patient %+v", p)
	}
	if p.Age != 39 {
		t.Fatalf("Age = %d, want 39", p.Age)
	}
	if !p.CreatedAt.Equal(now) || !p.UpdatedAt.Equal(now) {
		t.Fatal("timestamps not set")
	}
}

func TestBlankFields(t *testing.T) {
	p := Patient{RUT: "12.345.678-5", FirstNames: "Ana", LastNames: "", Phone: "1", Email: "a@b.cl"}

	got := p.BlankFields()
	want := []string{"last names", "birth date"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("BlankFields() = %v, want %v", got, want)
	}
}
