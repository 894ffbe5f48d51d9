package pages

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		start, end, count int
		wantStart         int
		wantEnd           int
	}{
		{5, 3, 10, 5, 5},
		{0, 100, 10, 1, 10},
		{1, 1, 1, 1, 1},
		{3, 7, 10, 3, 7},
		{12, 15, 10, 10, 10},
		{-4, -2, 3, 1, 1},
		{2, 100, 2, 2, 2},
	}
	for _, tc := range tests {
		s, e := Resolve(tc.start, tc.end, tc.count)
		if s != tc.wantStart || e != tc.wantEnd {
			t.Errorf("Resolve(%d, %d, %d): expected (%d, %d), got (%d, %d)",
				tc.start, tc.end, tc.count, tc.wantStart, tc.wantEnd, s, e)
		}
		if s < 1 || s > e || e > tc.count {
			t.Errorf("Resolve(%d, %d, %d): bounds violated (%d, %d)", tc.start, tc.end, tc.count, s, e)
		}
	}
}

func TestResolve_NoPages(t *testing.T) {
	s, e := Resolve(1, 5, 0)
	if s != 0 || e != 0 {
		t.Errorf("expected (0, 0) for empty document, got (%d, %d)", s, e)
	}
	if got := ResolveSpan(1, 5, 0); len(got) != 0 {
		t.Errorf("expected no pages, got %v", got)
	}
}

func TestResolveSpan(t *testing.T) {
	got := ResolveSpan(8, 20, 10)
	want := []int{8, 9, 10}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("page[%d]: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestParseList(t *testing.T) {
	got, err := ParseList("3, 1,,12, 0, 3 ", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{3, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("page[%d]: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestParseList_Invalid(t *testing.T) {
	for _, in := range []string{"1,two", "1-3", "a"} {
		if _, err := ParseList(in, 10); !errors.Is(err, ErrInvalidPageList) {
			t.Errorf("ParseList(%q): expected ErrInvalidPageList, got %v", in, err)
		}
	}
}

func TestValidateList(t *testing.T) {
	if err := ValidateList("1,2,3"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateList("1;2"); !errors.Is(err, ErrInvalidPageList) {
		t.Errorf("expected ErrInvalidPageList, got %v", err)
	}
}
