package identity

import (
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Role
		ok   bool
	}{
		{"user", RoleUser, true},
		{"admin", RoleAdmin, true},
		{"", "", false},
		{"Admin", "", false},
		{"superuser", "", false},
	} {
		got, err := ParseRole(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseRole(%q)=%q,%v want=%q", tc.in, got, err, tc.want)
		}
		if !tc.ok && !IsInvalidInput(err) {
			t.Fatalf("ParseRole(%q): expected invalid input, got %v", tc.in, err)
		}
	}
}

func TestNewULID(t *testing.T) {
	earlier, err := NewULID(time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}
	later, err := NewULID(time.Now().UTC())
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}

	if len(earlier) != 26 || len(later) != 26 {
		t.Fatalf("expected 26-char ids, got %d and %d", len(earlier), len(later))
	}
	// Timestamp prefix keeps ids sortable by creation time.
	if earlier >= later {
		t.Fatalf("expected %q < %q", earlier, later)
	}
}
