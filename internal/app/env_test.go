package app

import (
	"testing"
	"time"
)

func TestEnvString(t *testing.T) {
	t.Setenv("AEGIS_TEST_STR", "  value  ")
	if got := EnvString("AEGIS_TEST_STR", "def"); got != "value" {
		t.Fatalf("got %q", got)
	}
	if got := EnvString("AEGIS_TEST_STR_MISSING", "def"); got != "def" {
		t.Fatalf("got %q", got)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("AEGIS_TEST_BOOL", "true")
	if !EnvBool("AEGIS_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("AEGIS_TEST_BOOL", "not-a-bool")
	if !EnvBool("AEGIS_TEST_BOOL", true) {
		t.Fatalf("expected default on parse failure")
	}
	if EnvBool("AEGIS_TEST_BOOL_MISSING", false) {
		t.Fatalf("expected default false")
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("AEGIS_TEST_INT", "42")
	if got := EnvInt("AEGIS_TEST_INT", 7); got != 42 {
		t.Fatalf("got %d", got)
	}
	t.Setenv("AEGIS_TEST_INT", "-3")
	if got := EnvInt("AEGIS_TEST_INT", 7); got != 7 {
		t.Fatalf("expected default for non-positive, got %d", got)
	}
	t.Setenv("AEGIS_TEST_INT", "abc")
	if got := EnvInt("AEGIS_TEST_INT", 7); got != 7 {
		t.Fatalf("expected default on parse failure, got %d", got)
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("AEGIS_TEST_DUR", "90s")
	if got := EnvDuration("AEGIS_TEST_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("got %v", got)
	}
	t.Setenv("AEGIS_TEST_DUR", "-1m")
	if got := EnvDuration("AEGIS_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("expected default for non-positive, got %v", got)
	}
}
