package envutil

import (
	"testing"
	"time"
)

func TestDurationParsesSecondsAndGoSyntax(t *testing.T) {
	t.Setenv("PO_TEST_DURATION", "45")
	if got := Duration("PO_TEST_DURATION", time.Second); got != 45*time.Second {
		t.Fatalf("Duration(45)=%v", got)
	}
	t.Setenv("PO_TEST_DURATION", "1500ms")
	if got := Duration("PO_TEST_DURATION", time.Second); got != 1500*time.Millisecond {
		t.Fatalf("Duration(1500ms)=%v", got)
	}
	t.Setenv("PO_TEST_DURATION", "soon")
	if got := Duration("PO_TEST_DURATION", time.Second); got != time.Second {
		t.Fatalf("Duration(invalid)=%v, want default", got)
	}
}

func TestBoolFallsBackOnGarbage(t *testing.T) {
	t.Setenv("PO_TEST_BOOL", "maybe")
	if got := Bool("PO_TEST_BOOL", true); !got {
		t.Fatalf("Bool(maybe) should keep default")
	}
	t.Setenv("PO_TEST_BOOL", "off")
	if got := Bool("PO_TEST_BOOL", true); got {
		t.Fatalf("Bool(off) should be false")
	}
}

func TestIntAndFloat(t *testing.T) {
	t.Setenv("PO_TEST_INT", " 12 ")
	if got := Int("PO_TEST_INT", 3); got != 12 {
		t.Fatalf("Int=%d", got)
	}
	t.Setenv("PO_TEST_FLOAT", "0.25")
	if got := Float("PO_TEST_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float=%v", got)
	}
	if got := String("PO_TEST_UNSET_STRING", "fallback"); got != "fallback" {
		t.Fatalf("String=%q", got)
	}
}
