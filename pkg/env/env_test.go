package env

import "testing"

func TestGetFallsBack(t *testing.T) {
	t.Setenv("PD_TEST_GET", "")
	if got := Get("PD_TEST_GET", "fallback"); got != "fallback" {
		t.Fatalf("Get = %q, want fallback", got)
	}

	t.Setenv("PD_TEST_GET", "set")
	if got := Get("PD_TEST_GET", "fallback"); got != "set" {
		t.Fatalf("Get = %q, want set", got)
	}
}

func TestBool(t *testing.T) {
	cases := map[string]bool{
		"1":     true,
		"true":  true,
		"YES":   true,
		"on":    true,
		" TRUE ": true,
		"0":     false,
		"false": false,
		"nope":  false,
	}
	for value, want := range cases {
		t.Setenv("PD_TEST_BOOL", value)
		if got := Bool("PD_TEST_BOOL", !want); got != want {
			t.Errorf("Bool(%q) = %v, want %v", value, got, want)
		}
	}

	t.Setenv("PD_TEST_BOOL", "")
	if !Bool("PD_TEST_BOOL", true) {
		t.Error("empty value should return the fallback")
	}
}
