package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{"unset returns default", "", true, true},
		{"true", "true", false, true},
		{"one", "1", false, true},
		{"yes with spaces", "  yes  ", false, true},
		{"on uppercase", "ON", false, true},
		{"false", "false", true, false},
		{"zero", "0", true, false},
		{"off", "off", true, false},
		{"garbage returns default", "maybe", true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.value != "" {
				t.Setenv("TEST_BOOL", tc.value)
			}
			if got := ParseBoolEnv("TEST_BOOL", tc.def); got != tc.expected {
				t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tc.value, tc.def, got, tc.expected)
			}
		})
	}
}

func TestParseFloatEnv(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.4")
	if got := ParseFloatEnv("TEST_FLOAT", 0.25); got != 0.4 {
		t.Errorf("expected 0.4, got %v", got)
	}
	t.Setenv("TEST_FLOAT", "not-a-number")
	if got := ParseFloatEnv("TEST_FLOAT", 0.25); got != 0.25 {
		t.Errorf("expected default 0.25, got %v", got)
	}
	if got := ParseFloatEnv("TEST_FLOAT_UNSET", 0.25); got != 0.25 {
		t.Errorf("expected default for unset, got %v", got)
	}
}

func TestParseIntEnv(t *testing.T) {
	t.Setenv("TEST_INT", "30")
	if got := ParseIntEnv("TEST_INT", 20); got != 30 {
		t.Errorf("expected 30, got %v", got)
	}
	t.Setenv("TEST_INT", "twenty")
	if got := ParseIntEnv("TEST_INT", 20); got != 20 {
		t.Errorf("expected default 20, got %v", got)
	}
}
