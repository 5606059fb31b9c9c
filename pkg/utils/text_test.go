package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestOrDefault(t *testing.T) {
	tests := []struct {
		in, def, want string
	}{
		{"Ergo Chair", "N/A", "Ergo Chair"},
		{"", "N/A", "N/A"},
		{"   ", "N/A", "N/A"},
	}
	for _, tt := range tests {
		if got := OrDefault(tt.in, tt.def); got != tt.want {
			t.Errorf("OrDefault(%q, %q) = %q, want %q", tt.in, tt.def, got, tt.want)
		}
	}
}
