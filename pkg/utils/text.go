// Package utils provides shared helpers for text, numbers and logging.
package utils

import "strings"

// Truncate returns s cut to maxLen bytes with "..." appended when shortened.
// A non-positive maxLen returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// OrDefault returns s, or def when s is blank.
func OrDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
