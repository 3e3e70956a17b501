package constants

import (
	"fmt"
	"strings"
)

// Mode selects the record schema for a batch run.
type Mode string

const (
	ModeTranscript  Mode = "transcript"
	ModeCertificate Mode = "certificate"
)

var allModes = []Mode{ModeTranscript, ModeCertificate}

// AsStringSlice lists the accepted mode names.
func AsStringSlice() []string {
	result := make([]string, len(allModes))
	for i, m := range allModes {
		result[i] = string(m)
	}
	return result
}

// ParseMode accepts a mode name case-insensitively, plus the Vietnamese labels
// shown on the upload form.
func ParseMode(input string) (Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Mode{
		"bảng điểm": ModeTranscript,
		"bang diem": ModeTranscript,
		"văn bằng":  ModeCertificate,
		"van bang":  ModeCertificate,
	}
	if m, ok := synonyms[normalized]; ok {
		return m, nil
	}
	for _, m := range allModes {
		if normalized == string(m) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown processing mode %q (want one of %s)", input, strings.Join(AsStringSlice(), ", "))
}
