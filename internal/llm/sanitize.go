package llm

import (
	"log/slog"
	"strings"
)

// StripCodeFences removes a surrounding markdown code fence (``` or ```json)
// from model output. Text without fences is returned trimmed.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// language tag such as "json"
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[") {
			s = s[nl+1:]
		}
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// keySynonyms maps labels the model sometimes copies from the sheet header
// onto the field names the schema expects.
var keySynonyms = map[string]string{
	"SBD":            "sbd",
	"so_bao_danh":    "sbd",
	"số báo danh":    "sbd",
	"seat_number":    "sbd",
	"Thi":            "score",
	"thi":            "score",
	"diem":           "score",
	"điểm":           "score",
	"diem_thi":       "score",
	"ho_ten":         "full_name",
	"ho_va_ten":      "full_name",
	"họ và tên":      "full_name",
	"name":           "full_name",
	"ngay_sinh":      "birth_date",
	"ngày sinh":      "birth_date",
	"dob":            "birth_date",
	"ten_van_bang":   "degree_name",
	"nganh":          "major",
	"co_so_cap_bang": "issuing_institution",
	"institution":    "issuing_institution",
}

// SanitizeItem renames known synonyms and trims string values in place.
// It returns the renames applied.
func SanitizeItem(item map[string]any, logger *slog.Logger) []string {
	var renamed []string
	for from, to := range keySynonyms {
		v, ok := item[from]
		if !ok {
			continue
		}
		// don't overwrite a value already under the canonical key
		if _, exists := item[to]; !exists {
			item[to] = v
		}
		delete(item, from)
		renamed = append(renamed, from+"->"+to)
	}
	for k, v := range item {
		if s, ok := v.(string); ok {
			item[k] = strings.TrimSpace(s)
		}
	}
	if len(renamed) > 0 && logger != nil {
		logger.Debug("llm.extract.sanitize_renamed", "renamed", renamed)
	}
	return renamed
}
