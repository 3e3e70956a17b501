package entity

import (
	"time"

	"github.com/phanvandien/ocr-script/constants"
)

// ProgressEvent is the latest status of a session. Each event replaces the previous one.
type ProgressEvent struct {
	Current    int                  `json:"current"`
	Total      int                  `json:"total"`
	Percentage int                  `json:"percentage"`
	Message    string               `json:"message"`
	Status     constants.TaskStatus `json:"status"`
	Timestamp  time.Time            `json:"timestamp"`
}

// NewProgressEvent computes the percentage; a zero total reports 0%.
func NewProgressEvent(current, total int, message string, status constants.TaskStatus) ProgressEvent {
	pct := 0
	if total > 0 {
		pct = current * 100 / total
	}
	return ProgressEvent{
		Current:    current,
		Total:      total,
		Percentage: pct,
		Message:    message,
		Status:     status,
		Timestamp:  time.Now().UTC(),
	}
}
