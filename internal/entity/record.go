package entity

import (
	"encoding/json"
	"fmt"

	"github.com/phanvandien/ocr-script/constants"
)

// Record is one validated row extracted from an image. Concrete types are
// TranscriptRecord and CertificateRecord.
type Record interface {
	Mode() constants.Mode
}

// TranscriptRecord is a seat number with its exam score.
type TranscriptRecord struct {
	SeatNumber string  `json:"sbd"`   // 5 digits
	Score      float64 `json:"score"` // 0..10
}

func (TranscriptRecord) Mode() constants.Mode { return constants.ModeTranscript }

// CertificateRecord is one degree certificate.
type CertificateRecord struct {
	DegreeName         string `json:"degree_name"`
	Major              string `json:"major"`
	IssuingInstitution string `json:"issuing_institution"`
	FullName           string `json:"full_name"`
	BirthDate          string `json:"birth_date"` // dd/mm/yyyy
}

func (CertificateRecord) Mode() constants.Mode { return constants.ModeCertificate }

// DecodeRecords decodes a JSON array of records of the given mode.
func DecodeRecords(mode constants.Mode, raw json.RawMessage) ([]Record, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch mode {
	case constants.ModeTranscript:
		var rows []TranscriptRecord
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode transcript records: %w", err)
		}
		out := make([]Record, len(rows))
		for i, r := range rows {
			out[i] = r
		}
		return out, nil
	case constants.ModeCertificate:
		var rows []CertificateRecord
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode certificate records: %w", err)
		}
		out := make([]Record, len(rows))
		for i, r := range rows {
			out[i] = r
		}
		return out, nil
	default:
		return nil, fmt.Errorf("decode records: unknown mode %q", mode)
	}
}
