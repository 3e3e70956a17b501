package llm

import (
	"fmt"
	"log/slog"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/entity"
	"github.com/phanvandien/ocr-script/internal/normalize"
)

// ParseResponse turns raw model text into a Payload: strips code fences,
// checks the items envelope, validates each item against the mode's schema and
// normalizes its fields. Items that fail validation are dropped; a response
// with no surviving items is ErrNoDataExtracted.
func ParseResponse(mode constants.Mode, text string, logger *slog.Logger) (Payload, error) {
	if logger == nil {
		logger = slog.Default()
	}
	clean := []byte(StripCodeFences(text))
	out := Payload{Mode: mode, Raw: clean}

	items, err := decodeItems(clean, logger)
	if err != nil {
		return out, err
	}

	schema, err := itemSchema(mode)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrSchemaInvalid, err)
	}

	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			out.Dropped++
			logger.Debug("llm.extract.item_dropped", "index", i, "reason", "not an object")
			continue
		}
		SanitizeItem(m, logger)
		if err := schema.Validate(m); err != nil {
			out.Dropped++
			logger.Debug("llm.extract.item_dropped", "index", i, "reason", err.Error())
			continue
		}
		rec, ok := toRecord(mode, m)
		if !ok {
			out.Dropped++
			logger.Debug("llm.extract.item_dropped", "index", i, "reason", "normalization failed")
			continue
		}
		out.Records = append(out.Records, rec)
	}

	if len(out.Records) == 0 {
		return out, fmt.Errorf("%w: %d items, none valid", ErrNoDataExtracted, len(items))
	}
	return out, nil
}

// decodeItems accepts {"items": [...]} and, leniently, a bare array.
func decodeItems(data []byte, logger *slog.Logger) ([]any, error) {
	v, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrSchemaInvalid, err)
	}
	if arr, ok := v.([]any); ok {
		logger.Warn("llm.extract.bare_array", "items", len(arr))
		return arr, nil
	}
	if err := ValidateJSONAgainstSchema(BuildEnvelopeJSONSchema(), data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaInvalid, err)
	}
	items, _ := v.(map[string]any)["items"].([]any)
	return items, nil
}

func toRecord(mode constants.Mode, m map[string]any) (entity.Record, bool) {
	switch mode {
	case constants.ModeTranscript:
		sbd := normalize.Identifier(m["sbd"])
		if !normalize.ValidIdentifier(sbd) {
			return nil, false
		}
		return entity.TranscriptRecord{
			SeatNumber: sbd,
			Score:      normalize.Score(m["score"]),
		}, true
	case constants.ModeCertificate:
		dob := normalize.Date(m["birth_date"])
		if dob == "" {
			return nil, false
		}
		return entity.CertificateRecord{
			DegreeName:         stringField(m, "degree_name"),
			Major:              stringField(m, "major"),
			IssuingInstitution: stringField(m, "issuing_institution"),
			FullName:           stringField(m, "full_name"),
			BirthDate:          dob,
		}, true
	default:
		return nil, false
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

