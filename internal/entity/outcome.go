package entity

import (
	"encoding/json"

	"github.com/phanvandien/ocr-script/constants"
)

// ImageOutcome is what a worker reports for one archive image.
type ImageOutcome struct {
	Filename  string   `json:"filename"`
	Success   bool     `json:"success"`
	Records   []Record `json:"records"`
	DataCount int      `json:"data_count"`
	Error     string   `json:"error,omitempty"`
	ImagePath string   `json:"image_path,omitempty"` // empty when the copy could not be stored
	ImageKey  string   `json:"image_key,omitempty"`  // media key of the stored copy
}

// Succeeded builds a success outcome.
func Succeeded(filename string, records []Record, imagePath string) ImageOutcome {
	if records == nil {
		records = []Record{}
	}
	return ImageOutcome{
		Filename:  filename,
		Success:   true,
		Records:   records,
		DataCount: len(records),
		ImagePath: imagePath,
	}
}

// Failed builds a failure outcome carrying reason.
func Failed(filename, reason, imagePath string) ImageOutcome {
	return ImageOutcome{
		Filename:  filename,
		Success:   false,
		Records:   []Record{},
		Error:     reason,
		ImagePath: imagePath,
	}
}

type outcomeWire struct {
	Filename  string          `json:"filename"`
	Success   bool            `json:"success"`
	Records   json.RawMessage `json:"records"`
	DataCount int             `json:"data_count"`
	Error     string          `json:"error,omitempty"`
	ImagePath string          `json:"image_path,omitempty"`
	ImageKey  string          `json:"image_key,omitempty"`
}

func decodeOutcome(mode constants.Mode, w outcomeWire) (ImageOutcome, error) {
	recs, err := DecodeRecords(mode, w.Records)
	if err != nil {
		return ImageOutcome{}, err
	}
	if recs == nil {
		recs = []Record{}
	}
	return ImageOutcome{
		Filename:  w.Filename,
		Success:   w.Success,
		Records:   recs,
		DataCount: w.DataCount,
		Error:     w.Error,
		ImagePath: w.ImagePath,
		ImageKey:  w.ImageKey,
	}, nil
}
