package entity

import (
	"encoding/json"
	"fmt"

	"github.com/phanvandien/ocr-script/constants"
)

// BatchResult is the durable record of one batch run.
type BatchResult struct {
	Success          bool           `json:"success"`
	Data             []Record       `json:"data"`
	ImageResults     []ImageOutcome `json:"image_results"`
	ProcessingType   constants.Mode `json:"processing_type"`
	ExcelFilename    string         `json:"excel_filename,omitempty"`
	SessionID        string         `json:"session_id"`
	TotalImages      int            `json:"total_images"`
	SuccessfulImages int            `json:"successful_images"`
	TotalRecords     int            `json:"total_records"`
	Error            string         `json:"error,omitempty"`
}

// NewBatchResult aggregates outcomes (already in completion order).
func NewBatchResult(sessionID string, mode constants.Mode, outcomes []ImageOutcome) *BatchResult {
	r := &BatchResult{
		Success:        true,
		ImageResults:   outcomes,
		ProcessingType: mode,
		SessionID:      sessionID,
	}
	if r.ImageResults == nil {
		r.ImageResults = []ImageOutcome{}
	}
	r.Recount()
	return r
}

// FailedBatchResult is written when the archive itself could not be processed.
func FailedBatchResult(sessionID string, mode constants.Mode, err error) *BatchResult {
	return &BatchResult{
		Success:        false,
		Data:           []Record{},
		ImageResults:   []ImageOutcome{},
		ProcessingType: mode,
		SessionID:      sessionID,
		Error:          err.Error(),
	}
}

// Recount rebuilds Data and the counters from ImageResults.
func (r *BatchResult) Recount() {
	data := make([]Record, 0)
	ok := 0
	for i := range r.ImageResults {
		o := &r.ImageResults[i]
		o.DataCount = len(o.Records)
		if o.Success {
			ok++
		}
		data = append(data, o.Records...)
	}
	r.Data = data
	r.TotalImages = len(r.ImageResults)
	r.SuccessfulImages = ok
	r.TotalRecords = len(data)
}

// UnmarshalJSON picks the record variant from processing_type.
func (r *BatchResult) UnmarshalJSON(b []byte) error {
	var w struct {
		Success          bool           `json:"success"`
		Data             json.RawMessage `json:"data"`
		ImageResults     []outcomeWire  `json:"image_results"`
		ProcessingType   constants.Mode `json:"processing_type"`
		ExcelFilename    string         `json:"excel_filename"`
		SessionID        string         `json:"session_id"`
		TotalImages      int            `json:"total_images"`
		SuccessfulImages int            `json:"successful_images"`
		TotalRecords     int            `json:"total_records"`
		Error            string         `json:"error"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	data, err := DecodeRecords(w.ProcessingType, w.Data)
	if err != nil {
		return fmt.Errorf("batch result data: %w", err)
	}
	if data == nil {
		data = []Record{}
	}
	outcomes := make([]ImageOutcome, 0, len(w.ImageResults))
	for _, ow := range w.ImageResults {
		o, err := decodeOutcome(w.ProcessingType, ow)
		if err != nil {
			return fmt.Errorf("batch result image %q: %w", ow.Filename, err)
		}
		outcomes = append(outcomes, o)
	}

	*r = BatchResult{
		Success:          w.Success,
		Data:             data,
		ImageResults:     outcomes,
		ProcessingType:   w.ProcessingType,
		ExcelFilename:    w.ExcelFilename,
		SessionID:        w.SessionID,
		TotalImages:      w.TotalImages,
		SuccessfulImages: w.SuccessfulImages,
		TotalRecords:     w.TotalRecords,
		Error:            w.Error,
	}
	return nil
}
