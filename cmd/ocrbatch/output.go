package main

import (
	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/entity"
)

type imageSummary struct {
	Filename  string `json:"filename"`
	Success   bool   `json:"success"`
	DataCount int    `json:"data_count"`
	Error     string `json:"error,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
}

type batchSummary struct {
	SessionID        string         `json:"session_id"`
	Success          bool           `json:"success"`
	ProcessingType   constants.Mode `json:"processing_type"`
	ExcelFilename    string         `json:"excel_filename,omitempty"`
	TotalImages      int            `json:"total_images"`
	SuccessfulImages int            `json:"successful_images"`
	TotalRecords     int            `json:"total_records"`
	Error            string         `json:"error,omitempty"`
	Images           []imageSummary `json:"images"`
}

// summaryOf drops the record payloads; they go to the spreadsheet.
func summaryOf(res *entity.BatchResult) batchSummary {
	s := batchSummary{
		SessionID:        res.SessionID,
		Success:          res.Success,
		ProcessingType:   res.ProcessingType,
		ExcelFilename:    res.ExcelFilename,
		TotalImages:      res.TotalImages,
		SuccessfulImages: res.SuccessfulImages,
		TotalRecords:     res.TotalRecords,
		Error:            res.Error,
		Images:           make([]imageSummary, 0, len(res.ImageResults)),
	}
	for _, o := range res.ImageResults {
		s.Images = append(s.Images, imageSummary{
			Filename:  o.Filename,
			Success:   o.Success,
			DataCount: o.DataCount,
			Error:     o.Error,
			ImagePath: o.ImagePath,
		})
	}
	return s
}
