// Package export projects batch results onto the institutional spreadsheet layout.
package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/common"
	"github.com/phanvandien/ocr-script/internal/entity"
)

const (
	sheet             = "Sheet1"
	maxFilenameLength = 100
	xlsxExt           = ".xlsx"
	numFmtText        = 49 // "@"
)

// TranscriptHeaders is the fixed column layout for transcript exports.
var TranscriptHeaders = []string{
	"TT", "Lớp môn nhập AAIS", "Tài khoản", "SBD", "Lớp", "MSSV", "Họ và tên", "Ngày sinh",
	"X", "QT", "KT", "Thi", "Điểm học phần", "Thang điểm chữ", "Thang điểm 4", "Ghi chú",
}

// CertificateHeaders is the column layout for certificate exports.
var CertificateHeaders = []string{
	"TT", "Họ và tên", "Ngày sinh", "Tên văn bằng", "Ngành", "Cơ sở cấp bằng",
}

// Service produces XLSX bytes for stored batch results.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Workbook renders the flattened records of res, one row each, in order.
// Columns without a source stay blank.
func (s *Service) Workbook(res *entity.BatchResult) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_failed", "error", err)
		}
	}()

	headers := TranscriptHeaders
	if res.ProcessingType == constants.ModeCertificate {
		headers = CertificateHeaders
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
	}

	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtText})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}
	scoreFmt := "0.0"
	scoreStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &scoreFmt})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}

	for i, rec := range res.Data {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		styled := func(col, style int) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellStyle(sheet, cell, cell, style)
		}

		write(1, i+1)
		switch r := rec.(type) {
		case entity.TranscriptRecord:
			write(4, r.SeatNumber)
			styled(4, textStyle)
			write(12, r.Score)
			styled(12, scoreStyle)
		case entity.CertificateRecord:
			write(2, r.FullName)
			write(3, r.BirthDate)
			styled(3, textStyle)
			write(4, r.DegreeName)
			write(5, r.Major)
			write(6, r.IssuingInstitution)
		}
	}

	if res.ProcessingType == constants.ModeCertificate {
		_ = f.SetColWidth(sheet, "A", "A", 6)
		_ = f.SetColWidth(sheet, "B", "B", 28)
		_ = f.SetColWidth(sheet, "C", "C", 14)
		_ = f.SetColWidth(sheet, "D", "F", 32)
	} else {
		_ = f.SetColWidth(sheet, "A", "A", 6)
		_ = f.SetColWidth(sheet, "B", "C", 18)
		_ = f.SetColWidth(sheet, "D", "D", 10)
		_ = f.SetColWidth(sheet, "G", "G", 24)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"session_id", res.SessionID,
		"mode", res.ProcessingType,
		"rows", len(res.Data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// CleanFilename trims name, defaults it, and enforces the .xlsx suffix and
// length cap.
func CleanFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return constants.DefaultExcelFilename, nil
	}
	if !strings.HasSuffix(strings.ToLower(name), xlsxExt) {
		name += xlsxExt
	}
	if utf8.RuneCountInString(name) > maxFilenameLength {
		return "", common.NewAppError("INVALID_FILENAME",
			fmt.Sprintf("filename must be at most %d characters", maxFilenameLength), common.ErrInvalidInput)
	}
	return name, nil
}
