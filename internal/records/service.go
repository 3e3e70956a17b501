// Package records reads and amends stored batch results.
package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/common"
	"github.com/phanvandien/ocr-script/internal/core"
	"github.com/phanvandien/ocr-script/internal/entity"
	"github.com/phanvandien/ocr-script/internal/media"
	"github.com/phanvandien/ocr-script/internal/normalize"
	"github.com/phanvandien/ocr-script/internal/store"
)

const maxTextField = 200

type Service struct {
	store     store.Store
	worker    core.ImageProcessor
	resultTTL time.Duration
	logger    *slog.Logger

	mu sync.Mutex // serializes read-modify-write of results
}

func NewService(s store.Store, worker core.ImageProcessor, resultTTL time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if resultTTL <= 0 {
		resultTTL = 2 * time.Hour
	}
	return &Service{store: s, worker: worker, resultTTL: resultTTL, logger: logger}
}

// Get returns the stored result of a session.
func (s *Service) Get(ctx context.Context, sessionID string) (*entity.BatchResult, error) {
	var res entity.BatchResult
	if err := store.GetJSON(ctx, s.store, store.ResultKey(sessionID), &res); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, common.NotFoundErrorf("no result for session %s", sessionID)
		}
		return nil, common.InternalErrorf("read result: %v", err)
	}
	return &res, nil
}

// Edit replaces fields of the index-th flattened record and rewrites the result.
func (s *Service) Edit(ctx context.Context, sessionID string, index int, fields map[string]any) (*entity.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	oi, ri, ok := locate(res, index)
	if !ok {
		return nil, common.InvalidArgumentErrorf("record index %d out of range (0..%d)", index, res.TotalRecords-1)
	}
	outcome := &res.ImageResults[oi]

	updated, err := applyFields(outcome.Records[ri], fields)
	if err != nil {
		return nil, err
	}
	outcome.Records[ri] = updated
	res.Recount()

	if err := s.save(ctx, res); err != nil {
		return nil, err
	}
	s.logger.Info("records.edit.ok", "session_id", sessionID, "index", index, "filename", outcome.Filename)
	return res, nil
}

// ReplaceImage re-runs extraction for one image of a session and swaps its outcome.
func (s *Service) ReplaceImage(ctx context.Context, sessionID, filename string, data []byte) (*entity.BatchResult, error) {
	if s.worker == nil {
		return nil, common.InternalError("image replacement is not configured")
	}
	v := common.NewValidator().Field("filename", filename, common.Required)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, common.InvalidArgumentErrorf("image %s is empty", filename)
	}
	if int64(len(data)) > constants.MaxEntryBytes {
		return nil, common.InvalidArgumentErrorf("image %s is larger than %d bytes", filename, constants.MaxEntryBytes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	pos := -1
	for i, o := range res.ImageResults {
		if o.Filename == filename {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, common.NotFoundErrorf("image %s not in session %s", filename, sessionID)
	}

	key := res.ImageResults[pos].ImageKey
	if key == "" {
		key = media.ReplacementKey(sessionID, filename, path.Ext(filename))
	}
	out := s.worker.Process(ctx, core.WorkItem{
		SessionID: sessionID,
		Index:     pos,
		Name:      filename,
		Data:      data,
		Mode:      res.ProcessingType,
		MediaKey:  key,
	})
	res.ImageResults[pos] = out
	res.Recount()

	if err := s.save(ctx, res); err != nil {
		return nil, err
	}
	s.logger.Info("records.replace_image.ok", "session_id", sessionID, "filename", filename, "success", out.Success, "records", out.DataCount)
	return res, nil
}

func (s *Service) save(ctx context.Context, res *entity.BatchResult) error {
	if err := store.SetJSON(ctx, s.store, store.ResultKey(res.SessionID), res, s.resultTTL); err != nil {
		s.logger.Error("records.save_failed", "session_id", res.SessionID, "error", err)
		return common.InternalErrorf("write result: %v", err)
	}
	return nil
}

// locate maps a flattened record index to (outcome, record) positions.
func locate(res *entity.BatchResult, index int) (int, int, bool) {
	if index < 0 {
		return 0, 0, false
	}
	for oi, o := range res.ImageResults {
		if index < len(o.Records) {
			return oi, index, true
		}
		index -= len(o.Records)
	}
	return 0, 0, false
}

func applyFields(rec entity.Record, fields map[string]any) (entity.Record, error) {
	v := common.NewValidator()
	switch r := rec.(type) {
	case entity.TranscriptRecord:
		for key, raw := range fields {
			switch key {
			case "sbd":
				r.SeatNumber = normalize.Identifier(raw)
				v.Field("sbd", r.SeatNumber, common.SeatNumber)
			case "score":
				r.Score = normalize.ClampScore(normalize.Score(raw))
			default:
				return nil, common.InvalidArgumentErrorf("unknown transcript field %q", key)
			}
		}
		if err := common.ValidateAndReturnError(v); err != nil {
			return nil, err
		}
		return r, nil
	case entity.CertificateRecord:
		for key, raw := range fields {
			text := strings.TrimSpace(fmt.Sprint(raw))
			switch key {
			case "birth_date":
				r.BirthDate = normalize.Date(text)
				v.Field("birth_date", r.BirthDate, common.DayMonthYear)
			case "full_name":
				r.FullName = text
				v.Field("full_name", text, common.Required, common.MaxLength(maxTextField))
			case "degree_name":
				r.DegreeName = text
				v.Field("degree_name", text, common.MaxLength(maxTextField))
			case "major":
				r.Major = text
				v.Field("major", text, common.MaxLength(maxTextField))
			case "issuing_institution":
				r.IssuingInstitution = text
				v.Field("issuing_institution", text, common.MaxLength(maxTextField))
			default:
				return nil, common.InvalidArgumentErrorf("unknown certificate field %q", key)
			}
		}
		if err := common.ValidateAndReturnError(v); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, common.InternalErrorf("unsupported record type %T", rec)
	}
}

// Filter narrows records by case-insensitive substrings. Empty fields match everything.
type Filter struct {
	SeatNumber string
	FullName   string
	Major      string
}

// Match is a record with its flattened index, usable with Edit.
type Match struct {
	Index  int           `json:"index"`
	Record entity.Record `json:"record"`
}

func (f Filter) matches(rec entity.Record) bool {
	contains := func(have, want string) bool {
		return want == "" || strings.Contains(strings.ToLower(have), strings.ToLower(strings.TrimSpace(want)))
	}
	switch r := rec.(type) {
	case entity.TranscriptRecord:
		return contains(r.SeatNumber, f.SeatNumber) && f.FullName == "" && f.Major == ""
	case entity.CertificateRecord:
		return contains(r.FullName, f.FullName) && contains(r.Major, f.Major) && f.SeatNumber == ""
	default:
		return false
	}
}

// Apply returns the records of res that satisfy f, in flattened order.
func (f Filter) Apply(res *entity.BatchResult) []Match {
	var out []Match
	for i, rec := range res.Data {
		if f.matches(rec) {
			out = append(out, Match{Index: i, Record: rec})
		}
	}
	return out
}

// SortedFields lists the editable field names for mode.
func SortedFields(mode constants.Mode) []string {
	var fields []string
	if mode == constants.ModeCertificate {
		fields = []string{"birth_date", "full_name", "degree_name", "major", "issuing_institution"}
	} else {
		fields = []string{"sbd", "score"}
	}
	sort.Strings(fields)
	return fields
}
