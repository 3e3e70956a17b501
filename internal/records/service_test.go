package records

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/core"
	"github.com/phanvandien/ocr-script/internal/entity"
	"github.com/phanvandien/ocr-script/internal/media"
	"github.com/phanvandien/ocr-script/internal/store"
)

type fixedWorker struct {
	out  entity.ImageOutcome
	seen []core.WorkItem
}

func (w *fixedWorker) Process(_ context.Context, item core.WorkItem) entity.ImageOutcome {
	w.seen = append(w.seen, item)
	o := w.out
	o.Filename = item.Name
	return o
}

func seedTranscript(t *testing.T, s store.Store) {
	t.Helper()
	res := entity.NewBatchResult("sess", constants.ModeTranscript, []entity.ImageOutcome{
		entity.Succeeded("a.jpg", []entity.Record{
			entity.TranscriptRecord{SeatNumber: "00001", Score: 5},
			entity.TranscriptRecord{SeatNumber: "00002", Score: 6},
		}, ""),
		entity.Failed("b.jpg", "no data extracted", ""),
		entity.Succeeded("c.jpg", []entity.Record{
			entity.TranscriptRecord{SeatNumber: "12345", Score: 7.5},
		}, ""),
	})
	require.NoError(t, store.SetJSON(context.Background(), s, store.ResultKey("sess"), res, time.Hour))
}

func newService(t *testing.T, w core.ImageProcessor) (*Service, store.Store) {
	t.Helper()
	s := store.NewMemory()
	t.Cleanup(func() { _ = s.Close() })
	return NewService(s, w, time.Hour, nil), s
}

func TestGetUnknownSession(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestEditTranscriptNormalizesAndClamps(t *testing.T) {
	svc, s := newService(t, nil)
	seedTranscript(t, s)
	ctx := context.Background()

	res, err := svc.Edit(ctx, "sess", 2, map[string]any{"sbd": "SBD-77", "score": "12"})
	require.NoError(t, err)
	assert.Equal(t, entity.TranscriptRecord{SeatNumber: "00077", Score: 10}, res.Data[2])

	reread, err := svc.Get(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, res.Data, reread.Data)
	assert.Equal(t, entity.TranscriptRecord{SeatNumber: "00077", Score: 10}, reread.ImageResults[2].Records[0])
}

func TestEditRejectsBadInput(t *testing.T) {
	svc, s := newService(t, nil)
	seedTranscript(t, s)
	ctx := context.Background()

	_, err := svc.Edit(ctx, "sess", 0, map[string]any{"sbd": "no digits"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.Edit(ctx, "sess", 3, map[string]any{"score": 1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.Edit(ctx, "sess", 0, map[string]any{"mssv": "1"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.Edit(ctx, "nope", 0, map[string]any{"score": 1})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestEditCertificate(t *testing.T) {
	svc, s := newService(t, nil)
	ctx := context.Background()
	res := entity.NewBatchResult("cert", constants.ModeCertificate, []entity.ImageOutcome{
		entity.Succeeded("x.png", []entity.Record{entity.CertificateRecord{FullName: "A", BirthDate: "01/01/2000"}}, ""),
	})
	require.NoError(t, store.SetJSON(ctx, s, store.ResultKey("cert"), res, time.Hour))

	got, err := svc.Edit(ctx, "cert", 0, map[string]any{"birth_date": "15 tháng 3 năm 2001", "major": "  Luật  "})
	require.NoError(t, err)
	rec := got.Data[0].(entity.CertificateRecord)
	assert.Equal(t, "15/03/2001", rec.BirthDate)
	assert.Equal(t, "Luật", rec.Major)

	_, err = svc.Edit(ctx, "cert", 0, map[string]any{"birth_date": "soon"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = svc.Edit(ctx, "cert", 0, map[string]any{"full_name": " "})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestReplaceImage(t *testing.T) {
	w := &fixedWorker{out: entity.Succeeded("", []entity.Record{
		entity.TranscriptRecord{SeatNumber: "55555", Score: 9},
		entity.TranscriptRecord{SeatNumber: "66666", Score: 8},
	}, "media/sess/001_b.jpg")}
	svc, s := newService(t, w)
	seedTranscript(t, s)

	res, err := svc.ReplaceImage(context.Background(), "sess", "b.jpg", []byte("new scan"))
	require.NoError(t, err)
	require.Len(t, w.seen, 1)
	assert.Equal(t, 1, w.seen[0].Index)
	assert.Equal(t, constants.ModeTranscript, w.seen[0].Mode)
	assert.Equal(t, "sess/replaced/b.jpg", w.seen[0].MediaKey)

	assert.Equal(t, 3, res.SuccessfulImages)
	assert.Equal(t, 5, res.TotalRecords)
	assert.Equal(t, "55555", res.Data[2].(entity.TranscriptRecord).SeatNumber)
	assert.Equal(t, "media/sess/001_b.jpg", res.ImageResults[1].ImagePath)

	_, err = svc.ReplaceImage(context.Background(), "sess", "zzz.jpg", []byte("x"))
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = svc.ReplaceImage(context.Background(), "sess", "b.jpg", nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestFilter(t *testing.T) {
	res := entity.NewBatchResult("c", constants.ModeCertificate, []entity.ImageOutcome{
		entity.Succeeded("1.jpg", []entity.Record{
			entity.CertificateRecord{FullName: "Nguyễn Văn An", Major: "Kế toán"},
			entity.CertificateRecord{FullName: "Trần Bình", Major: "Luật kinh tế"},
		}, ""),
		entity.Succeeded("2.jpg", []entity.Record{
			entity.CertificateRecord{FullName: "Lê Văn Cường", Major: "Luật"},
		}, ""),
	})

	got := Filter{Major: "luật"}.Apply(res)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, 2, got[1].Index)

	got = Filter{FullName: "văn", Major: "LUẬT"}.Apply(res)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Index)

	assert.Len(t, Filter{}.Apply(res), 3)
	assert.Empty(t, Filter{SeatNumber: "1"}.Apply(res))
}

func TestSortedFields(t *testing.T) {
	assert.Equal(t, []string{"sbd", "score"}, SortedFields(constants.ModeTranscript))
	assert.Contains(t, SortedFields(constants.ModeCertificate), "birth_date")
}

func TestReplaceImageKeepsStoredMediaKey(t *testing.T) {
	w := &fixedWorker{out: entity.Succeeded("", []entity.Record{
		entity.TranscriptRecord{SeatNumber: "77777", Score: 6},
	}, "")}
	svc, s := newService(t, w)

	// completion order differs from the archive order the keys were built from
	first := entity.Succeeded("b/scan.jpg", []entity.Record{entity.TranscriptRecord{SeatNumber: "00002", Score: 4}}, "m/sess/001_scan.jpg")
	first.ImageKey = "sess/001_scan.jpg"
	second := entity.Succeeded("a/scan.jpg", []entity.Record{entity.TranscriptRecord{SeatNumber: "00001", Score: 3}}, "m/sess/000_scan.jpg")
	second.ImageKey = "sess/000_scan.jpg"
	res := entity.NewBatchResult("sess", constants.ModeTranscript, []entity.ImageOutcome{first, second})
	require.NoError(t, store.SetJSON(context.Background(), s, store.ResultKey("sess"), res, time.Hour))

	_, err := svc.ReplaceImage(context.Background(), "sess", "a/scan.jpg", []byte("rescan"))
	require.NoError(t, err)
	require.Len(t, w.seen, 1)
	assert.Equal(t, "sess/000_scan.jpg", w.seen[0].MediaKey)

	stored, err := svc.Get(context.Background(), "sess")
	require.NoError(t, err)
	assert.Equal(t, "sess/001_scan.jpg", stored.ImageResults[0].ImageKey)
}

func TestReplacementKeySeparatesFolders(t *testing.T) {
	a := media.ReplacementKey("sess", "a/scan.jpg", ".jpg")
	b := media.ReplacementKey("sess", "b/scan.jpg", ".jpg")
	assert.Equal(t, "sess/replaced/a_scan.jpg", a)
	assert.NotEqual(t, a, b)
}
