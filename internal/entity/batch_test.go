package entity

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phanvandien/ocr-script/constants"
)

func TestNewBatchResultFlattensInOutcomeOrder(t *testing.T) {
	outcomes := []ImageOutcome{
		Succeeded("b.png", []Record{TranscriptRecord{SeatNumber: "00002", Score: 7}}, ""),
		Failed("c.png", "no data extracted", ""),
		Succeeded("a.png", []Record{
			TranscriptRecord{SeatNumber: "00001", Score: 8.5},
			TranscriptRecord{SeatNumber: "00003", Score: 9},
		}, "sess/001_a.png"),
	}

	r := NewBatchResult("sess", constants.ModeTranscript, outcomes)
	require.True(t, r.Success)
	require.Equal(t, 3, r.TotalImages)
	require.Equal(t, 2, r.SuccessfulImages)
	require.Equal(t, 3, r.TotalRecords)
	require.Equal(t, []Record{
		TranscriptRecord{SeatNumber: "00002", Score: 7},
		TranscriptRecord{SeatNumber: "00001", Score: 8.5},
		TranscriptRecord{SeatNumber: "00003", Score: 9},
	}, r.Data)
	require.Equal(t, 0, r.ImageResults[1].DataCount)
}

func TestBatchResultDecodesRecordVariant(t *testing.T) {
	r := NewBatchResult("s1", constants.ModeCertificate, []ImageOutcome{
		Succeeded("cert.jpg", []Record{CertificateRecord{
			DegreeName: "Cử nhân", Major: "Kế toán", IssuingInstitution: "ĐH Kinh tế",
			FullName: "Nguyễn Văn A", BirthDate: "15/03/2001",
		}}, ""),
	})
	b, err := json.Marshal(r)
	require.NoError(t, err)

	var got BatchResult
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, *r, got)
	_, ok := got.Data[0].(CertificateRecord)
	require.True(t, ok)
}

func TestFailedBatchResult(t *testing.T) {
	r := FailedBatchResult("s2", constants.ModeTranscript, errors.New("zip: not a valid zip file"))
	require.False(t, r.Success)
	require.Empty(t, r.Data)
	require.Empty(t, r.ImageResults)
	require.Equal(t, "zip: not a valid zip file", r.Error)
}

func TestDecodeRecordsUnknownMode(t *testing.T) {
	_, err := DecodeRecords("receipt", json.RawMessage(`[{}]`))
	require.Error(t, err)
}

func TestNewProgressEvent(t *testing.T) {
	ev := NewProgressEvent(1, 3, "✓ a.png", constants.TaskStatusRunning)
	require.Equal(t, 33, ev.Percentage)
	require.Equal(t, 0, NewProgressEvent(0, 0, "", constants.TaskStatusDone).Percentage)
}
