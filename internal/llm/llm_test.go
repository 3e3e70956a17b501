package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/entity"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type scriptedOracle struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	last      OracleRequest
}

func (o *scriptedOracle) Complete(_ context.Context, req OracleRequest) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	i := o.calls
	o.calls++
	o.last = req
	if i < len(o.errs) && o.errs[i] != nil {
		return "", o.errs[i]
	}
	if i < len(o.responses) {
		return o.responses[i], nil
	}
	if len(o.responses) > 0 {
		return o.responses[len(o.responses)-1], nil
	}
	return "", errors.New("no scripted response")
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"items\":[]}\n```": `{"items":[]}`,
		"```\n{\"items\":[]}\n```":     `{"items":[]}`,
		"  {\"items\":[]}  ":           `{"items":[]}`,
		"```json{\"items\":[]}```":     `{"items":[]}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFences(in), "input %q", in)
	}
}

func TestParseResponseTranscript(t *testing.T) {
	text := "```json\n" + `{"items":[
		{"sbd":"123","score":8.5},
		{"sbd":1234567,"score":"7,25"},
		{"SBD":"00042","Thi":null},
		{"sbd":"no digits","score":5},
		{"score":9}
	]}` + "\n```"

	p, err := ParseResponse(constants.ModeTranscript, text, quietLogger())
	require.NoError(t, err)
	require.Len(t, p.Records, 3)
	assert.Equal(t, 2, p.Dropped)

	assert.Equal(t, entity.TranscriptRecord{SeatNumber: "00123", Score: 8.5}, p.Records[0])
	assert.Equal(t, "34567", p.Records[1].(entity.TranscriptRecord).SeatNumber)
	assert.Equal(t, entity.TranscriptRecord{SeatNumber: "00042", Score: 0}, p.Records[2])
}

func TestParseResponseCertificate(t *testing.T) {
	text := `{"items":[
		{"degree_name":"Cử nhân","major":"Kế toán","issuing_institution":"Đại học A","full_name":"Nguyễn Văn A","birth_date":"5/3/2001"},
		{"full_name":"Trần Thị B","birth_date":"ngày 7 tháng 9 năm 1999"},
		{"full_name":"Lê C","birth_date":"sometime"}
	]}`

	p, err := ParseResponse(constants.ModeCertificate, text, quietLogger())
	require.NoError(t, err)
	require.Len(t, p.Records, 2)
	assert.Equal(t, 1, p.Dropped)

	first := p.Records[0].(entity.CertificateRecord)
	assert.Equal(t, "05/03/2001", first.BirthDate)
	assert.Equal(t, "Kế toán", first.Major)
	assert.Equal(t, "07/09/1999", p.Records[1].(entity.CertificateRecord).BirthDate)
}

func TestParseResponseCertificateKeepsEmptyName(t *testing.T) {
	text := `{"items":[{"full_name":"","birth_date":"01/02/2000"},{"full_name":"","birth_date":""}]}`

	p, err := ParseResponse(constants.ModeCertificate, text, quietLogger())
	require.NoError(t, err)
	require.Len(t, p.Records, 1)
	assert.Equal(t, 1, p.Dropped)
	rec := p.Records[0].(entity.CertificateRecord)
	assert.Empty(t, rec.FullName)
	assert.Equal(t, "01/02/2000", rec.BirthDate)
}

func TestParseResponseBareArray(t *testing.T) {
	p, err := ParseResponse(constants.ModeTranscript, `[{"sbd":"12345","score":10}]`, quietLogger())
	require.NoError(t, err)
	require.Len(t, p.Records, 1)
}

func TestParseResponseErrors(t *testing.T) {
	_, err := ParseResponse(constants.ModeTranscript, "Xin lỗi, tôi không đọc được ảnh.", quietLogger())
	assert.ErrorIs(t, err, ErrSchemaInvalid)

	_, err = ParseResponse(constants.ModeTranscript, `{"rows":[]}`, quietLogger())
	assert.ErrorIs(t, err, ErrSchemaInvalid)

	_, err = ParseResponse(constants.ModeTranscript, `{"items":"none"}`, quietLogger())
	assert.ErrorIs(t, err, ErrSchemaInvalid)

	_, err = ParseResponse(constants.ModeTranscript, `{"items":[]}`, quietLogger())
	assert.ErrorIs(t, err, ErrNoDataExtracted)
}

func TestExtractRetriesThenSucceeds(t *testing.T) {
	oracle := &scriptedOracle{
		errs:      []error{errors.New("503 upstream")},
		responses: []string{"", `{"items":[{"sbd":"11111","score":6}]}`},
	}
	ex := NewExtractor(oracle, quietLogger(), WithRetryPause(time.Millisecond))

	p, err := ex.Extract(context.Background(), NewExtractRequest(pngHeader(), "a.png", constants.ModeTranscript))
	require.NoError(t, err)
	assert.Equal(t, 2, oracle.calls)
	require.Len(t, p.Records, 1)
	assert.True(t, strings.HasPrefix(oracle.last.ImageDataURL, "data:image/png;base64,"))
	assert.Equal(t, PromptFor(constants.ModeTranscript), oracle.last.Prompt)
}

func TestExtractExhaustsAttempts(t *testing.T) {
	oracle := &scriptedOracle{errs: []error{errors.New("down"), errors.New("down"), errors.New("down")}}
	ex := NewExtractor(oracle, quietLogger(), WithRetryPause(0))

	_, err := ex.Extract(context.Background(), NewExtractRequest([]byte("x"), "a.jpg", constants.ModeTranscript))
	require.ErrorIs(t, err, ErrOracleUnavailable)
	assert.Equal(t, DefaultMaxAttempts, oracle.calls)
}

func TestExtractRetriesEmptyResult(t *testing.T) {
	oracle := &scriptedOracle{responses: []string{`{"items":[]}`}}
	ex := NewExtractor(oracle, quietLogger(), WithRetryPause(0), WithMaxAttempts(3))

	_, err := ex.Extract(context.Background(), NewExtractRequest([]byte("x"), "a.jpg", constants.ModeCertificate))
	require.ErrorIs(t, err, ErrNoDataExtracted)
	assert.Equal(t, 3, oracle.calls)
}

func TestExtractStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	oracle := &scriptedOracle{errs: []error{context.Canceled}}
	ex := NewExtractor(oracle, quietLogger(), WithRetryPause(time.Second))

	_, err := ex.Extract(ctx, NewExtractRequest([]byte("x"), "a.jpg", constants.ModeTranscript))
	require.ErrorIs(t, err, ErrOracleUnavailable)
	assert.Equal(t, 1, oracle.calls)
}

func TestDetectImageMIME(t *testing.T) {
	assert.Equal(t, "image/png", DetectImageMIME(pngHeader(), "scan.jpg"))
	assert.Equal(t, "image/webp", DetectImageMIME([]byte("garbage"), "scan.webp"))
	assert.Equal(t, "image/jpeg", DetectImageMIME([]byte("garbage"), "scan.txt"))
}

func TestItemSchemasCompile(t *testing.T) {
	for _, m := range []constants.Mode{constants.ModeTranscript, constants.ModeCertificate} {
		_, err := CompileSchema(BuildItemJSONSchema(m))
		require.NoError(t, err, m)
	}
	require.NoError(t, ValidateJSONAgainstSchema(BuildEnvelopeJSONSchema(), []byte(`{"items":[]}`)))
	require.Error(t, ValidateJSONAgainstSchema(BuildEnvelopeJSONSchema(), []byte(`{}`)))
}

func pngHeader() []byte {
	return []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
}
