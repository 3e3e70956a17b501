package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/entity"
)

func TestParseAssignments(t *testing.T) {
	fields, err := parseAssignments([]string{"sbd=123", " score = 8.5", "full_name=Nguyễn Văn A=B"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"sbd": "123", "score": " 8.5", "full_name": "Nguyễn Văn A=B"}, fields)

	_, err = parseAssignments([]string{"novalue"})
	require.Error(t, err)
	_, err = parseAssignments([]string{"=x"})
	require.Error(t, err)
}

func TestParseModeFlag(t *testing.T) {
	m, err := parseModeFlag("")
	require.NoError(t, err)
	require.Equal(t, constants.ModeTranscript, m)

	m, err = parseModeFlag("Văn bằng")
	require.NoError(t, err)
	require.Equal(t, constants.ModeCertificate, m)

	_, err = parseModeFlag("receipt")
	require.Error(t, err)
}

func TestSummaryOf(t *testing.T) {
	res := entity.NewBatchResult("s1", constants.ModeTranscript, []entity.ImageOutcome{
		entity.Succeeded("a.jpg", []entity.Record{entity.TranscriptRecord{SeatNumber: "00012", Score: 7}}, "s1/000_a.jpg"),
		entity.Failed("b.jpg", "no data extracted", ""),
	})

	s := summaryOf(res)
	require.Equal(t, "s1", s.SessionID)
	require.Equal(t, 2, s.TotalImages)
	require.Equal(t, 1, s.SuccessfulImages)
	require.Equal(t, 1, s.TotalRecords)
	require.Len(t, s.Images, 2)
	require.Equal(t, 1, s.Images[0].DataCount)
	require.Equal(t, "no data extracted", s.Images[1].Error)
}

func TestRootRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "watch", "export", "progress", "edit", "replace-image"} {
		require.True(t, names[want], want)
	}
}
