// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package table

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/req-anaphora/pkg/types"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadColumnCSV(t *testing.T) {
	path := writeTemp(t, "reqs.csv", "\ufeffId,Requirements\n1,\"The system logs it, daily.\"\n2\n3,It fails.\n")

	got, err := ReadColumn(path, RequirementsColumn)
	require.NoError(t, err)
	assert.Equal(t, []string{"The system logs it, daily.", "", "It fails."}, got)
}

func TestReadColumnWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reqs.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Requirements", "Owner"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"It shall restart.", "ops"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"They log errors.", "dev"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	got, err := ReadColumn(path, RequirementsColumn)
	require.NoError(t, err)
	assert.Equal(t, []string{"It shall restart.", "They log errors."}, got)
}

func TestReadColumnErrors(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		check func(t *testing.T, err error)
	}{
		{
			name: "missing column",
			path: writeTemp(t, "reqs.csv", "Id,Text\n1,x\n"),
			check: func(t *testing.T, err error) {
				var mce *MissingColumnError
				require.True(t, errors.As(err, &mce))
				assert.Equal(t, RequirementsColumn, mce.Column)
			},
		},
		{
			name: "empty file",
			path: writeTemp(t, "empty.csv", ""),
			check: func(t *testing.T, err error) {
				var mce *MissingColumnError
				assert.True(t, errors.As(err, &mce))
			},
		},
		{
			name: "unsupported extension",
			path: writeTemp(t, "reqs.txt", "Requirements\nx\n"),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
			},
		},
		{
			name: "missing file",
			path: filepath.Join(t.TempDir(), "absent.csv"),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, os.ErrNotExist)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadColumn(tt.path, RequirementsColumn)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestIntentsRoundTripThroughFile(t *testing.T) {
	records := []types.IntentRecord{
		{Sentence: "It shall log, then \"retry\".", Intent: types.IntentAmbiguous},
		{Sentence: "The user logs in.", Intent: "functional"},
	}
	path := filepath.Join(t.TempDir(), "processed_data", "all_intents.csv")
	require.NoError(t, WriteFile(path, func(w io.Writer) error { return WriteIntents(w, records) }))

	got, err := ReadIntents(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestWriteCandidates(t *testing.T) {
	var b strings.Builder
	require.NoError(t, WriteCandidates(&b, []types.CandidateRow{
		{ID: "0-they-0", Context: "Alice and Bob say they agree.", Pronoun: "they", Position: 4, Antecedent: "Alice"},
		{ID: "0-they-0", Context: "Alice and Bob say they agree.", Pronoun: "they", Position: 4, Antecedent: "Alice and Bob"},
	}))
	assert.Equal(t,
		"Id,Context,Pronoun,Position,Candidate Antecedent\n"+
			"0-they-0,Alice and Bob say they agree.,they,4,Alice\n"+
			"0-they-0,Alice and Bob say they agree.,they,4,Alice and Bob\n",
		b.String())
}

func TestWriteCandidatesEmpty(t *testing.T) {
	var b strings.Builder
	require.NoError(t, WriteCandidates(&b, nil))
	assert.Equal(t, "Id,Context,Pronoun,Position,Candidate Antecedent\n", b.String())
}
