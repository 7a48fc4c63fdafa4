// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package table reads requirement sentences from CSV or Excel files and
// writes the intent and candidate tables as CSV.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/req-anaphora/pkg/types"
)

// Default input column names.
const (
	RequirementsColumn = "Requirements"
	SentenceColumn     = "Sentence"
	IntentColumn       = "Intent"
)

// ErrUnsupportedFormat is returned for input files that are neither CSV
// nor Excel workbooks.
var ErrUnsupportedFormat = errors.New("unsupported table format")

// MissingColumnError names a required column absent from a table header.
type MissingColumnError struct {
	Path   string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: column %q not found", e.Path, e.Column)
}

// ReadColumn returns the values of column from the table at path, in row
// order. The format follows the extension: .csv, .xlsx or .xls. Only the
// first sheet of a workbook is read. Rows too short to reach the column
// yield "".
func ReadColumn(path, column string) ([]string, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndexes(path, rows, column)
	if err != nil {
		return nil, err
	}
	return project(rows[1:], cols[0]), nil
}

// ReadIntents reads an intent table written by WriteIntents.
func ReadIntents(path string) ([]types.IntentRecord, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndexes(path, rows, SentenceColumn, IntentColumn)
	if err != nil {
		return nil, err
	}
	sentences := project(rows[1:], cols[0])
	intents := project(rows[1:], cols[1])

	out := make([]types.IntentRecord, len(sentences))
	for i := range sentences {
		out[i] = types.IntentRecord{Sentence: sentences[i], Intent: intents[i]}
	}
	return out, nil
}

func readRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx", ".xls":
		return readWorkbook(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s of %s: %w", sheet, path, err)
	}
	return rows, nil
}

func columnIndexes(path string, rows [][]string, names ...string) ([]int, error) {
	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}
	out := make([]int, len(names))
	for i, name := range names {
		out[i] = -1
		for j, h := range header {
			if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == name {
				out[i] = j
				break
			}
		}
		if out[i] < 0 {
			return nil, &MissingColumnError{Path: path, Column: name}
		}
	}
	return out, nil
}

func project(rows [][]string, col int) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		if col < len(row) {
			out[i] = row[col]
		}
	}
	return out
}

// WriteIntents writes records as a Sentence,Intent CSV table.
func WriteIntents(w io.Writer, records []types.IntentRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.IntentColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Sentence, r.Intent}); err != nil {
			return fmt.Errorf("writing intent row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCandidates writes rows as the candidate CSV table.
func WriteCandidates(w io.Writer, rows []types.CandidateRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.CandidateColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		rec := []string{r.ID, r.Context, r.Pronoun, strconv.Itoa(r.Position), r.Antecedent}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing candidate row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path (and its directory) and fills it with write.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
