package transfer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/wordmemo/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the spreadsheet column layout
type ImportConfig struct {
	WordColumn        string // Column with the word
	PhoneticColumn    string // Column with the phonetic transcription
	DefinitionsColumn string // "pos meaning" entries separated by ";"
	ExamplesColumn    string // "en | zh" entries, one per line
	EtymologyColumn   string
	RemarksColumn     string
	SheetName         string // Name of the sheet to import
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:        "A",
		PhoneticColumn:    "B",
		DefinitionsColumn: "C",
		ExamplesColumn:    "D",
		EtymologyColumn:   "E",
		RemarksColumn:     "F",
		SheetName:         "Sheet1",
		StartRow:          2, // skip header
	}
}

var exportColumns = []interface{}{
	"Word", "Phonetic", "Definitions", "Examples", "Etymology", "Remarks", "Level", "Reviews", "Correct", "Next review",
}

// ReadSpreadsheet reads words from an Excel or CSV file. The format is picked
// from the file name. Row problems are returned as messages, not errors.
func ReadSpreadsheet(r io.Reader, name string, config ImportConfig) ([]ExportableWord, []string, error) {
	var rows [][]string
	var err error

	if strings.ToLower(filepath.Ext(name)) == ".csv" {
		rows, err = readCSV(r)
	} else {
		rows, err = readExcel(r, config.SheetName)
	}
	if err != nil {
		return nil, nil, err
	}

	var words []ExportableWord
	var problems []string
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		w, err := processRow(row, config)
		if err != nil {
			problems = append(problems, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		words = append(words, w)
	}
	return words, problems, nil
}

func readExcel(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// processRow processes a single spreadsheet row
func processRow(row []string, config ImportConfig) (ExportableWord, error) {
	cell := func(column string) string {
		if column == "" {
			return ""
		}
		if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	w := ExportableWord{
		Word:        cell(config.WordColumn),
		Phonetic:    cell(config.PhoneticColumn),
		Definitions: parseDefinitions(cell(config.DefinitionsColumn)),
		Examples:    parseExamples(cell(config.ExamplesColumn)),
		Etymology:   cell(config.EtymologyColumn),
		Remarks:     cell(config.RemarksColumn),
	}
	if w.Word == "" {
		return ExportableWord{}, fmt.Errorf("word cannot be empty")
	}
	return w, nil
}

// parseDefinitions reads "n. cache; v. to store" into definitions. An entry
// without a leading part of speech keeps the whole text as its meaning.
func parseDefinitions(s string) []models.Definition {
	var defs []models.Definition
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pos, meaning, found := strings.Cut(part, " ")
		if !found || !strings.HasSuffix(pos, ".") {
			defs = append(defs, models.Definition{Meaning: part})
			continue
		}
		defs = append(defs, models.Definition{Pos: pos, Meaning: strings.TrimSpace(meaning)})
	}
	return defs
}

// parseExamples reads one "english | translation" pair per line
func parseExamples(s string) []models.Example {
	var examples []models.Example
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		en, zh, _ := strings.Cut(line, "|")
		examples = append(examples, models.Example{En: strings.TrimSpace(en), Zh: strings.TrimSpace(zh)})
	}
	return examples
}

func formatDefinitions(defs []models.Definition) string {
	parts := make([]string, 0, len(defs))
	for _, d := range defs {
		parts = append(parts, strings.TrimSpace(d.Pos+" "+d.Meaning))
	}
	return strings.Join(parts, "; ")
}

func formatExamples(examples []models.Example) string {
	lines := make([]string, 0, len(examples))
	for _, e := range examples {
		lines = append(lines, e.En+" | "+e.Zh)
	}
	return strings.Join(lines, "\n")
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}

// ImportSpreadsheet reads a spreadsheet and imports it with the given strategy
func (s *Service) ImportSpreadsheet(ctx context.Context, r io.Reader, name string, strategy Strategy) (*ImportResult, error) {
	words, problems, err := ReadSpreadsheet(r, name, DefaultImportConfig())
	if err != nil {
		return nil, err
	}
	result, err := s.Import(ctx, words, strategy)
	if result != nil {
		result.Errors = append(problems, result.Errors...)
	}
	return result, err
}

// ExportExcel writes the vocabulary, including memory state, as an .xlsx workbook
func (s *Service) ExportExcel(ctx context.Context, w io.Writer) (int, error) {
	words, err := s.store.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if err := f.SetSheetRow(sheet, "A1", &exportColumns); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for i, word := range words {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		row := []interface{}{
			word.Word,
			word.Phonetic,
			formatDefinitions(word.Definitions),
			formatExamples(word.Examples),
			word.Etymology,
			word.Remarks,
			word.MemoryState.Level.String(),
			word.MemoryState.ReviewCount,
			word.MemoryState.CorrectCount,
			word.MemoryState.NextReviewDate.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return 0, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}
	return len(words), nil
}
