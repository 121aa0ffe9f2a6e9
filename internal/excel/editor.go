package excel

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

type Editor struct {
	file     *excelize.File
	filepath string

	styles     map[string]int
	dateStyles map[int]bool
}

func newEditor(file *excelize.File, filepath string) *Editor {
	return &Editor{
		file:       file,
		filepath:   filepath,
		styles:     make(map[string]int),
		dateStyles: make(map[int]bool),
	}
}

// OpenFile opens an existing Excel file
func OpenFile(filepath string) (*Editor, error) {
	file, err := excelize.OpenFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return newEditor(file, filepath), nil
}

// OpenReader opens a workbook from an uploaded byte stream
func OpenReader(r io.Reader) (*Editor, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return newEditor(file, ""), nil
}

// CreateNewFile creates a new Excel file in memory
func CreateNewFile() *Editor {
	return newEditor(excelize.NewFile(), "")
}

// GetSheetNames returns all sheet names in the workbook
func (e *Editor) GetSheetNames() []string {
	return e.file.GetSheetList()
}

// HasSheet reports whether the workbook contains the named sheet
func (e *Editor) HasSheet(sheetName string) bool {
	idx, err := e.file.GetSheetIndex(sheetName)
	return err == nil && idx >= 0
}

// AddSheet creates a new sheet
func (e *Editor) AddSheet(sheetName string) error {
	_, err := e.file.NewSheet(sheetName)
	return err
}

// DeleteSheet removes a sheet
func (e *Editor) DeleteSheet(sheetName string) error {
	return e.file.DeleteSheet(sheetName)
}

// RenameSheet changes a sheet's name
func (e *Editor) RenameSheet(oldName, newName string) error {
	return e.file.SetSheetName(oldName, newName)
}

// SetActiveSheet marks the sheet at position index as the one shown on open
func (e *Editor) SetActiveSheet(index int) {
	e.file.SetActiveSheet(index)
}

// GetColumnHeaders returns all column headers (first row)
func (e *Editor) GetColumnHeaders(sheet string) ([]string, error) {
	rows, err := e.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get first row: %w", err)
	}
	if len(rows) == 0 {
		return []string{}, nil
	}
	return rows[0], nil
}

// ReadTable reads a sheet as a header row plus typed data rows. Data rows are
// padded to the header width. Cell values are nil, string, float64, bool or
// time.Time (numeric cells carrying a date number format).
func (e *Editor) ReadTable(sheet string) ([]string, [][]any, error) {
	rows, err := e.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) == 0 {
		return []string{}, nil, nil
	}

	headers := rows[0]
	width := len(headers)
	for _, row := range rows[1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	for len(headers) < width {
		headers = append(headers, "")
	}

	data := make([][]any, 0, len(rows)-1)
	for r, row := range rows[1:] {
		values := make([]any, width)
		for c, raw := range row {
			v, err := e.typedValue(sheet, c+1, r+2, raw)
			if err != nil {
				return nil, nil, err
			}
			values[c] = v
		}
		data = append(data, values)
	}

	return headers, data, nil
}

func (e *Editor) typedValue(sheet string, col, row int, raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}

	cellType, err := e.file.GetCellType(sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("failed to get type of cell %s: %w", cell, err)
	}

	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError, excelize.CellTypeDate:
		return raw, nil
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true"), nil
	}

	number, err := cast.ToFloat64E(raw)
	if err != nil {
		return raw, nil
	}

	isDate, err := e.hasDateFormat(sheet, cell)
	if err != nil {
		return nil, err
	}
	if isDate {
		t, err := excelize.ExcelDateToTime(number, false)
		if err == nil {
			return t, nil
		}
	}

	return number, nil
}

func (e *Editor) hasDateFormat(sheet, cell string) (bool, error) {
	styleID, err := e.file.GetCellStyle(sheet, cell)
	if err != nil {
		return false, fmt.Errorf("failed to get style of cell %s: %w", cell, err)
	}
	if styleID == 0 {
		return false, nil
	}
	if isDate, ok := e.dateStyles[styleID]; ok {
		return isDate, nil
	}

	style, err := e.file.GetStyle(styleID)
	if err != nil {
		return false, fmt.Errorf("failed to read style %d: %w", styleID, err)
	}

	isDate := isDateNumFmt(style.NumFmt, style.CustomNumFmt)
	e.dateStyles[styleID] = isDate
	return isDate, nil
}

// isDateNumFmt reports whether a built-in or custom number format renders a
// calendar date.
func isDateNumFmt(numFmt int, custom *string) bool {
	if custom != nil && *custom != "" {
		format := strings.ToLower(stripFormatLiterals(*custom))
		return strings.ContainsAny(format, "dy")
	}
	switch {
	case numFmt >= 14 && numFmt <= 17:
		return true
	case numFmt == 22:
		return true
	case numFmt >= 27 && numFmt <= 36:
		return true
	case numFmt >= 50 && numFmt <= 58:
		return true
	}
	return false
}

// stripFormatLiterals drops quoted text, escaped characters and bracketed
// sections ([Red], [$-409]) from a number format code.
func stripFormatLiterals(format string) string {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, r := range format {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SetCellValue sets a value at 1-based column and row coordinates
func (e *Editor) SetCellValue(sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return e.file.SetCellValue(sheet, cell, value)
}

// GetCellValue returns the formatted value at 1-based coordinates
func (e *Editor) GetCellValue(sheet string, col, row int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	return e.file.GetCellValue(sheet, cell)
}

// SetCellStyle applies a style created by FillStyle or NumberFormatStyle
func (e *Editor) SetCellStyle(sheet string, col, row, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return e.file.SetCellStyle(sheet, cell, cell, style)
}

// CellFillColor returns the solid fill color of a cell, or "" when unfilled
func (e *Editor) CellFillColor(sheet string, col, row int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	styleID, err := e.file.GetCellStyle(sheet, cell)
	if err != nil {
		return "", err
	}
	if styleID == 0 {
		return "", nil
	}
	style, err := e.file.GetStyle(styleID)
	if err != nil {
		return "", err
	}
	if style.Fill.Pattern != 1 || len(style.Fill.Color) == 0 {
		return "", nil
	}
	color := strings.ToUpper(strings.TrimPrefix(style.Fill.Color[0], "#"))
	if len(color) == 8 {
		// ARGB
		color = color[2:]
	}
	return color, nil
}

// SetColumnRangeWidth sets the width of the 1-based columns first..last
func (e *Editor) SetColumnRangeWidth(sheet string, first, last int, width float64) error {
	from, err := excelize.ColumnNumberToName(first)
	if err != nil {
		return err
	}
	to, err := excelize.ColumnNumberToName(last)
	if err != nil {
		return err
	}
	return e.file.SetColWidth(sheet, from, to, width)
}

// GetColumnWidth returns the width of a single 1-based column
func (e *Editor) GetColumnWidth(sheet string, col int) (float64, error) {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return 0, err
	}
	return e.file.GetColWidth(sheet, name)
}

// FillStyle returns a solid pattern fill style for a hex RGB color. Styles
// are created once per workbook.
func (e *Editor) FillStyle(color string) (int, error) {
	color = strings.ToUpper(strings.TrimPrefix(color, "#"))
	key := "fill:" + color
	if id, ok := e.styles[key]; ok {
		return id, nil
	}

	id, err := e.file.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{color},
			Pattern: 1,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create fill style %s: %w", color, err)
	}

	e.styles[key] = id
	return id, nil
}

// NumberFormatStyle returns a style applying a custom number format code
func (e *Editor) NumberFormatStyle(format string) (int, error) {
	key := "numfmt:" + format
	if id, ok := e.styles[key]; ok {
		return id, nil
	}

	id, err := e.file.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return 0, fmt.Errorf("failed to create number format style %q: %w", format, err)
	}

	e.styles[key] = id
	return id, nil
}

// Bytes serializes the workbook
func (e *Editor) Bytes() ([]byte, error) {
	buf, err := e.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveAs saves the Excel file with a new name
func (e *Editor) SaveAs(filepath string) error {
	e.filepath = filepath
	return e.file.SaveAs(filepath)
}

// Close closes the Excel file
func (e *Editor) Close() error {
	return e.file.Close()
}

// ExcelSerialToTime converts a 1900-system serial date to a time
func ExcelSerialToTime(serial float64) (time.Time, error) {
	return excelize.ExcelDateToTime(serial, false)
}

// ReadBytes opens a workbook held in memory
func ReadBytes(data []byte) (*Editor, error) {
	return OpenReader(bytes.NewReader(data))
}
