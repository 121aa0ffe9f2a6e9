package gantt

import (
	"errors"
	"fmt"
	"time"

	"ganttfmt/internal/excel"

	"github.com/xuri/excelize/v2"
)

// ErrTooManyMonths is returned for a timeline that would run past the last
// worksheet column.
var ErrTooManyMonths = errors.New("timeline exceeds the worksheet column limit")

const (
	// LabelRow holds the month labels; the original header moves below it.
	LabelRow  = 1
	HeaderRow = 2
	FirstRow  = 3

	DefaultMonthColumnWidth = 10
	DefaultDateFormat       = "yyyy-mm-dd"
	dateTimeFormat          = "yyyy-mm-dd hh:mm:ss"
)

// RenderOptions controls how a sheet is written.
type RenderOptions struct {
	Palette          Palette
	MonthColumnWidth float64
	DateFormat       string
}

// MonthColumn returns the 1-based column of the i-th month marker for a
// table with the given number of original columns. One blank column
// separates the table from the timeline.
func MonthColumn(columns, i int) int {
	return columns + 2 + i
}

// MaxMonths returns how many month columns fit after a table with the given
// number of original columns.
func MaxMonths(columns int) int {
	n := excelize.MaxColumns - MonthColumn(columns, 0) + 1
	if n < 0 {
		return 0
	}
	return n
}

// RenderSheet writes the table starting at HeaderRow and appends the
// labelled, colored month columns. The sheet must already exist.
func RenderSheet(out *excel.Editor, sheet string, t *Table, tl Timeline, opts RenderOptions) error {
	if opts.MonthColumnWidth <= 0 {
		opts.MonthColumnWidth = DefaultMonthColumnWidth
	}
	if opts.DateFormat == "" {
		opts.DateFormat = DefaultDateFormat
	}

	base := len(t.Headers)
	if len(tl.Months) > MaxMonths(base) {
		return fmt.Errorf("%w: %d months after %d columns", ErrTooManyMonths, len(tl.Months), base)
	}

	if err := writeTable(out, sheet, t, opts); err != nil {
		return err
	}

	for i, month := range tl.Months {
		if err := out.SetCellValue(sheet, MonthColumn(base, i), LabelRow, month.Format(MonthLabelLayout)); err != nil {
			return fmt.Errorf("failed to write month label %s: %w", month.Format(MonthLabelLayout), err)
		}
	}
	if len(tl.Months) > 0 {
		first, last := MonthColumn(base, 0), MonthColumn(base, len(tl.Months)-1)
		if err := out.SetColumnRangeWidth(sheet, first, last, opts.MonthColumnWidth); err != nil {
			return fmt.Errorf("failed to set month column width: %w", err)
		}
	}

	return colorCells(out, sheet, t, tl, opts.Palette)
}

func writeTable(out *excel.Editor, sheet string, t *Table, opts RenderOptions) error {
	for i, header := range t.Headers {
		if header == "" {
			continue
		}
		if err := out.SetCellValue(sheet, i+1, HeaderRow, header); err != nil {
			return fmt.Errorf("failed to write header %q: %w", header, err)
		}
	}

	for r, row := range t.Rows {
		for c, value := range row.Values {
			if value == nil {
				continue
			}
			if err := writeValue(out, sheet, c+1, FirstRow+r, value, opts.DateFormat); err != nil {
				return fmt.Errorf("failed to write row %d: %w", FirstRow+r, err)
			}
		}
	}

	return nil
}

func writeValue(out *excel.Editor, sheet string, col, row int, value any, dateFormat string) error {
	if err := out.SetCellValue(sheet, col, row, value); err != nil {
		return err
	}

	t, ok := value.(time.Time)
	if !ok {
		return nil
	}

	format := dateFormat
	if hasClock(t) {
		format = dateTimeFormat
	}
	style, err := out.NumberFormatStyle(format)
	if err != nil {
		return err
	}
	return out.SetCellStyle(sheet, col, row, style)
}

func colorCells(out *excel.Editor, sheet string, t *Table, tl Timeline, palette Palette) error {
	base := len(t.Headers)
	for r, row := range t.Rows {
		if r >= len(tl.Cells) {
			break
		}
		for m, status := range tl.Cells[r] {
			color := palette.Color(status, row.Subtask)
			if color == "" {
				continue
			}

			style, err := out.FillStyle(color)
			if err != nil {
				return err
			}
			if err := out.SetCellStyle(sheet, MonthColumn(base, m), FirstRow+r, style); err != nil {
				return fmt.Errorf("failed to color row %d: %w", FirstRow+r, err)
			}
		}
	}
	return nil
}
