package gantt

import (
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/cast"
)

// DefaultSubtaskHeader is the header of the task-number column.
const DefaultSubtaskHeader = "Task S. No"

var subtaskPattern = regexp.MustCompile(`^\d+\.\d+$`)

// Row is one task record.
type Row struct {
	// Values holds the original cells, with parsed times substituted in the
	// detected date columns. Dates holds the same values truncated to the day.
	Values  []any
	Dates   [fieldCount]time.Time
	Subtask bool
}

// Date returns the normalized date of a field; false when missing.
func (r Row) Date(f Field) (time.Time, bool) {
	if f < 0 || f >= fieldCount || r.Dates[f].IsZero() {
		return time.Time{}, false
	}
	return r.Dates[f], true
}

// Table is one sheet's task list after normalization.
type Table struct {
	Name    string
	Headers []string
	Rows    []Row
	Columns Columns
}

// NewTable normalizes the detected date columns and classifies subtasks.
// Rows are classified only when a header equals subtaskHeader exactly.
func NewTable(name string, headers []string, values [][]any, cols Columns, subtaskHeader string) *Table {
	taskCol := -1
	for i, h := range headers {
		if h == subtaskHeader {
			taskCol = i
			break
		}
	}

	rows := make([]Row, 0, len(values))
	for _, cells := range values {
		row := Row{Values: append([]any(nil), cells...)}

		for _, f := range Fields() {
			idx, ok := cols.Index(f)
			if !ok || idx >= len(cells) {
				continue
			}
			if t, ok := ParseDateTime(cells[idx]); ok {
				row.Dates[f] = dateOnly(t)
				row.Values[idx] = t
			}
		}

		if taskCol >= 0 && taskCol < len(cells) {
			row.Subtask = IsSubtaskID(cells[taskCol])
		}

		rows = append(rows, row)
	}

	return &Table{
		Name:    name,
		Headers: headers,
		Rows:    rows,
		Columns: cols,
	}
}

// IsSubtaskID reports whether a task identifier reads as "<int>.<int>".
func IsSubtaskID(v any) bool {
	return subtaskPattern.MatchString(cellText(v))
}

func cellText(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case time.Time:
		return value.Format("2006-01-02")
	}
	return cast.ToString(v)
}
