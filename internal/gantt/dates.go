package gantt

import (
	"strings"
	"time"

	"ganttfmt/internal/excel"

	"github.com/spf13/cast"
)

// Layouts tried after cast's own list, month-first for ambiguous slashes.
var fallbackLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006/1/2",
	"02.01.2006",
	"2.1.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"2-Jan-06",
	"Jan 2006",
	"January 2006",
}

// ParseDate coerces a cell value to a calendar date at UTC midnight.
// Numbers are Excel serial dates; text goes through cast and the fallback
// layouts. Anything else, or text that fails to parse, reports false.
func ParseDate(v any) (time.Time, bool) {
	t, ok := ParseDateTime(v)
	if !ok {
		return time.Time{}, false
	}
	return dateOnly(t), true
}

// ParseDateTime is ParseDate without dropping the time of day.
func ParseDateTime(v any) (time.Time, bool) {
	switch value := v.(type) {
	case time.Time:
		if value.IsZero() {
			return time.Time{}, false
		}
		return value, true
	case float64:
		return fromSerial(value)
	case int:
		return fromSerial(float64(value))
	case int64:
		return fromSerial(float64(value))
	case string:
		return parseDateText(value)
	}
	return time.Time{}, false
}

func fromSerial(serial float64) (time.Time, bool) {
	if serial < 1 {
		return time.Time{}, false
	}
	t, err := excel.ExcelSerialToTime(serial)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if t, err := cast.ToTimeE(s); err == nil {
		return t, true
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// hasClock reports whether t carries a time of day.
func hasClock(t time.Time) bool {
	return t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
