package gantt

import "time"

// MonthLabelLayout renders a month marker as e.g. "Mar 2024".
const MonthLabelLayout = "Jan 2006"

// Status is the overlay state of one row in one month.
type Status int

const (
	StatusNone Status = iota
	StatusPlanned
	StatusActual
)

func (s Status) String() string {
	switch s {
	case StatusPlanned:
		return "planned"
	case StatusActual:
		return "actual"
	}
	return "none"
}

// Timeline is the month axis of a sheet plus the status of every row in
// every month. Cells[row][month] lines up with Table.Rows and Months.
type Timeline struct {
	Months []time.Time
	Cells  [][]Status
}

// MonthStart returns the first day of t's month at UTC midnight.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Months returns every first-of-month from MonthStart(from) through
// MonthStart(to), ascending. Empty when from's month is after to's.
func Months(from, to time.Time) []time.Time {
	start, end := MonthStart(from), MonthStart(to)
	var months []time.Time
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}

// MonthCount returns the number of month markers from MonthStart(from)
// through MonthStart(to), or 0 when from's month is after to's.
func MonthCount(from, to time.Time) int {
	n := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month()) + 1
	if n < 0 {
		return 0
	}
	return n
}

// DateRange returns the earliest start date (planned or actual) and the
// latest end date (planned or actual) across all rows.
func DateRange(rows []Row) (earliest, latest time.Time, ok bool) {
	var haveMin, haveMax bool

	for _, row := range rows {
		for _, f := range []Field{PlannedStart, ActualStart} {
			if d, present := row.Date(f); present && (!haveMin || d.Before(earliest)) {
				earliest, haveMin = d, true
			}
		}
		for _, f := range []Field{PlannedEnd, ActualEnd} {
			if d, present := row.Date(f); present && (!haveMax || d.After(latest)) {
				latest, haveMax = d, true
			}
		}
	}

	return earliest, latest, haveMin && haveMax
}

// BuildTimeline computes the month axis and overlay of a table. It reports
// false when the table has no computable date range.
func BuildTimeline(t *Table) (Timeline, bool) {
	earliest, latest, ok := DateRange(t.Rows)
	if !ok {
		return Timeline{}, false
	}

	months := Months(earliest, latest)
	if len(months) == 0 {
		return Timeline{}, false
	}

	cells := make([][]Status, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = make([]Status, len(months))
		for j, month := range months {
			cells[i][j] = Classify(row, month)
		}
	}

	return Timeline{Months: months, Cells: cells}, true
}

// Classify returns the overlay state of a row for one month marker. Actual
// overrides planned when both ranges contain the month.
func Classify(row Row, month time.Time) Status {
	status := StatusNone
	if inRange(row, PlannedStart, PlannedEnd, month) {
		status = StatusPlanned
	}
	if inRange(row, ActualStart, ActualEnd, month) {
		status = StatusActual
	}
	return status
}

func inRange(row Row, startField, endField Field, month time.Time) bool {
	start, ok := row.Date(startField)
	if !ok {
		return false
	}
	end, ok := row.Date(endField)
	if !ok {
		return false
	}
	return !month.Before(MonthStart(start)) && !month.After(MonthStart(end))
}
