package gantt

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"ganttfmt/internal/excel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testSheet struct {
	name string
	rows [][]any
}

func buildWorkbook(t *testing.T, sheets ...testSheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sheet.name))
		} else {
			_, err := f.NewSheet(sheet.name)
			require.NoError(t, err)
		}
		for r, row := range sheet.rows {
			for c, value := range row {
				if value == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(sheet.name, cell, value))
			}
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

var planHeaders = []any{"Task S. No", "Task", "Planned Start", "Planned End", "Actual Start", "Actual End"}

func planSheet() testSheet {
	return testSheet{
		name: "Plan",
		rows: [][]any{
			planHeaders,
			{1, "Design", date(2024, 1, 10), date(2024, 3, 20), date(2024, 2, 1), date(2024, 2, 15)},
			{"1.1", "Wireframes", "2024-01-10", "2024-03-20", "2024-02-01", "2024-02-15"},
			{2, "Build", nil, nil, nil, nil},
		},
	}
}

func openResult(t *testing.T, result *Result) *excel.Editor {
	t.Helper()
	require.NotNil(t, result)
	editor, err := excel.ReadBytes(result.Data)
	require.NoError(t, err)
	t.Cleanup(func() { editor.Close() })
	return editor
}

func cellValue(t *testing.T, e *excel.Editor, sheet string, col, row int) string {
	t.Helper()
	v, err := e.GetCellValue(sheet, col, row)
	require.NoError(t, err)
	return v
}

func fillColor(t *testing.T, e *excel.Editor, sheet string, col, row int) string {
	t.Helper()
	c, err := e.CellFillColor(sheet, col, row)
	require.NoError(t, err)
	return c
}

func TestProcess_RendersTimeline(t *testing.T) {
	data := buildWorkbook(t,
		planSheet(),
		testSheet{name: "Notes", rows: [][]any{{"Owner", "Comment"}, {"Ann", "kickoff moved"}}},
		testSheet{name: "Draft", rows: [][]any{{"Planned Start", "Planned End"}, {"TBD", "later"}}},
	)

	result, err := NewProcessor(Options{}).Process(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Annotated())

	require.Len(t, result.Reports, 3)
	assert.Equal(t, SheetAnnotated, result.Reports[0].Status)
	assert.Equal(t, 3, result.Reports[0].Rows)
	assert.Equal(t, 3, result.Reports[0].Months)
	assert.Equal(t, "Planned Start", result.Reports[0].Columns[PlannedStart])
	assert.Equal(t, SheetSkippedNoColumns, result.Reports[1].Status)
	assert.Equal(t, SheetSkippedNoRange, result.Reports[2].Status)

	out := openResult(t, result)
	assert.Equal(t, []string{"Plan"}, out.GetSheetNames(), "skipped sheets are left out")

	// Original table shifted one row down, column order unchanged.
	for i, header := range planHeaders {
		assert.Equal(t, header, cellValue(t, out, "Plan", i+1, HeaderRow))
	}
	assert.Equal(t, "1", cellValue(t, out, "Plan", 1, FirstRow))
	assert.Equal(t, "Design", cellValue(t, out, "Plan", 2, FirstRow))
	assert.Equal(t, "2024-01-10", cellValue(t, out, "Plan", 3, FirstRow))
	assert.Equal(t, "2024-02-15", cellValue(t, out, "Plan", 6, FirstRow))
	assert.Equal(t, "1.1", cellValue(t, out, "Plan", 1, FirstRow+1))
	assert.Equal(t, "2024-03-20", cellValue(t, out, "Plan", 4, FirstRow+1))
	assert.Equal(t, "Build", cellValue(t, out, "Plan", 2, FirstRow+2))

	// One gap column, then one labelled column per month.
	assert.Empty(t, cellValue(t, out, "Plan", 7, LabelRow))
	assert.Equal(t, "Jan 2024", cellValue(t, out, "Plan", 8, LabelRow))
	assert.Equal(t, "Feb 2024", cellValue(t, out, "Plan", 9, LabelRow))
	assert.Equal(t, "Mar 2024", cellValue(t, out, "Plan", 10, LabelRow))
	assert.Empty(t, cellValue(t, out, "Plan", 11, LabelRow))

	for col := 8; col <= 10; col++ {
		width, err := out.GetColumnWidth("Plan", col)
		require.NoError(t, err)
		assert.Equal(t, 10.0, width)
	}

	// Task row: planned, actual override, planned.
	assert.Equal(t, "00CC00", fillColor(t, out, "Plan", 8, FirstRow))
	assert.Equal(t, "0000FF", fillColor(t, out, "Plan", 9, FirstRow))
	assert.Equal(t, "00CC00", fillColor(t, out, "Plan", 10, FirstRow))

	// Subtask row with the same dates uses the subtask pair.
	assert.Equal(t, "90EE90", fillColor(t, out, "Plan", 8, FirstRow+1))
	assert.Equal(t, "800080", fillColor(t, out, "Plan", 9, FirstRow+1))
	assert.Equal(t, "90EE90", fillColor(t, out, "Plan", 10, FirstRow+1))

	// Row without dates is never filled.
	for col := 8; col <= 10; col++ {
		assert.Empty(t, fillColor(t, out, "Plan", col, FirstRow+2))
	}
}

func TestProcess_KeepsSheetOrderAndOptions(t *testing.T) {
	second := testSheet{
		name: "Phase 2",
		rows: [][]any{
			{"Start Date", "End Date"},
			{"2024-05-02", "2024-06-30"},
		},
	}
	data := buildWorkbook(t, planSheet(), second)

	palette := Palette{Planned: "111111", Actual: "222222", SubtaskPlanned: "333333", SubtaskActual: "444444"}
	result, err := NewProcessor(Options{Palette: palette, MonthColumnWidth: 14}).Process(bytes.NewReader(data))
	require.NoError(t, err)

	out := openResult(t, result)
	assert.Equal(t, []string{"Plan", "Phase 2"}, out.GetSheetNames())

	assert.Equal(t, "May 2024", cellValue(t, out, "Phase 2", 4, LabelRow))
	assert.Equal(t, "Jun 2024", cellValue(t, out, "Phase 2", 5, LabelRow))
	assert.Equal(t, "111111", fillColor(t, out, "Phase 2", 4, FirstRow))
	assert.Equal(t, "222222", fillColor(t, out, "Plan", 9, FirstRow))
	assert.Equal(t, "444444", fillColor(t, out, "Plan", 9, FirstRow+1))

	width, err := out.GetColumnWidth("Phase 2", 4)
	require.NoError(t, err)
	assert.Equal(t, 14.0, width)
}

func TestProcess_NoTimeline(t *testing.T) {
	data := buildWorkbook(t,
		testSheet{name: "Notes", rows: [][]any{{"Owner"}, {"Ann"}}},
		testSheet{name: "Draft", rows: [][]any{{"Planned Start", "Planned End"}, {"soon", "later"}}},
	)

	result, err := NewProcessor(Options{}).Process(bytes.NewReader(data))
	assert.True(t, errors.Is(err, ErrNoTimeline))
	require.NotNil(t, result)
	assert.Empty(t, result.Data)
	assert.Len(t, result.Reports, 2)
}

func TestProcess_InvalidWorkbook(t *testing.T) {
	_, err := NewProcessor(Options{}).Process(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoTimeline))
}

type fakeResolver struct {
	calls []string
	err   error
}

func (f *fakeResolver) ResolveColumns(sheet string, headers []string) (Columns, error) {
	f.calls = append(f.calls, sheet)
	var cols Columns
	if f.err != nil {
		return cols, f.err
	}
	for i, h := range headers {
		switch h {
		case "Kickoff":
			cols.Set(PlannedStart, i)
		case "Wrap-up":
			cols.Set(PlannedEnd, i)
		}
	}
	return cols, nil
}

func TestProcess_ResolverFallback(t *testing.T) {
	data := buildWorkbook(t,
		planSheet(),
		testSheet{name: "Custom", rows: [][]any{{"Kickoff", "Wrap-up"}, {"2024-07-01", "2024-07-31"}}},
	)

	resolver := &fakeResolver{}
	result, err := NewProcessor(Options{Resolver: resolver}).Process(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Custom"}, resolver.calls, "resolver only runs when keywords find nothing")
	assert.Equal(t, 2, result.Annotated())

	out := openResult(t, result)
	assert.Equal(t, "Jul 2024", cellValue(t, out, "Custom", 4, LabelRow))

	failing := &fakeResolver{err: errors.New("quota exceeded")}
	result, err = NewProcessor(Options{Resolver: failing}).Process(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, SheetSkippedNoColumns, result.Reports[1].Status)
}

func TestAnalyze(t *testing.T) {
	data := buildWorkbook(t,
		testSheet{name: "Notes", rows: [][]any{{"Owner"}}},
		planSheet(),
	)

	timelines, reports, err := NewProcessor(Options{}).Analyze(bytes.NewReader(data))
	require.NoError(t, err)

	require.Len(t, timelines, 1)
	assert.Equal(t, "Plan", timelines[0].Table.Name)
	assert.Equal(t, []time.Time{date(2024, 1, 1), date(2024, 2, 1), date(2024, 3, 1)}, timelines[0].Timeline.Months)
	assert.Equal(t, []Status{StatusPlanned, StatusActual, StatusPlanned}, timelines[0].Timeline.Cells[0])

	require.Len(t, reports, 2)
	assert.Equal(t, SheetSkippedNoColumns, reports[0].Status)
	assert.Equal(t, SheetAnnotated, reports[1].Status)
}

func TestProcess_KeepsTimeOfDay(t *testing.T) {
	data := buildWorkbook(t, testSheet{
		name: "Plan",
		rows: [][]any{
			{"Task", "Planned Start", "Planned End", "Logged"},
			{"Design", "2024-01-10 14:30", "2024-03-20 09:15", "2024-01-11 08:45"},
			{"Review", "2024-02-01", "2024-02-10", nil},
		},
	})

	result, err := NewProcessor(Options{}).Process(bytes.NewReader(data))
	require.NoError(t, err)
	out := openResult(t, result)

	assert.Equal(t, "2024-01-10 14:30:00", cellValue(t, out, "Plan", 2, FirstRow))
	assert.Equal(t, "2024-03-20 09:15:00", cellValue(t, out, "Plan", 3, FirstRow))
	assert.Equal(t, "2024-01-11 08:45", cellValue(t, out, "Plan", 4, FirstRow), "undetected columns are copied as-is")
	assert.Equal(t, "2024-02-01", cellValue(t, out, "Plan", 2, FirstRow+1))

	// Month coverage still works on whole days.
	assert.Equal(t, "Jan 2024", cellValue(t, out, "Plan", 6, LabelRow))
	assert.Equal(t, "00CC00", fillColor(t, out, "Plan", 6, FirstRow))
	assert.Equal(t, "00CC00", fillColor(t, out, "Plan", 8, FirstRow))
}

func TestProcess_OversizedTimelineFailsOnlyThatSheet(t *testing.T) {
	data := buildWorkbook(t,
		planSheet(),
		testSheet{name: "Open ended", rows: [][]any{
			{"Task", "Planned Start", "Planned End"},
			{"Support", "1900-01-01", "9999-12-01"},
		}},
	)

	result, err := NewProcessor(Options{}).Process(bytes.NewReader(data))
	require.NoError(t, err)

	require.Len(t, result.Reports, 2)
	assert.Equal(t, SheetAnnotated, result.Reports[0].Status)
	assert.Equal(t, SheetFailed, result.Reports[1].Status)
	assert.True(t, errors.Is(result.Reports[1].Err, ErrTooManyMonths))

	out := openResult(t, result)
	assert.Equal(t, []string{"Plan"}, out.GetSheetNames())
}

func TestProcess_RenderFailureRemovesSheet(t *testing.T) {
	tests := []struct {
		name    string
		fail    func() error
		message string
	}{
		{"Error", func() error { return errors.New("disk full") }, "disk full"},
		{"Panic", func() error { panic("index out of range") }, "index out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := planSheet()
			broken.name = "Broken"
			data := buildWorkbook(t, broken, planSheet())

			p := NewProcessor(Options{})
			p.renderSheet = func(out *excel.Editor, sheet string, tbl *Table, tl Timeline, opts RenderOptions) error {
				if sheet == "Broken" {
					require.NoError(t, out.SetCellValue(sheet, 1, 1, "partial"))
					return tt.fail()
				}
				return RenderSheet(out, sheet, tbl, tl, opts)
			}

			result, err := p.Process(bytes.NewReader(data))
			require.NoError(t, err)

			require.Len(t, result.Reports, 2)
			assert.Equal(t, SheetFailed, result.Reports[0].Status)
			assert.ErrorContains(t, result.Reports[0].Err, tt.message)
			assert.Equal(t, SheetAnnotated, result.Reports[1].Status)

			out := openResult(t, result)
			assert.Equal(t, []string{"Plan"}, out.GetSheetNames(), "partially written sheets are removed")
		})
	}
}

type panickingResolver struct{}

func (panickingResolver) ResolveColumns(string, []string) (Columns, error) {
	panic("unexpected header shape")
}

func TestProcess_ReadPanicIsIsolated(t *testing.T) {
	data := buildWorkbook(t,
		testSheet{name: "Custom", rows: [][]any{{"Kickoff", "Wrap-up"}, {"2024-07-01", "2024-07-31"}}},
		planSheet(),
	)

	result, err := NewProcessor(Options{Resolver: panickingResolver{}}).Process(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, SheetFailed, result.Reports[0].Status)
	assert.ErrorContains(t, result.Reports[0].Err, "unexpected header shape")
	assert.Equal(t, SheetAnnotated, result.Reports[1].Status)

	out := openResult(t, result)
	assert.Equal(t, []string{"Plan"}, out.GetSheetNames())
}

func TestRenderSheet_RejectsTooManyMonths(t *testing.T) {
	out := excel.CreateNewFile()
	defer out.Close()

	table := &Table{Name: "Sheet1", Headers: make([]string, excelize.MaxColumns-1)}
	tl := Timeline{Months: []time.Time{date(2024, 1, 1)}}

	err := RenderSheet(out, "Sheet1", table, tl, RenderOptions{})
	assert.True(t, errors.Is(err, ErrTooManyMonths))
}
