package gantt

import (
	"errors"
	"fmt"
	"io"
	"os"

	"ganttfmt/internal/excel"
	"ganttfmt/internal/logger"
)

// ErrNoTimeline is returned when no sheet of the workbook could be annotated.
var ErrNoTimeline = errors.New("no sheet contains a computable task timeline")

// placeholderSheet stands in for the default sheet of a new workbook until
// at least one annotated sheet exists.
const placeholderSheet = "ganttfmt~placeholder"

// SheetStatus is the outcome of processing one sheet.
type SheetStatus string

const (
	SheetAnnotated        SheetStatus = "annotated"
	SheetSkippedNoColumns SheetStatus = "skipped_no_columns"
	SheetSkippedNoRange   SheetStatus = "skipped_no_range"
	SheetFailed           SheetStatus = "failed"
)

// SheetReport describes what happened to one input sheet.
type SheetReport struct {
	Sheet   string
	Status  SheetStatus
	Rows    int
	Months  int
	Columns map[Field]string
	Err     error
}

// SheetTimeline is an annotatable sheet and its computed overlay.
type SheetTimeline struct {
	Table    *Table
	Timeline Timeline
}

// Result is a generated workbook plus the per-sheet outcomes.
type Result struct {
	Data    []byte
	Reports []SheetReport
}

// Annotated returns the number of sheets that received a timeline.
func (r *Result) Annotated() int {
	n := 0
	for _, report := range r.Reports {
		if report.Status == SheetAnnotated {
			n++
		}
	}
	return n
}

// Options configures a Processor. Zero fields fall back to defaults.
type Options struct {
	Keywords         Keywords
	SubtaskHeader    string
	Palette          Palette
	MonthColumnWidth float64
	DateFormat       string
	// Resolver is consulted only for sheets where keyword detection finds
	// no date column. Optional.
	Resolver ColumnResolver
}

// Processor turns task workbooks into Gantt-annotated workbooks.
type Processor struct {
	detector      *Detector
	resolver      ColumnResolver
	subtaskHeader string
	render        RenderOptions
	renderSheet   func(out *excel.Editor, sheet string, t *Table, tl Timeline, opts RenderOptions) error
}

// NewProcessor creates a processor from opts.
func NewProcessor(opts Options) *Processor {
	if opts.SubtaskHeader == "" {
		opts.SubtaskHeader = DefaultSubtaskHeader
	}
	if opts.Palette == (Palette{}) {
		opts.Palette = DefaultPalette()
	}

	return &Processor{
		detector:      NewDetector(opts.Keywords),
		resolver:      opts.Resolver,
		subtaskHeader: opts.SubtaskHeader,
		render: RenderOptions{
			Palette:          opts.Palette,
			MonthColumnWidth: opts.MonthColumnWidth,
			DateFormat:       opts.DateFormat,
		},
		renderSheet: RenderSheet,
	}
}

// Process reads a workbook and returns a new workbook holding only the
// annotated sheets, in input order. A sheet that fails is logged and
// left out; it never aborts the rest. ErrNoTimeline is returned, along
// with the reports, when nothing could be annotated.
func (p *Processor) Process(r io.Reader) (*Result, error) {
	in, err := excel.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	out := excel.CreateNewFile()
	defer out.Close()

	defaultSheet := out.GetSheetNames()[0]
	if err := out.RenameSheet(defaultSheet, placeholderSheet); err != nil {
		return nil, fmt.Errorf("failed to prepare output workbook: %w", err)
	}

	result := &Result{}
	for _, name := range in.GetSheetNames() {
		result.Reports = append(result.Reports, p.processSheet(in, out, name))
	}

	if result.Annotated() == 0 {
		return result, ErrNoTimeline
	}

	if err := out.DeleteSheet(placeholderSheet); err != nil {
		return nil, fmt.Errorf("failed to finalize output workbook: %w", err)
	}
	out.SetActiveSheet(0)

	result.Data, err = out.Bytes()
	if err != nil {
		return nil, err
	}

	logger.Info("Workbook processed", "sheets", len(result.Reports), "annotated", result.Annotated())
	return result, nil
}

// ConvertFile processes the workbook at inputPath and writes the result to
// outputPath.
func (p *Processor) ConvertFile(inputPath, outputPath string) (*Result, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	result, err := p.Process(file)
	if err != nil {
		return result, err
	}

	if err := os.WriteFile(outputPath, result.Data, 0644); err != nil {
		return result, fmt.Errorf("failed to write output file: %w", err)
	}
	return result, nil
}

// Analyze runs detection and timeline computation without rendering and
// returns the annotatable sheets plus a report for every sheet.
func (p *Processor) Analyze(r io.Reader) ([]SheetTimeline, []SheetReport, error) {
	in, err := excel.OpenReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer in.Close()

	var timelines []SheetTimeline
	var reports []SheetReport
	for _, name := range in.GetSheetNames() {
		st, report := p.safeAnalyzeSheet(in, name)
		if st != nil {
			report.Status = SheetAnnotated
			timelines = append(timelines, *st)
		}
		reports = append(reports, report)
	}

	return timelines, reports, nil
}

func (p *Processor) processSheet(in, out *excel.Editor, name string) (report SheetReport) {
	st, report := p.safeAnalyzeSheet(in, name)
	if st == nil {
		return report
	}

	defer func() {
		if r := recover(); r != nil {
			report.Status = SheetFailed
			report.Err = fmt.Errorf("panic while rendering: %v", r)
		}
		if report.Status == SheetFailed {
			logger.Error("Error in sheet", "sheet", name, "error", report.Err)
			if out.HasSheet(name) {
				_ = out.DeleteSheet(name)
			}
		}
	}()

	if err := out.AddSheet(name); err != nil {
		report.Status = SheetFailed
		report.Err = fmt.Errorf("failed to create output sheet: %w", err)
		return report
	}

	if err := p.renderSheet(out, name, st.Table, st.Timeline, p.render); err != nil {
		report.Status = SheetFailed
		report.Err = err
		return report
	}

	report.Status = SheetAnnotated
	logger.Info("Sheet annotated", "sheet", name, "rows", report.Rows, "months", report.Months)
	return report
}

func (p *Processor) safeAnalyzeSheet(in *excel.Editor, name string) (st *SheetTimeline, report SheetReport) {
	defer func() {
		if r := recover(); r != nil {
			st = nil
			report = SheetReport{Sheet: name, Status: SheetFailed, Err: fmt.Errorf("panic while reading: %v", r)}
		}
		if report.Status == SheetFailed {
			logger.Error("Error in sheet", "sheet", name, "error", report.Err)
		}
	}()
	return p.analyzeSheet(in, name)
}

func (p *Processor) analyzeSheet(in *excel.Editor, name string) (*SheetTimeline, SheetReport) {
	report := SheetReport{Sheet: name}

	headers, values, err := in.ReadTable(name)
	if err != nil {
		report.Status = SheetFailed
		report.Err = err
		return nil, report
	}
	report.Rows = len(values)

	cols := p.detector.Detect(headers)
	if !cols.Any() && p.resolver != nil && len(headers) > 0 {
		resolved, err := p.resolver.ResolveColumns(name, headers)
		if err != nil {
			logger.Warn("Column resolver failed", "sheet", name, "error", err)
		} else {
			cols = resolved
		}
	}
	report.Columns = cols.Headers(headers)

	if !cols.Any() {
		report.Status = SheetSkippedNoColumns
		logger.Info("Skipping sheet without date columns", "sheet", name)
		return nil, report
	}

	table := NewTable(name, headers, values, cols, p.subtaskHeader)
	if earliest, latest, ok := DateRange(table.Rows); ok {
		if n := MonthCount(earliest, latest); n > MaxMonths(len(headers)) {
			report.Status = SheetFailed
			report.Err = fmt.Errorf("%w: %s to %s spans %d months", ErrTooManyMonths,
				earliest.Format("2006-01-02"), latest.Format("2006-01-02"), n)
			return nil, report
		}
	}

	tl, ok := BuildTimeline(table)
	if !ok {
		report.Status = SheetSkippedNoRange
		logger.Info("Skipping sheet without a date range", "sheet", name)
		return nil, report
	}

	report.Months = len(tl.Months)
	return &SheetTimeline{Table: table, Timeline: tl}, report
}
