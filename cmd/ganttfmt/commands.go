package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ganttfmt/internal/excel"
	"ganttfmt/internal/gantt"
	"ganttfmt/internal/logger"
	"ganttfmt/internal/preview"
	"ganttfmt/internal/web"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload web page",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input.xlsx> [output.xlsx]",
	Short: "Convert a single workbook",
	Long:  `Convert writes a Gantt-annotated copy of the input workbook. The output defaults to server.output_file_name.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runConvert,
}

var convertAllCmd = &cobra.Command{
	Use:   "convert-all",
	Short: "Convert every workbook in the input directory",
	Args:  cobra.NoArgs,
	RunE:  runConvertAll,
}

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Report the headers and detected date columns of every workbook",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

var previewCmd = &cobra.Command{
	Use:   "preview <input.xlsx>",
	Short: "Show the computed timelines in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func init() {
	rootCmd.AddCommand(serveCmd, convertCmd, convertAllCmd, scanCmd, previewCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	processor, closeFn, err := newProcessor(cfg)
	defer closeFn()
	if err != nil {
		return err
	}

	server, err := web.NewServer(cfg.Server, processor, paletteFromConfig(cfg.Timeline.Colors))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	fmt.Printf("Serving on %s\n", cfg.Server.Address)
	return server.Run()
}

func runConvert(cmd *cobra.Command, args []string) error {
	processor, closeFn, err := newProcessor(cfg)
	defer closeFn()
	if err != nil {
		return err
	}

	inputPath := args[0]
	outputPath := cfg.Server.OutputFileName
	if len(args) > 1 {
		outputPath = args[1]
	}

	logger.Info("Starting convert operation", "input_file", inputPath, "output_file", outputPath)

	result, err := processor.ConvertFile(inputPath, outputPath)
	if result != nil {
		printReports(result.Reports)
	}
	if err != nil {
		return err
	}

	fmt.Printf("✓ %d sheet(s) annotated, saved to %s\n", result.Annotated(), outputPath)
	return nil
}

func runConvertAll(cmd *cobra.Command, args []string) error {
	processor, closeFn, err := newProcessor(cfg)
	defer closeFn()
	if err != nil {
		return err
	}

	logger.Info("Starting convert-all operation", "input_directory", cfg.Scan.InputDirectory)

	xlsxFiles, err := excel.ListWorkbooks(cfg.Scan.InputDirectory)
	if err != nil {
		return fmt.Errorf("failed to get Excel files: %w", err)
	}
	if len(xlsxFiles) == 0 {
		fmt.Printf("No .xlsx files found in directory: %s\n", cfg.Scan.InputDirectory)
		return nil
	}

	resultsDir := filepath.Join(cfg.Scan.OutputDirectory, "results")
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	successCount := 0
	errorCount := 0

	for i, inputFile := range xlsxFiles {
		fileName := filepath.Base(inputFile)
		fmt.Printf("\n[%d/%d] Processing: %s\n", i+1, len(xlsxFiles), fileName)
		logger.Info("Processing file", "file", fileName, "progress", fmt.Sprintf("%d/%d", i+1, len(xlsxFiles)))

		outputPath := filepath.Join(resultsDir, outputName(fileName))
		result, err := processor.ConvertFile(inputFile, outputPath)
		if err != nil {
			logger.Error("Failed to convert file", "file", fileName, "error", err)
			fmt.Printf("❌ Error converting file: %v\n", err)
			errorCount++
			continue
		}

		fmt.Printf("✓ %d sheet(s) annotated\n", result.Annotated())
		successCount++
	}

	logger.Info("Convert-all operation completed",
		"success_count", successCount,
		"error_count", errorCount)

	fmt.Printf("\n========================================\n")
	fmt.Printf("Conversion complete!\n")
	fmt.Printf("✓ Success: %d files\n", successCount)
	if errorCount > 0 {
		fmt.Printf("❌ Errors: %d files\n", errorCount)
	}
	fmt.Printf("Results saved to: %s\n", resultsDir)
	return nil
}

// outputName maps plan.xlsx to plan_gantt.xlsx.
func outputName(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName)) + "_gantt.xlsx"
}

func runScan(cmd *cobra.Command, args []string) error {
	dir := cfg.Scan.InputDirectory
	if len(args) > 0 {
		dir = args[0]
	}

	logger.Info("Starting scan operation", "directory", dir)

	workbooks, err := excel.ScanDirectory(dir)
	if err != nil {
		return err
	}
	if len(workbooks) == 0 {
		fmt.Printf("No .xlsx files found in directory: %s\n", dir)
		return nil
	}

	opts, closeFn, err := processorOptions(cfg)
	defer closeFn()
	if err != nil {
		return err
	}
	detector := gantt.NewDetector(opts.Keywords)

	for _, wb := range workbooks {
		fmt.Printf("\n%s\n", wb.Path)
		if wb.Err != nil {
			fmt.Printf("  ❌ %v\n", wb.Err)
			continue
		}
		for _, sheet := range wb.Sheets {
			cols := detector.Detect(sheet.Headers)
			fmt.Print(formatDetection(sheet.Sheet, cols.Headers(sheet.Headers)))
		}
	}
	return nil
}

// formatDetection renders one sheet's detected columns, one field per line.
func formatDetection(sheet string, found map[gantt.Field]string) string {
	var b strings.Builder
	if len(found) == 0 {
		fmt.Fprintf(&b, "  %s: no date columns\n", sheet)
		return b.String()
	}

	fmt.Fprintf(&b, "  %s:\n", sheet)
	for _, f := range gantt.Fields() {
		if header, ok := found[f]; ok {
			fmt.Fprintf(&b, "    %-14s %q\n", f, header)
		}
	}
	return b.String()
}

func runPreview(cmd *cobra.Command, args []string) error {
	processor, closeFn, err := newProcessor(cfg)
	defer closeFn()
	if err != nil {
		return err
	}

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	sheets, reports, err := processor.Analyze(file)
	if err != nil {
		return err
	}
	if len(sheets) == 0 {
		printReports(reports)
		return gantt.ErrNoTimeline
	}

	return preview.Run(sheets, paletteFromConfig(cfg.Timeline.Colors))
}

func printReports(reports []gantt.SheetReport) {
	for _, report := range reports {
		switch report.Status {
		case gantt.SheetAnnotated:
			fmt.Printf("✓ %s: %d rows, %d months\n", report.Sheet, report.Rows, report.Months)
		case gantt.SheetFailed:
			fmt.Printf("❌ %s: %v\n", report.Sheet, report.Err)
		default:
			fmt.Printf("- %s: %s\n", report.Sheet, skipReason(report))
		}
	}
}

func skipReason(report gantt.SheetReport) string {
	if report.Status == gantt.SheetSkippedNoRange {
		names := make([]string, 0, len(report.Columns))
		for f := range report.Columns {
			names = append(names, f.String())
		}
		sort.Strings(names)
		return "no dates in " + strings.Join(names, ", ")
	}
	if report.Err != nil {
		return report.Err.Error()
	}
	return "no date columns"
}
