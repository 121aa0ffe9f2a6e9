package excel

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ganttfmt/internal/logger"
)

// SheetHeaders is the header row of one sheet
type SheetHeaders struct {
	Sheet   string
	Headers []string
}

// WorkbookHeaders lists the header rows of every sheet in one file
type WorkbookHeaders struct {
	Path   string
	Sheets []SheetHeaders
	Err    error
}

// ListWorkbooks returns all .xlsx files under dir, sorted. Office lock files
// (~$name.xlsx) are ignored.
func ListWorkbooks(dir string) ([]string, error) {
	var xlsxFiles []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		name := info.Name()
		if !info.IsDir() && strings.ToLower(filepath.Ext(name)) == ".xlsx" && !strings.HasPrefix(name, "~$") {
			xlsxFiles = append(xlsxFiles, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(xlsxFiles)
	return xlsxFiles, nil
}

// ScanDirectory reads the header row of every sheet of every workbook in dir.
// A file that cannot be opened is reported with its error instead of
// aborting the scan.
func ScanDirectory(dir string) ([]WorkbookHeaders, error) {
	xlsxFiles, err := ListWorkbooks(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get xlsx files: %w", err)
	}

	logger.Info("Scanning workbooks", "directory", dir, "file_count", len(xlsxFiles))

	results := make([]WorkbookHeaders, 0, len(xlsxFiles))
	for _, path := range xlsxFiles {
		sheets, err := scanFileHeaders(path)
		if err != nil {
			logger.Warn("Failed to scan file", "file", filepath.Base(path), "error", err)
		}
		results = append(results, WorkbookHeaders{Path: path, Sheets: sheets, Err: err})
	}

	return results, nil
}

func scanFileHeaders(path string) ([]SheetHeaders, error) {
	editor, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer editor.Close()

	var sheets []SheetHeaders
	for _, sheetName := range editor.GetSheetNames() {
		headers, err := editor.GetColumnHeaders(sheetName)
		if err != nil {
			logger.Warn("Failed to read headers", "file", filepath.Base(path), "sheet", sheetName, "error", err)
			continue
		}

		trimmed := make([]string, 0, len(headers))
		for _, header := range headers {
			trimmed = append(trimmed, strings.TrimSpace(header))
		}
		sheets = append(sheets, SheetHeaders{Sheet: sheetName, Headers: trimmed})
	}

	return sheets, nil
}
