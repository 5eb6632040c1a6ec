// Package sheet summarizes spreadsheet workbooks before they are submitted.
package sheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/HaiFongPan/upload-form/internal/picker"
)

// Sheet describes one worksheet.
type Sheet struct {
	Name    string
	Rows    int
	Columns int
	Headers []string
}

// Summary describes a workbook.
type Summary struct {
	Sheets []Sheet
}

// Summarize reads an .xlsx workbook and reports each sheet's size and
// header row. Blank header cells are named Column_N.
func Summarize(r io.Reader) (*Summary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("no sheets")
	}

	summary := &Summary{}
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}

		s := Sheet{Name: name, Rows: len(rows)}
		for _, row := range rows {
			if len(row) > s.Columns {
				s.Columns = len(row)
			}
		}
		if len(rows) > 0 {
			s.Headers = headers(rows[0])
		}
		summary.Sheets = append(summary.Sheets, s)
	}

	return summary, nil
}

func headers(row []string) []string {
	out := make([]string, len(row))
	for i, h := range row {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		out[i] = h
	}
	return out
}

// String renders the summary one sheet per line.
func (s *Summary) String() string {
	var b strings.Builder
	for _, sh := range s.Sheets {
		fmt.Fprintf(&b, "%s: %d rows x %d columns", sh.Name, sh.Rows, sh.Columns)
		if len(sh.Headers) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(sh.Headers, ", "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// SummarizeFile summarizes a picked workbook.
func SummarizeFile(file *picker.File) (*Summary, error) {
	r, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return Summarize(r)
}

// LogSummary logs a workbook's sheets at debug level. Anything that is not
// a spreadsheet is ignored.
func LogSummary(file *picker.File) {
	if file == nil || file.MediaType != picker.MediaTypeExcel || !logrus.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	summary, err := SummarizeFile(file)
	if err != nil {
		logrus.Debugf("Cannot summarize %s: %v", file.Name, err)
		return
	}
	logrus.Debugf("Workbook %s:\n%s", file.Name, summary)
}
