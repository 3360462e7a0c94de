package report

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"glucotrack/internal/model"
	"glucotrack/internal/stats"
)

const (
	ReadingsSheet = "Readings"
	SummarySheet  = "Summary"

	// Days is the span of the readings sheet.
	Days = 30
)

var ErrGenerate = errors.New("report generation failed")

// MonthlyWorkbook renders the last Days of readings plus the summary as xlsx.
func MonthlyWorkbook(logs []model.GlucoseLog, summary model.WeeklySummary, now time.Time, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(ReadingsSheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9EAD3"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}

	w := &sheetWriter{f: f, sheet: ReadingsSheet}
	w.width("A", "B", 12)
	w.width("C", "C", 16)
	w.width("D", "E", 14)

	headers := []string{"Date", "Time", "Label", "Value (mg/dL)", "In Range"}
	for i, h := range headers {
		w.set(cell(colName(i), 1), h)
	}
	w.style("A1", cell(colName(len(headers)-1), 1), headerStyle)

	row := 2
	for _, l := range stats.Window(logs, now, Days, loc) {
		ts := l.Timestamp.In(loc)
		w.set(cell("A", row), ts.Format(time.DateOnly))
		w.set(cell("B", row), ts.Format("15:04"))
		w.set(cell("C", row), string(l.Label))
		w.set(cell("D", row), l.Value)
		w.set(cell("E", row), yesNo(stats.InRange(l.Value)))
		row++
	}
	if w.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, w.err)
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	w = &sheetWriter{f: f, sheet: SummarySheet}
	w.width("A", "A", 22)
	w.width("B", "B", 16)

	latest := "-"
	if summary.Latest != nil {
		latest = fmt.Sprintf("%g mg/dL (%s)", summary.Latest.Value, summary.Latest.Label)
	}
	rows := [][2]any{
		{"Generated", now.In(loc).Format(time.RFC3339)},
		{"Period (days)", summary.Days},
		{"Time in Range (%)", summary.TimeInRange},
		{"Average (mg/dL)", summary.Average},
		{"Total Logs", summary.TotalLogs},
		{"Missing Logs", summary.MissingLogs},
		{"Latest Reading", latest},
		{"Target Range", fmt.Sprintf("%d-%d mg/dL", stats.RangeLow, stats.RangeHigh)},
	}
	for i, r := range rows {
		w.set(cell("A", i+1), r[0])
		w.set(cell("B", i+1), r[1])
	}
	if w.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, w.err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	return buf.Bytes(), nil
}

// Filename is the download name for the report generated at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("glucose-report-%s.xlsx", now.Format("2006-01"))
}

// sheetWriter keeps the first excelize error and skips every call after it.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(axis string, v any) {
	if w.err == nil {
		w.err = w.f.SetCellValue(w.sheet, axis, v)
	}
}

func (w *sheetWriter) width(start, end string, width float64) {
	if w.err == nil {
		w.err = w.f.SetColWidth(w.sheet, start, end, width)
	}
}

func (w *sheetWriter) style(start, end string, id int) {
	if w.err == nil {
		w.err = w.f.SetCellStyle(w.sheet, start, end, id)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
