package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"time"
)

// utf8BOM lets spreadsheet applications detect the encoding.
const utf8BOM = "\uFEFF"

const exportTimeLayout = "02/01/2006 15:04:05"

// CSVHeader is the first line of every export.
var CSVHeader = []string{"Room", "Start", "End", "Total(min)", "Teardown(min)", "Cleaning(min)", "Setup(min)", "Status", "Operator"}

// ExportRow is one flattened, display-ready report line.
type ExportRow struct {
	Room     string
	Start    string
	End      string
	Total    string
	Teardown string
	Cleaning string
	Setup    string
	Status   string
	Operator string
}

// Record returns the row's fields in CSVHeader order.
func (r ExportRow) Record() []string {
	return []string{r.Room, r.Start, r.End, r.Total, r.Teardown, r.Cleaning, r.Setup, r.Status, r.Operator}
}

func newExportRow(rec turnoverRecord, loc *time.Location) ExportRow {
	row := ExportRow{
		Room:     deref(rec.RoomLabel),
		Start:    rec.StartedAt.In(loc).Format(exportTimeLayout),
		Total:    Minutes(rec.TotalDuration),
		Teardown: Minutes(rec.TeardownDuration),
		Cleaning: Minutes(rec.CleaningDuration),
		Setup:    Minutes(rec.SetupDuration),
		Status:   string(rec.Status),
		Operator: deref(rec.OperatorName),
	}
	if rec.CompletedAt != nil {
		row.End = rec.CompletedAt.In(loc).Format(exportTimeLayout)
	}
	return row
}

// Minutes renders a duration in seconds as minutes with two decimals.
// Unset durations render as "0.00".
func Minutes(seconds *float64) string {
	if seconds == nil {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", *seconds/60)
}

// WriteCSV writes the BOM, the header and every row to w.
func WriteCSV(w io.Writer, rows iter.Seq2[ExportRow, error]) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for row, err := range rows {
		if err != nil {
			return err
		}
		if err := cw.Write(row.Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename names an export produced on day.
func ExportFilename(day time.Time) string {
	return fmt.Sprintf("turnover_report_%s.csv", day.Format("2006-01-02"))
}
