// Package report exports the compliance state of the dataset as an XLSX
// workbook: a summary sheet and one sheet per time-bound record kind.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"safework/internal/safework"
)

// Sheet names.
const (
	SheetSummary    = "Summary"
	SheetDeliveries = "PPE Deliveries"
	SheetDocuments  = "Documents"
	SheetTrainings  = "Trainings"
)

// Source is what the report reads. *safework.Service satisfies it.
type Source interface {
	Stores() safework.Stores
	Summary() safework.Summary
	Deliveries(safework.Filter) []safework.DeliveryView
	Documents(safework.Filter) []safework.DocumentView
	Trainings(safework.Filter) []safework.TrainingView
}

type styles struct {
	header   int
	expiring int
	expired  int
}

// Build assembles the workbook. The caller must Close it.
func Build(src Source) (*excelize.File, error) {
	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming summary sheet: %w", err)
	}

	steps := []func(*excelize.File, styles, Source) error{
		writeSummary,
		writeDeliveries,
		writeDocuments,
		writeTrainings,
	}
	for _, step := range steps {
		if err := step(f, st, src); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, src Source) error {
	f, err := Build(src)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error

	st.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return st, fmt.Errorf("creating header style: %w", err)
	}
	st.expiring, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFF2CC"}},
	})
	if err != nil {
		return st, fmt.Errorf("creating expiring style: %w", err)
	}
	st.expired, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F8CBAD"}},
	})
	if err != nil {
		return st, fmt.Errorf("creating expired style: %w", err)
	}
	return st, nil
}

func writeSummary(f *excelize.File, st styles, src Source) error {
	sum := src.Summary()

	rows := [][]any{
		{"Report date", sum.Today.String()},
		{},
		{"Kind", Label(string(safework.StatusValid)), Label(string(safework.StatusExpiring)), Label(string(safework.StatusExpired)), "Total"},
		countsRow(SheetDeliveries, sum.Deliveries),
		countsRow(SheetDocuments, sum.Documents),
		countsRow(SheetTrainings, sum.Trainings),
		{},
		{"Employees", sum.Employees},
		{"Active employees", sum.ActiveEmployees},
		{"Catalog items", sum.CatalogItems},
		{"Delivered PPE cost", sum.DeliveredPPECost.StringFixed(2)},
		{"Accidents", sum.Accidents},
		{fmt.Sprintf("Accidents in the last %d days", safework.RecentAccidentDays), sum.RecentAccidents},
		{"Lost workdays", sum.LostWorkdays},
		{"Open inspections", sum.OpenInspections},
		{"Overdue inspections", sum.OverdueInspections},
		{"Communications", sum.Communications},
	}
	if err := writeRows(f, SheetSummary, rows); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetSummary, 3, 3, st.header); err != nil {
		return fmt.Errorf("styling summary: %w", err)
	}
	return f.SetColWidth(SheetSummary, "A", "A", 32)
}

func countsRow(kind string, c safework.StatusCounts) []any {
	return []any{kind, c.Valid, c.Expiring, c.Expired, c.Total()}
}

func writeDeliveries(f *excelize.File, st styles, src Source) error {
	stores := src.Stores()
	employees := employeeNames(stores)
	catalog := map[int64]string{}
	for _, p := range stores.PPEs.All() {
		catalog[p.ID] = p.Name
	}

	views := src.Deliveries(safework.Filter{})
	rows := make([][]any, 0, len(views))
	statuses := make([]safework.Status, 0, len(views))
	for _, d := range views {
		rows = append(rows, []any{
			d.ID, lookup(employees, d.EmployeeID), lookup(catalog, d.PPEID), d.Quantity,
			d.IssueDate.String(), d.ExpiryDate.String(), Label(string(d.Status)), d.DaysRemaining,
		})
		statuses = append(statuses, d.Status)
	}
	header := []any{"ID", "Employee", "PPE", "Quantity", "Issue date", "Expiry date", "Status", "Days remaining"}
	return writeTable(f, st, SheetDeliveries, header, rows, statuses)
}

func writeDocuments(f *excelize.File, st styles, src Source) error {
	views := src.Documents(safework.Filter{})
	rows := make([][]any, 0, len(views))
	statuses := make([]safework.Status, 0, len(views))
	for _, d := range views {
		rows = append(rows, []any{
			d.ID, d.Title, d.Kind, d.UploadDate.String(), d.ExpiryDate.String(), Label(string(d.Status)), d.DaysRemaining,
		})
		statuses = append(statuses, d.Status)
	}
	header := []any{"ID", "Title", "Kind", "Upload date", "Expiry date", "Status", "Days remaining"}
	return writeTable(f, st, SheetDocuments, header, rows, statuses)
}

func writeTrainings(f *excelize.File, st styles, src Source) error {
	views := src.Trainings(safework.Filter{})
	rows := make([][]any, 0, len(views))
	statuses := make([]safework.Status, 0, len(views))
	for _, t := range views {
		rows = append(rows, []any{
			t.ID, t.Title, t.Instructor, len(t.EmployeeIDs), t.Date.String(), t.ExpiryDate.String(), Label(string(t.Status)), t.DaysRemaining,
		})
		statuses = append(statuses, t.Status)
	}
	header := []any{"ID", "Title", "Instructor", "Attendees", "Date", "Expiry date", "Status", "Days remaining"}
	return writeTable(f, st, SheetTrainings, header, rows, statuses)
}

// writeTable writes a header row and data rows to a new sheet, shading each
// data row by its status.
func writeTable(f *excelize.File, st styles, sheet string, header []any, rows [][]any, statuses []safework.Status) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}
	if err := writeRows(f, sheet, append([][]any{header}, rows...)); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, st.header); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}

	for i, s := range statuses {
		style := 0
		switch s {
		case safework.StatusExpiring:
			style = st.expiring
		case safework.StatusExpired:
			style = st.expired
		}
		if style == 0 {
			continue
		}
		row := i + 2
		if err := f.SetRowStyle(sheet, row, row, style); err != nil {
			return fmt.Errorf("styling %s row %d: %w", sheet, row, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, 16); err != nil {
		return fmt.Errorf("sizing %s columns: %w", sheet, err)
	}
	return f.AutoFilter(sheet, "A1:"+last+strconv.Itoa(len(rows)+1), nil)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func employeeNames(stores safework.Stores) map[int64]string {
	names := map[int64]string{}
	for _, e := range stores.Employees.All() {
		names[e.ID] = e.Name
	}
	return names
}

func lookup(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return name
	}
	return "#" + strconv.FormatInt(id, 10)
}

var _ Source = (*safework.Service)(nil)
