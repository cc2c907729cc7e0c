package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"safework/internal/app"
	"safework/internal/model"
	"safework/internal/report"
	"safework/internal/safework"

	"github.com/spf13/cobra"
)

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table is a rendered list: a header and one row per record.
type table struct {
	header []string
	rows   [][]string
}

func (t table) write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.header, "\t"))
	for _, r := range t.rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func tableOf[T any](items []T, header []string, row func(T) []string) table {
	t := table{header: header}
	for _, it := range items {
		t.rows = append(t.rows, row(it))
	}
	return t
}

func fmtID(v int64) string { return strconv.FormatInt(v, 10) }

func fmtIDs(vs []int64) string {
	s := make([]string, len(vs))
	for i, v := range vs {
		s[i] = fmtID(v)
	}
	return strings.Join(s, ",")
}

func statusCells(s safework.Status, days int) []string {
	return []string{report.Label(string(s)), strconv.Itoa(days)}
}

// tableFor renders the slice types List and Expiring return.
func tableFor(v any) (table, bool) {
	switch items := v.(type) {
	case []model.Employee:
		return tableOf(items, []string{"ID", "NAME", "REGISTRATION", "ROLE", "DEPARTMENT", "ACTIVE"},
			func(e model.Employee) []string {
				return []string{fmtID(e.ID), e.Name, e.Registration, e.Role, e.Department, strconv.FormatBool(e.Active)}
			}), true
	case []model.PPE:
		return tableOf(items, []string{"ID", "NAME", "CATEGORY", "CERTIFICATE", "VALIDITY", "UNIT COST"},
			func(p model.PPE) []string {
				return []string{fmtID(p.ID), p.Name, p.Category, p.CertificateNumber,
					strconv.Itoa(p.ValidityMonths) + "m", p.UnitCost.StringFixed(2)}
			}), true
	case []safework.DeliveryView:
		return tableOf(items, []string{"ID", "EMPLOYEE", "PPE", "QTY", "ISSUED", "EXPIRES", "STATUS", "DAYS"},
			func(d safework.DeliveryView) []string {
				return append([]string{fmtID(d.ID), fmtID(d.EmployeeID), fmtID(d.PPEID), strconv.Itoa(d.Quantity),
					d.IssueDate.String(), d.ExpiryDate.String()}, statusCells(d.Status, d.DaysRemaining)...)
			}), true
	case []model.Accident:
		return tableOf(items, []string{"ID", "EMPLOYEE", "DATE", "SEVERITY", "LOCATION", "LOST DAYS"},
			func(a model.Accident) []string {
				return []string{fmtID(a.ID), fmtID(a.EmployeeID), a.Date.String(), report.Label(string(a.Severity)),
					a.Location, strconv.Itoa(a.LostWorkdays)}
			}), true
	case []safework.TrainingView:
		return tableOf(items, []string{"ID", "TITLE", "DATE", "EXPIRES", "ATTENDEES", "STATUS", "DAYS"},
			func(t safework.TrainingView) []string {
				return append([]string{fmtID(t.ID), t.Title, t.Date.String(), t.ExpiryDate.String(),
					fmtIDs(t.EmployeeIDs)}, statusCells(t.Status, t.DaysRemaining)...)
			}), true
	case []model.Communication:
		return tableOf(items, []string{"ID", "TITLE", "AUDIENCE", "PRIORITY", "PUBLISHED"},
			func(c model.Communication) []string {
				return []string{fmtID(c.ID), c.Title, c.Audience, report.Label(string(c.Priority)), c.PublishedAt.String()}
			}), true
	case []safework.DocumentView:
		return tableOf(items, []string{"ID", "TITLE", "KIND", "UPLOADED", "EXPIRES", "STATUS", "DAYS"},
			func(d safework.DocumentView) []string {
				return append([]string{fmtID(d.ID), d.Title, d.Kind, d.UploadDate.String(), d.ExpiryDate.String()},
					statusCells(d.Status, d.DaysRemaining)...)
			}), true
	case []model.Inspection:
		return tableOf(items, []string{"ID", "AREA", "INSPECTOR", "SCHEDULED", "COMPLETED", "RESULT"},
			func(i model.Inspection) []string {
				return []string{fmtID(i.ID), i.Area, i.Inspector, i.ScheduledDate.String(), i.CompletedDate.String(),
					report.Label(string(i.Result))}
			}), true
	case []safework.Renewal:
		return tableOf(items, []string{"KIND", "ID", "SUBJECT", "EXPIRES", "STATUS", "DAYS"},
			func(r safework.Renewal) []string {
				return append([]string{r.Kind, fmtID(r.ID), r.Subject, r.ExpiryDate.String()},
					statusCells(r.Status, r.DaysRemaining)...)
			}), true
	}
	return table{}, false
}

// asList wraps a single record in a slice of its type.
func asList(rec any) any {
	switch r := rec.(type) {
	case model.Employee:
		return []model.Employee{r}
	case model.PPE:
		return []model.PPE{r}
	case safework.DeliveryView:
		return []safework.DeliveryView{r}
	case model.Accident:
		return []model.Accident{r}
	case safework.TrainingView:
		return []safework.TrainingView{r}
	case model.Communication:
		return []model.Communication{r}
	case safework.DocumentView:
		return []safework.DocumentView{r}
	case model.Inspection:
		return []model.Inspection{r}
	}
	return rec
}

func printList(cmd *cobra.Command, v any) error {
	w := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		return printJSON(w, v)
	}
	t, ok := tableFor(v)
	if !ok {
		return printJSON(w, v)
	}
	return t.write(w)
}

func printRecord(cmd *cobra.Command, rec any) error {
	if jsonOutput(cmd) {
		return printJSON(cmd.OutOrStdout(), rec)
	}
	return printList(cmd, asList(rec))
}

func printSummary(cmd *cobra.Command, s safework.Summary) error {
	w := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		return printJSON(w, s)
	}

	fmt.Fprintf(w, "Summary for %s\n\n", s.Today)
	t := table{header: []string{"", "VALID", "EXPIRING", "EXPIRED", "TOTAL"}}
	for _, k := range []struct {
		name   string
		counts safework.StatusCounts
	}{
		{"PPE deliveries", s.Deliveries},
		{"Documents", s.Documents},
		{"Trainings", s.Trainings},
	} {
		t.rows = append(t.rows, []string{k.name, strconv.Itoa(k.counts.Valid), strconv.Itoa(k.counts.Expiring),
			strconv.Itoa(k.counts.Expired), strconv.Itoa(k.counts.Total())})
	}
	if err := t.write(w); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Employees:\t%d (%d active)\n", s.Employees, s.ActiveEmployees)
	fmt.Fprintf(tw, "PPE catalog items:\t%d\n", s.CatalogItems)
	fmt.Fprintf(tw, "Delivered PPE cost:\t%s\n", s.DeliveredPPECost.StringFixed(2))
	fmt.Fprintf(tw, "Accidents:\t%d (%d in the last %d days, %d workdays lost)\n",
		s.Accidents, s.RecentAccidents, safework.RecentAccidentDays, s.LostWorkdays)
	fmt.Fprintf(tw, "Open inspections:\t%d (%d overdue)\n", s.OpenInspections, s.OverdueInspections)
	fmt.Fprintf(tw, "Communications:\t%d\n", s.Communications)
	return tw.Flush()
}

func printStorageInfo(cmd *cobra.Command, info app.StorageInfo) error {
	w := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		return printJSON(w, info)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Type:\t%s\n", info.Type)
	fmt.Fprintf(tw, "Key:\t%s\n", info.Key)
	fmt.Fprintf(tw, "Encrypted:\t%t\n", info.Encrypted)
	for _, name := range model.CollectionNames {
		fmt.Fprintf(tw, "%s:\t%d\n", report.Label(name), info.Counts[name])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if info.Blobs == nil {
		return nil
	}
	fmt.Fprintln(w)
	t := table{header: []string{"BLOB", "UPDATED"}}
	for _, b := range info.Blobs {
		t.rows = append(t.rows, []string{b.Key, b.UpdatedAt.Format("2006-01-02 15:04:05")})
	}
	return t.write(w)
}
