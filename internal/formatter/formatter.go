// package formatter renders asset listings, batch reports, and policy state for CLI output
package formatter

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/desertthunder/screener/internal/batch"
	"github.com/desertthunder/screener/internal/models"
)

// AssetTable renders a page of assets as an aligned text table.
func AssetTable(page *models.AssetPage) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tSTATE\tTYPE\tTITLE")
	for _, item := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.ID, item.State, item.MediaType, item.Title)
	}
	w.Flush()

	if page.NextCursor != "" {
		fmt.Fprintf(&buf, "\nnext cursor: %s\n", page.NextCursor)
	}
	return buf.String()
}

// AssetDetail renders a single asset's full detail.
func AssetDetail(asset *models.Asset) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s (%s)\n", asset.Summary.Title, asset.Summary.ID)
	fmt.Fprintf(&buf, "state: %s\n", asset.Summary.State)
	fmt.Fprintf(&buf, "type:  %s\n", asset.Summary.MediaType)
	if len(asset.Tags) > 0 {
		fmt.Fprintf(&buf, "tags:  %s\n", strings.Join(asset.Tags, ", "))
	}
	if asset.Notes != "" {
		fmt.Fprintf(&buf, "notes: %s\n", asset.Notes)
	}
	if asset.Transcript != "" {
		fmt.Fprintf(&buf, "\n%s\n", asset.Transcript)
	}
	return buf.String()
}

// Report renders a batch report, errors sorted by asset ID.
func Report(report *models.BatchReport) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "batch %s: %s\n", report.BatchID, report.Status)
	fmt.Fprintf(&buf, "moved: %d, failed: %d\n", report.MovedCount, report.FailedCount)

	if len(report.Errors) > 0 {
		errs := make([]models.ReportError, len(report.Errors))
		copy(errs, report.Errors)
		sort.Slice(errs, func(i, j int) bool { return errs[i].AssetID < errs[j].AssetID })

		w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\nASSET\tREASON")
		for _, e := range errs {
			fmt.Fprintf(w, "%s\t%s\n", e.AssetID, e.Reason)
		}
		w.Flush()
	}
	return buf.String()
}

// Timeline renders the batch move step list as a single status line.
func Timeline(steps []batch.Step) string {
	parts := make([]string, 0, len(steps))
	for _, step := range steps {
		switch step.Status {
		case batch.StepDone:
			parts = append(parts, fmt.Sprintf("[x] %s", step.Name))
		case batch.StepActive:
			parts = append(parts, fmt.Sprintf("[>] %s", step.Name))
		case batch.StepError:
			parts = append(parts, fmt.Sprintf("[!] %s", step.Name))
		default:
			parts = append(parts, fmt.Sprintf("[ ] %s", step.Name))
		}
	}
	return strings.Join(parts, " → ")
}

// Flags renders feature flags sorted by name.
func Flags(flags map[string]bool) string {
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FLAG\tENABLED")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%t\n", name, flags[name])
	}
	w.Flush()
	return buf.String()
}
