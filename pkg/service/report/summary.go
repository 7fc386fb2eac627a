package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"go.squit.io/squit/pkg/models"
)

var statusColors = map[models.TestStatus]color.Attribute{
	models.TestStatusPassed:  color.FgGreen,
	models.TestStatusFailed:  color.FgRed,
	models.TestStatusError:   color.FgMagenta,
	models.TestStatusIgnored: color.FgHiBlack,
}

func paint(status models.TestStatus) string {
	return color.New(statusColors[status]).Sprint(string(status))
}

func fmtDuration(d time.Duration) string {
	return fmt.Sprintf("%.2f s", d.Seconds())
}

// PrintSummary writes one row per result followed by the run totals.
func PrintSummary(w io.Writer, f *File) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Test", "Status", "Duration"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, r := range f.Results {
		table.Append([]string{strconv.Itoa(i + 1), describe(r), paint(r.Status()), fmtDuration(r.Duration)})
	}
	table.Render()

	c := f.Counts
	fmt.Fprintf(w, "\nTotal: %d, successful: %d, failed: %d (errors: %d), ignored: %d in %s\n",
		c.Total, c.Successful, c.Failed, c.Errors, c.Ignored, fmtDuration(f.Duration))
}

// PrintTree writes the result tree with the counts of every node, indented by depth.
func PrintTree(w io.Writer, forest []*models.ResultTreeNode) {
	var walk func(nodes []*models.ResultTreeNode, depth int)
	walk = func(nodes []*models.ResultTreeNode, depth int) {
		for _, n := range nodes {
			status := models.TestStatusPassed
			if !n.Success {
				status = models.TestStatusFailed
			}
			fmt.Fprintf(w, "%s%s %s (%d/%d)\n", strings.Repeat("  ", depth), n.Name, paint(status), n.Successful, n.Total)
			walk(n.Children, depth+1)
		}
	}
	walk(forest, 0)
	total := Root(forest)
	fmt.Fprintf(w, "%d of %d fixtures passed\n", total.Successful, total.Total)
}

// PrintFailures writes the rendered diff of every failed, non ignored result.
func PrintFailures(w io.Writer, f *File) int {
	printed := 0
	for _, r := range f.Results {
		if r.Ignored || r.IsSuccess() {
			continue
		}
		printed++
		fmt.Fprintf(w, "\n%s %s\n", paint(r.Status()), describe(r))
		fmt.Fprintln(w, GenerateDiff(r))
	}
	return printed
}
