package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
	"go.squit.io/squit/pkg/models"
)

var jsonDiffer = gojsondiff.New()

// GenerateDiff renders the difference between the expected and the actual body
// of a result for humans. JSON objects get a structural diff, everything else a
// unified line diff. Results without stored bodies fall back to the diff text
// computed during the run. Successful results yield an empty string.
func GenerateDiff(result models.SquitResult) string {
	if result.IsSuccess() {
		return ""
	}
	if result.Error || (result.ExpectedBody == "" && result.ActualBody == "") {
		return result.Diff
	}

	if result.MediaType.Family() == models.FamilyJSON {
		if out, ok := jsonObjectDiff(result.ExpectedBody, result.ActualBody); ok {
			return out
		}
	}
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(ensureNewline(result.ExpectedBody)),
		B:        difflib.SplitLines(ensureNewline(result.ActualBody)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil || out == "" {
		return result.Diff
	}
	return out
}

// jsonObjectDiff renders an ascii diff of two JSON objects. ok is false when
// either body is not a JSON object.
func jsonObjectDiff(expected, actual string) (string, bool) {
	d, err := jsonDiffer.Compare([]byte(expected), []byte(actual))
	if err != nil {
		return "", false
	}
	var left map[string]interface{}
	if err := json.Unmarshal([]byte(expected), &left); err != nil {
		return "", false
	}
	out, err := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       false,
	}).Format(d)
	if err != nil {
		return "", false
	}
	return out, true
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// ExpectActualTable lays out the expected and the actual body side by side.
func ExpectActualTable(expected, actual string) string {
	buf := &bytes.Buffer{}
	table := tablewriter.NewWriter(buf)
	table.SetHeader([]string{"Expected", "Actual"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.Append([]string{expected, actual})
	table.Render()
	return buf.String()
}

func describe(result models.SquitResult) string {
	if result.Title != "" {
		return fmt.Sprintf("%s (%s)", result.FullPath(), result.Title)
	}
	return result.FullPath()
}
