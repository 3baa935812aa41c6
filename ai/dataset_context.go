package ai

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"dataprobe/domain/dataset"
	"dataprobe/internal/analysis"
)

// DatasetQuestionPrompt is the template used for free-text questions
const DatasetQuestionPrompt = "dataset_question"

// BuildQuestionPrompt renders the dataset context (schema, first rows and
// summary statistics) followed by the question exactly as the user typed it.
func (pm *PromptManager) BuildQuestionPrompt(ds *dataset.Dataset, question string, previewRows int) (string, error) {
	rows, cols := ds.Shape()

	var schema strings.Builder
	for _, info := range ds.Info() {
		fmt.Fprintf(&schema, "- %s (%s, %d non-missing)\n", info.Name, info.Type, info.NonMissing)
	}

	preview, err := previewCSV(ds.Head(previewRows))
	if err != nil {
		return "", fmt.Errorf("render preview: %w", err)
	}

	return pm.RenderPrompt(DatasetQuestionPrompt, map[string]string{
		"DATASET_NAME": ds.Name,
		"ROW_COUNT":    strconv.Itoa(rows),
		"COLUMN_COUNT": strconv.Itoa(cols),
		"COLUMNS":      strings.TrimRight(schema.String(), "\n"),
		"PREVIEW":      preview,
		"SUMMARY":      SummaryText(analysis.Summarize(ds)),
		"QUESTION":     question,
	})
}

func previewCSV(head *dataset.Dataset) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(head.ColumnNames()); err != nil {
		return "", err
	}
	if err := w.WriteAll(head.DisplayRows()); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// SummaryText lays a summary table out as aligned plain text
func SummaryText(table *analysis.SummaryTable) string {
	if len(table.Columns) == 0 {
		return "(no columns)"
	}
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\t%s\n", strings.Join(table.Columns, "\t"))
	for i, stat := range table.Stats {
		fmt.Fprintf(tw, "%s\t%s\n", stat, strings.Join(table.Cells[i], "\t"))
	}
	_ = tw.Flush()
	return strings.TrimRight(buf.String(), "\n")
}
