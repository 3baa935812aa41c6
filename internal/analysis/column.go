package analysis

import (
	"fmt"

	"dataprobe/domain/dataset"
	"dataprobe/internal/errors"

	"github.com/montanaflynn/stats"
)

// ColumnSummary is the result of describing one column. Text is the line shown
// to the user; the numeric fields are set only for numeric columns.
type ColumnSummary struct {
	Column string             `json:"column"`
	Type   dataset.ColumnType `json:"type"`
	Text   string             `json:"summary"`
	Mean   *float64           `json:"mean,omitempty"`
	Median *float64           `json:"median,omitempty"`
	Mode   *string            `json:"mode,omitempty"`
}

// DescribeColumn reports the most common value of a text column, or the mean
// and median (two decimals) of a numeric one. Missing cells are skipped.
func DescribeColumn(ds *dataset.Dataset, name string) (*ColumnSummary, error) {
	col, ok := ds.Column(name)
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("column %q", name))
	}

	summary := &ColumnSummary{Column: col.Name, Type: col.Type}

	if col.Type.IsNumeric() {
		values := col.NumericValues()
		if len(values) == 0 {
			return nil, errors.InvalidInput(fmt.Sprintf("column %q has no values", name))
		}
		mean, err := stats.Mean(values)
		if err != nil {
			return nil, errors.Wrapf(err, "mean of %q", name)
		}
		median, err := stats.Median(values)
		if err != nil {
			return nil, errors.Wrapf(err, "median of %q", name)
		}
		summary.Mean = &mean
		summary.Median = &median
		summary.Text = fmt.Sprintf("Mean: %.2f, Median: %.2f", mean, median)
		return summary, nil
	}

	mode, ok := MostCommon(col.TextValues())
	if !ok {
		return nil, errors.InvalidInput(fmt.Sprintf("column %q has no values", name))
	}
	summary.Mode = &mode
	summary.Text = fmt.Sprintf("Most common value: %s", mode)
	return summary, nil
}

// MostCommon returns the most frequent value. Among equally frequent values the
// one seen first in row order wins; this tie-break is arbitrary and callers
// should not rely on it.
func MostCommon(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	counts := make(map[string]int, len(values))
	firstSeen := make([]string, 0, len(values))
	for _, v := range values {
		if counts[v] == 0 {
			firstSeen = append(firstSeen, v)
		}
		counts[v]++
	}

	best := firstSeen[0]
	for _, v := range firstSeen[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best, true
}

