package analysis

import (
	"math"
	"sort"
	"strconv"

	"dataprobe/domain/dataset"

	"github.com/montanaflynn/stats"
)

var (
	numericStats = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	textStats    = []string{"count", "unique", "top", "freq"}
)

// SummaryTable is the "summary statistics" view: one row per statistic, one
// column per described dataset column.
type SummaryTable struct {
	Stats   []string   `json:"stats"`
	Columns []string   `json:"columns"`
	Cells   [][]string `json:"cells"` // Cells[stat][column]
}

// Summarize describes the numeric columns (count, mean, sample std, min,
// quartiles, max). A dataset without numeric columns gets count, unique, top
// and freq for its text columns instead.
func Summarize(ds *dataset.Dataset) *SummaryTable {
	numeric := ds.NumericColumns()
	if len(numeric) > 0 {
		return summarizeNumeric(ds, numeric)
	}
	return summarizeText(ds)
}

func summarizeNumeric(ds *dataset.Dataset, names []string) *SummaryTable {
	table := newTable(numericStats, names)
	for j, name := range names {
		col, _ := ds.Column(name)
		values := col.NumericValues()
		row := numericColumnStats(values)
		for i, v := range row {
			table.Cells[i][j] = formatStat(v)
		}
	}
	return table
}

// numericColumnStats returns values in numericStats order. Empty input yields
// count 0 and NaN elsewhere; std needs at least two values.
func numericColumnStats(values []float64) []float64 {
	nan := math.NaN()
	out := []float64{float64(len(values)), nan, nan, nan, nan, nan, nan, nan}
	if len(values) == 0 {
		return out
	}

	out[1], _ = stats.Mean(values)
	if len(values) > 1 {
		out[2], _ = stats.StandardDeviationSample(values)
	}
	out[3], _ = stats.Min(values)
	out[7], _ = stats.Max(values)

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	out[4] = quantile(sorted, 0.25)
	out[5] = quantile(sorted, 0.50)
	out[6] = quantile(sorted, 0.75)
	return out
}

// quantile interpolates linearly between the two order statistics around
// position (n-1)*p of sorted, so the quartiles of 1,2,3,4 are 1.75 and 3.25.
func quantile(sorted []float64, p float64) float64 {
	pos := float64(len(sorted)-1) * p
	i := int(math.Floor(pos))
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(i)
	return sorted[i] + (sorted[i+1]-sorted[i])*frac
}

func summarizeText(ds *dataset.Dataset) *SummaryTable {
	names := ds.ColumnNames()
	table := newTable(textStats, names)
	for j, col := range ds.Columns {
		values := col.TextValues()
		table.Cells[0][j] = strconv.Itoa(len(values))

		distinct := make(map[string]int, len(values))
		for _, v := range values {
			distinct[v]++
		}
		table.Cells[1][j] = strconv.Itoa(len(distinct))

		if top, ok := MostCommon(values); ok {
			table.Cells[2][j] = top
			table.Cells[3][j] = strconv.Itoa(distinct[top])
		} else {
			table.Cells[2][j] = "NaN"
			table.Cells[3][j] = "NaN"
		}
	}
	return table
}

func newTable(statNames, columns []string) *SummaryTable {
	cells := make([][]string, len(statNames))
	for i := range cells {
		cells[i] = make([]string, len(columns))
	}
	return &SummaryTable{Stats: statNames, Columns: columns, Cells: cells}
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
