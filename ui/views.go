package ui

import (
	"fmt"
	"html/template"
	"strconv"

	"dataprobe/adapters/charting"
	"dataprobe/app"
	"dataprobe/domain/dataset"
	"dataprobe/internal/analysis"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// tableView is a rendered rows-and-columns grid (preview, filter results)
type tableView struct {
	Caption string
	Headers []string
	Rows    [][]string
	Total   int
}

func newTableView(caption string, ds *dataset.Dataset) *tableView {
	return &tableView{
		Caption: caption,
		Headers: ds.ColumnNames(),
		Rows:    ds.DisplayRows(),
		Total:   ds.RowCount,
	}
}

// summaryView transposes a summary table into one row per statistic
type summaryView struct {
	Headers []string
	Rows    [][]string
}

func newSummaryView(t *analysis.SummaryTable) *summaryView {
	rows := make([][]string, len(t.Stats))
	for i, stat := range t.Stats {
		rows[i] = append([]string{stat}, t.Cells[i]...)
	}
	return &summaryView{Headers: append([]string{""}, t.Columns...), Rows: rows}
}

// Histogram plot geometry, in SVG user units
const (
	plotWidth  = 480.0
	plotHeight = 240.0
	plotBottom = 24.0
)

type barView struct {
	X, Y, Width, Height float64
	Label               string
	Count               int
}

type histogramView struct {
	Title    string
	Width    float64
	Height   float64
	Baseline float64
	Bars     []barView
	MinLabel string
	MaxLabel string
	Total    int
}

func newHistogramView(spec *charting.HistogramSpec) *histogramView {
	v := &histogramView{
		Title:    spec.Title,
		Width:    plotWidth,
		Height:   plotHeight + plotBottom,
		Baseline: plotHeight,
		Total:    spec.Total,
	}
	if len(spec.Bins) == 0 {
		return v
	}
	v.MinLabel = formatEdge(spec.Bins[0].Lower)
	v.MaxLabel = formatEdge(spec.Bins[len(spec.Bins)-1].Upper)

	width := plotWidth / float64(len(spec.Bins))
	for i, bin := range spec.Bins {
		h := spec.Height(i) * (plotHeight - 8)
		v.Bars = append(v.Bars, barView{
			X:      float64(i) * width,
			Y:      plotHeight - h,
			Width:  width - 1,
			Height: h,
			Label:  fmt.Sprintf("[%s, %s)", formatEdge(bin.Lower), formatEdge(bin.Upper)),
			Count:  bin.Count,
		})
	}
	return v
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// workspaceView is everything shown once a dataset is loaded
type workspaceView struct {
	Info           *app.DatasetInfo
	Preview        *tableView
	Histogram      *histogramView
	SelectedColumn string
}

type answerView struct {
	Question string
	HTML     template.HTML
	Model    string
	Seconds  string
}

type errorView struct {
	Title   string
	Message string
	Code    string
}

// renderMarkdown turns an LLM answer into HTML. Raw HTML in the answer is
// dropped and links are restricted to safe schemes.
func renderMarkdown(md string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.SkipHTML | mdhtml.Safelink | mdhtml.HrefTargetBlank,
	})
	return template.HTML(markdown.ToHTML([]byte(md), p, renderer))
}
