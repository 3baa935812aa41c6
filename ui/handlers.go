package ui

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"dataprobe/internal/errors"

	"github.com/gin-gonic/gin"
)

type indexPage struct {
	Workspace *workspaceView
}

// handleIndex serves the full page, with the workspace filled in when a
// dataset is already loaded.
func (s *Server) handleIndex(c *gin.Context) {
	ws, err := s.workspace(c, "")
	if err != nil {
		s.fail(c, err)
		return
	}
	s.renderTemplate(c, http.StatusOK, "index.html", indexPage{Workspace: ws})
}

// workspace assembles the loaded-dataset panels; nil when nothing is loaded
func (s *Server) workspace(c *gin.Context, column string) (*workspaceView, error) {
	ctx := c.Request.Context()
	info, err := s.controller.Info(ctx)
	if err != nil || info == nil {
		return nil, err
	}
	head, err := s.controller.Preview(ctx)
	if err != nil {
		return nil, err
	}

	ws := &workspaceView{Info: info, Preview: newTableView("Data preview", head)}
	if column == "" && len(info.NumericColumns) > 0 {
		column = info.NumericColumns[0]
	}
	if column != "" {
		spec, err := s.controller.Visualize(ctx, column)
		if err != nil {
			return nil, err
		}
		ws.Histogram = newHistogramView(spec)
		ws.SelectedColumn = column
	}
	return ws, nil
}

// handleUpload accepts a multipart "dataset" file and installs it
func (s *Server) handleUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile("dataset")
	if err != nil {
		c.Header("HX-Retarget", "#upload-status")
		s.fail(c, errors.DataFormatError("no file received in field \"dataset\"", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(c, errors.DataFormatError(fmt.Sprintf("could not read %s", header.Filename), err))
		return
	}

	if _, err := s.controller.Load(c.Request.Context(), header.Filename, data); err != nil {
		// keep the current workspace on screen; the error goes next to the upload form
		c.Header("HX-Retarget", "#upload-status")
		s.fail(c, err)
		return
	}

	ws, err := s.workspace(c, "")
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, "workspace.html", ws, ws.Info)
}

func (s *Server) handleInfo(c *gin.Context) {
	info, err := s.controller.Info(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if info == nil {
		s.respond(c, "empty.html", nil, gin.H{"loaded": false})
		return
	}
	s.respond(c, "info.html", info, info)
}

func (s *Server) handlePreview(c *gin.Context) {
	head, err := s.controller.Preview(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, "table.html", newTableView("Data preview", head), head.Records())
}

// toggledOff reports an htmx checkbox request whose box is now unchecked.
// Unchecked boxes send no value, so the panel is cleared.
func (s *Server) toggledOff(c *gin.Context) bool {
	if isHTMX(c) && c.Query("show") == "" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", nil)
		return true
	}
	return false
}

func (s *Server) handleDTypes(c *gin.Context) {
	if s.toggledOff(c) {
		return
	}
	infos, err := s.controller.DTypes(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, "dtypes.html", infos, infos)
}

func (s *Server) handleSummary(c *gin.Context) {
	if s.toggledOff(c) {
		return
	}
	table, err := s.controller.Summary(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, "summary.html", newSummaryView(table), table)
}

func (s *Server) handleColumns(c *gin.Context) {
	if s.toggledOff(c) {
		return
	}
	names, err := s.controller.Columns(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, "columns.html", names, gin.H{"columns": names})
}

// handleHistogram takes the column from the path or, for the htmx select,
// from the "column" query parameter.
func (s *Server) handleHistogram(c *gin.Context) {
	column := c.Param("name")
	if column == "" {
		column = c.Query("column")
	}
	spec, err := s.controller.Visualize(c.Request.Context(), column)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, "histogram.html", newHistogramView(spec), spec)
}

// ColumnRequest selects a column, from a form field or JSON
type ColumnRequest struct {
	Column string `form:"column" json:"column" binding:"required"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req ColumnRequest
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, errors.InvalidInput("select a column to analyze"))
		return
	}
	summary, err := s.controller.Describe(c.Request.Context(), req.Column)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, "describe.html", summary, summary)
}

// QuestionRequest is a free-text question about the data
type QuestionRequest struct {
	Question string `form:"question" json:"question"`
}

func (s *Server) handleAsk(c *gin.Context) {
	var req QuestionRequest
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, errors.InvalidInput("could not read the question"))
		return
	}
	answer, err := s.controller.Ask(c.Request.Context(), req.Question)
	if err != nil {
		s.fail(c, err)
		return
	}
	view := answerView{
		Question: answer.Question,
		HTML:     renderMarkdown(answer.Text),
		Model:    answer.Model,
		Seconds:  fmt.Sprintf("%.1fs", answer.Duration.Seconds()),
	}
	s.respond(c, "answer.html", view, answer)
}

// QueryRequest is a filter expression
type QueryRequest struct {
	Expression string `form:"expression" json:"expression"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, errors.QueryExpressionError("could not read the filter expression", err))
		return
	}
	view, err := s.controller.Filter(c.Request.Context(), req.Expression)
	if err != nil {
		s.fail(c, err)
		return
	}
	caption := fmt.Sprintf("%d matching rows for %s", view.Len(), strings.TrimSpace(view.Expression))
	s.respond(c, "table.html", newTableView(caption, view.Rows), gin.H{
		"expression":  view.Expression,
		"row_indices": view.RowIndices,
		"rows":        view.Rows.Records(),
	})
}
