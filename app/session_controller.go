package app

import (
	"context"
	"fmt"
	"time"

	"dataprobe/adapters/charting"
	"dataprobe/domain/core"
	"dataprobe/domain/dataset"
	"dataprobe/internal"
	"dataprobe/internal/analysis"
	"dataprobe/internal/errors"
	"dataprobe/internal/metrics"
	"dataprobe/internal/query"
	"dataprobe/ports"

	"golang.org/x/sync/semaphore"
)

// Action names used for logging and metrics
const (
	ActionLoad      = "load"
	ActionDescribe  = "describe"
	ActionVisualize = "visualize"
	ActionAsk       = "ask"
	ActionFilter    = "filter"
	ActionView      = "view"
)

// Session is one interaction session and the dataset currently loaded in it
type Session struct {
	ID        core.SessionID
	StartedAt time.Time
	Dataset   *dataset.Dataset // nil until the first successful upload
}

// NewSession starts an empty session
func NewSession() *Session {
	return &Session{ID: core.NewSessionID(), StartedAt: time.Now()}
}

// DatasetInfo is the sidebar summary of the live dataset
type DatasetInfo struct {
	ID             core.DatasetID `json:"id"`
	Name           string         `json:"name"`
	Source         string         `json:"source"`
	Rows           int            `json:"rows"`
	Columns        int            `json:"columns"`
	ColumnNames    []string       `json:"column_names"`
	NumericColumns []string       `json:"numeric_columns"`
	Fingerprint    core.Hash      `json:"fingerprint"`
	LoadedAt       time.Time      `json:"loaded_at"`
}

// ControllerConfig holds controller settings
type ControllerConfig struct {
	PreviewRows int
}

// SessionController owns the live dataset of one session and runs every user
// action against it, one action at a time.
type SessionController struct {
	session     *Session
	sem         *semaphore.Weighted
	reader      ports.DatasetReader
	filters     *query.Evaluator
	questions   *QuestionService
	previewRows int
	logger      *internal.Logger
}

// NewSessionController creates a controller with an empty session
func NewSessionController(reader ports.DatasetReader, filters *query.Evaluator, questions *QuestionService, config ControllerConfig) *SessionController {
	if filters == nil {
		filters = query.NewEvaluator()
	}
	if config.PreviewRows <= 0 {
		config.PreviewRows = 5
	}
	c := &SessionController{
		session:     NewSession(),
		sem:         semaphore.NewWeighted(1),
		reader:      reader,
		filters:     filters,
		questions:   questions,
		previewRows: config.PreviewRows,
		logger:      internal.DefaultLogger.With("SessionController"),
	}
	c.logger.Debug("session %s started", c.session.ID.Short())
	return c
}

// SessionID returns the current session's ID
func (c *SessionController) SessionID() core.SessionID { return c.session.ID }

// run serialises actions. fn sees the live dataset; it returns the dataset to
// install, or nil to leave the session unchanged.
func (c *SessionController) run(ctx context.Context, action string, needDataset bool, fn func(ds *dataset.Dataset) (*dataset.Dataset, error)) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return errors.Wrapf(err, "%s cancelled while waiting", action)
	}
	defer c.sem.Release(1)

	ds := c.session.Dataset
	if needDataset && ds == nil {
		metrics.RecordAction(action, metrics.OutcomeRejected)
		return errors.InvalidInput("upload a dataset first")
	}

	next, err := fn(ds)
	metrics.RecordAction(action, outcome(err))
	if err != nil {
		c.logger.Debug("%s failed: %v", action, err)
		return err
	}
	if next != nil {
		c.session.Dataset = next
		metrics.DatasetRows.Set(float64(next.RowCount))
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.IsDataFormat(err), errors.IsQueryExpression(err),
		errors.IsNotFound(err), errors.HasCode(err, errors.CodeInvalidInput):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}

// Load parses an upload and makes it the live dataset. On failure the
// previous dataset stays installed.
func (c *SessionController) Load(ctx context.Context, name string, data []byte) (*dataset.Dataset, error) {
	var loaded *dataset.Dataset
	err := c.run(ctx, ActionLoad, false, func(current *dataset.Dataset) (*dataset.Dataset, error) {
		ds, err := c.reader.Read(name, data)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Fingerprint.Equals(ds.Fingerprint) {
			c.logger.Debug("%s has the same content as the live dataset", name)
		}
		loaded = ds
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	rows, cols := loaded.Shape()
	c.logger.Info("loaded %s as dataset %s (%d rows, %d columns)", name, loaded.ID.Short(), rows, cols)
	return loaded, nil
}

// Describe summarises one column
func (c *SessionController) Describe(ctx context.Context, column string) (*analysis.ColumnSummary, error) {
	var summary *analysis.ColumnSummary
	err := c.run(ctx, ActionDescribe, true, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		var err error
		summary, err = analysis.DescribeColumn(ds, column)
		return nil, err
	})
	return summary, err
}

// Visualize builds a histogram of a numeric column
func (c *SessionController) Visualize(ctx context.Context, column string) (*charting.HistogramSpec, error) {
	var spec *charting.HistogramSpec
	err := c.run(ctx, ActionVisualize, true, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		col, ok := ds.Column(column)
		if !ok {
			return nil, errors.NotFound(fmt.Sprintf("column %q", column))
		}
		if !col.Type.IsNumeric() {
			return nil, errors.InvalidInput(fmt.Sprintf("column %q is not numeric", column))
		}
		spec = charting.Histogram(col.Name, col.NumericValues())
		return nil, nil
	})
	return spec, err
}

// Ask answers a free-text question about the live dataset
func (c *SessionController) Ask(ctx context.Context, question string) (*Answer, error) {
	var answer *Answer
	err := c.run(ctx, ActionAsk, true, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		if c.questions == nil {
			return nil, errors.QueryEngineError("no language model is configured", nil)
		}
		var err error
		answer, err = c.questions.Answer(ctx, ds, question)
		return nil, err
	})
	return answer, err
}

// Filter selects the rows matching a filter expression
func (c *SessionController) Filter(ctx context.Context, expression string) (*dataset.FilteredView, error) {
	var view *dataset.FilteredView
	err := c.run(ctx, ActionFilter, true, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		var err error
		view, err = c.filters.Filter(ds, expression)
		return nil, err
	})
	return view, err
}

// Preview returns the first rows of the live dataset
func (c *SessionController) Preview(ctx context.Context) (*dataset.Dataset, error) {
	var head *dataset.Dataset
	err := c.run(ctx, ActionView, true, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		head = ds.Head(c.previewRows)
		return nil, nil
	})
	return head, err
}

// Info returns the sidebar summary. It reports (nil, nil) before any upload.
func (c *SessionController) Info(ctx context.Context) (*DatasetInfo, error) {
	var info *DatasetInfo
	err := c.run(ctx, ActionView, false, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		if ds == nil {
			return nil, nil
		}
		rows, cols := ds.Shape()
		info = &DatasetInfo{
			ID:             ds.ID,
			Name:           ds.Name,
			Source:         ds.Source,
			Rows:           rows,
			Columns:        cols,
			ColumnNames:    ds.ColumnNames(),
			NumericColumns: ds.NumericColumns(),
			Fingerprint:    ds.Fingerprint,
			LoadedAt:       ds.LoadedAt,
		}
		return nil, nil
	})
	return info, err
}

// Summary returns the summary statistics table
func (c *SessionController) Summary(ctx context.Context) (*analysis.SummaryTable, error) {
	var table *analysis.SummaryTable
	err := c.run(ctx, ActionView, true, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		table = analysis.Summarize(ds)
		return nil, nil
	})
	return table, err
}

// DTypes lists every column with its inferred type
func (c *SessionController) DTypes(ctx context.Context) ([]dataset.ColumnInfo, error) {
	var infos []dataset.ColumnInfo
	err := c.run(ctx, ActionView, true, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		infos = ds.Info()
		return nil, nil
	})
	return infos, err
}

// Columns lists column names in order
func (c *SessionController) Columns(ctx context.Context) ([]string, error) {
	var names []string
	err := c.run(ctx, ActionView, true, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		names = ds.ColumnNames()
		return nil, nil
	})
	return names, err
}
