package query

import (
	"fmt"
	"sort"
	"strings"

	"dataprobe/domain/dataset"
	"dataprobe/internal"
	"dataprobe/internal/errors"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Evaluator selects dataset rows with boolean filter expressions such as
//
//	price > 100 and region == 'north'
//	`unit cost` <= 2.5 or not (units > 3)
//
// Expressions may reference column names, number and string literals,
// comparison, arithmetic and logical operators. A comparison against a
// missing cell is false, so "not (b > 1)" keeps rows where b is missing.
// Text columns compare lexicographically.
type Evaluator struct {
	logger *internal.Logger
}

// NewEvaluator creates an evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{logger: internal.DefaultLogger.With("QueryEvaluator")}
}

// Predicate is a parsed filter bound to a dataset's columns
type Predicate struct {
	Expression string

	expr    hclsyntax.Expression
	columns map[string]*dataset.Column // generated identifier -> column
}

// Compile parses expr and resolves its column references against ds. Syntax
// errors, unknown columns and non-boolean expressions fail with a
// QueryExpressionError.
func (e *Evaluator) Compile(ds *dataset.Dataset, expr string) (*Predicate, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, errors.QueryExpressionError("filter expression is empty", nil)
	}

	norm, err := normalize(trimmed)
	if err != nil {
		return nil, errors.QueryExpressionError(fmt.Sprintf("invalid filter %q", trimmed), err)
	}

	parsed, diags := hclsyntax.ParseExpression([]byte(norm.source), "filter", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, errors.QueryExpressionError(fmt.Sprintf("invalid filter %q", trimmed), diags)
	}

	p := &Predicate{Expression: trimmed, expr: parsed, columns: make(map[string]*dataset.Column)}
	var unknown []string
	for _, traversal := range parsed.Variables() {
		id := traversal.RootName()
		name, ok := norm.columns[id]
		if !ok {
			return nil, errors.QueryExpressionError(fmt.Sprintf("invalid filter %q", trimmed), nil)
		}
		if len(traversal) > 1 {
			return nil, errors.QueryExpressionError(
				fmt.Sprintf("invalid filter %q: attribute and index access on %q is not supported", trimmed, name), nil)
		}
		col, ok := ds.Column(name)
		if !ok {
			if !contains(unknown, name) {
				unknown = append(unknown, name)
			}
			continue
		}
		p.columns[id] = col
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errors.QueryExpressionError(
			fmt.Sprintf("unknown column(s) %s in filter %q", strings.Join(quoteAll(unknown), ", "), trimmed), nil)
	}

	if err := p.checkType(); err != nil {
		return nil, err
	}
	return p, nil
}

// checkType evaluates the expression once with unknown values of each
// column's type, so type errors surface even for an empty dataset.
func (p *Predicate) checkType() error {
	vars := make(map[string]cty.Value, len(p.columns))
	for id, col := range p.columns {
		vars[id] = cty.UnknownVal(ctyType(col))
	}
	v, diags := evaluate(p.expr, &hcl.EvalContext{Variables: vars})
	if diags.HasErrors() {
		return errors.QueryExpressionError(fmt.Sprintf("invalid filter %q", p.Expression), diags)
	}
	if t := v.Type(); t != cty.Bool && t != cty.DynamicPseudoType {
		return errors.QueryExpressionError(
			fmt.Sprintf("filter %q must evaluate to true or false, not %s", p.Expression, t.FriendlyName()), nil)
	}
	return nil
}

// Match evaluates the predicate against one row
func (p *Predicate) Match(row int) (bool, error) {
	vars := make(map[string]cty.Value, len(p.columns))
	for id, col := range p.columns {
		vars[id] = cellValue(col, row)
	}

	v, diags := evaluate(p.expr, &hcl.EvalContext{Variables: vars})
	if diags.HasErrors() {
		return false, errors.QueryExpressionError(
			fmt.Sprintf("filter %q failed on row %d", p.Expression, row), diags)
	}
	if v.IsNull() {
		return false, nil
	}
	if !v.IsKnown() || v.Type() != cty.Bool {
		return false, errors.QueryExpressionError(
			fmt.Sprintf("filter %q must evaluate to true or false", p.Expression), nil)
	}
	return v.True(), nil
}

// Filter returns the rows of ds matching expr, in their original order. The
// dataset is not modified.
func (e *Evaluator) Filter(ds *dataset.Dataset, expr string) (*dataset.FilteredView, error) {
	p, err := e.Compile(ds, expr)
	if err != nil {
		e.logger.Debug("rejected filter %q: %v", expr, err)
		return nil, err
	}

	indices := make([]int, 0)
	for row := 0; row < ds.RowCount; row++ {
		ok, err := p.Match(row)
		if err != nil {
			return nil, err
		}
		if ok {
			indices = append(indices, row)
		}
	}

	e.logger.Debug("filter %q matched %d of %d rows", p.Expression, len(indices), ds.RowCount)
	return &dataset.FilteredView{
		Expression: p.Expression,
		RowIndices: indices,
		Rows:       ds.Subset(indices),
	}, nil
}

func ctyType(col *dataset.Column) cty.Type {
	if col.Type.IsNumeric() {
		return cty.Number
	}
	return cty.String
}

func cellValue(col *dataset.Column, row int) cty.Value {
	if col.IsMissing(row) {
		return cty.NullVal(ctyType(col))
	}
	if col.Type.IsNumeric() {
		return cty.NumberFloatVal(col.Numbers[row])
	}
	return cty.StringVal(col.Raw[row])
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
