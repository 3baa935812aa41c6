package query

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// evaluate computes expr the way the filter language defines missing cells:
// an ordering or equality test against a missing value is false (!= is true),
// arithmetic on a missing value stays missing, and "and"/"or" read a missing
// operand as false. Text operands order lexicographically. Operators are
// otherwise applied by hclsyntax itself on literal-wrapped operands.
func evaluate(expr hclsyntax.Expression, ctx *hcl.EvalContext) (cty.Value, hcl.Diagnostics) {
	switch e := expr.(type) {
	case *hclsyntax.ParenthesesExpr:
		return evaluate(e.Expression, ctx)

	case *hclsyntax.UnaryOpExpr:
		v, diags := evaluate(e.Val, ctx)
		if diags.HasErrors() {
			return cty.UnknownVal(e.Op.Type), diags
		}
		if v.IsNull() {
			return cty.NullVal(e.Op.Type), nil
		}
		return (&hclsyntax.UnaryOpExpr{
			Op:          e.Op,
			Val:         literal(v, e.Val.Range()),
			SrcRange:    e.SrcRange,
			SymbolRange: e.SymbolRange,
		}).Value(ctx)

	case *hclsyntax.BinaryOpExpr:
		return evaluateBinary(e, ctx)

	case *hclsyntax.ConditionalExpr:
		cond, diags := evaluate(e.Condition, ctx)
		if diags.HasErrors() {
			return cty.DynamicVal, diags
		}
		if cond.IsNull() {
			cond = cty.False
		}
		t, tDiags := evaluate(e.TrueResult, ctx)
		f, fDiags := evaluate(e.FalseResult, ctx)
		diags = append(tDiags, fDiags...)
		if diags.HasErrors() {
			return cty.DynamicVal, diags
		}
		return (&hclsyntax.ConditionalExpr{
			Condition:   literal(cond, e.Condition.Range()),
			TrueResult:  literal(t, e.TrueResult.Range()),
			FalseResult: literal(f, e.FalseResult.Range()),
			SrcRange:    e.SrcRange,
		}).Value(ctx)
	}
	return expr.Value(ctx)
}

func evaluateBinary(e *hclsyntax.BinaryOpExpr, ctx *hcl.EvalContext) (cty.Value, hcl.Diagnostics) {
	lhs, diags := evaluate(e.LHS, ctx)
	rhs, rhsDiags := evaluate(e.RHS, ctx)
	diags = append(diags, rhsDiags...)
	if diags.HasErrors() {
		return cty.UnknownVal(e.Op.Type), diags
	}

	switch e.Op {
	case hclsyntax.OpGreaterThan, hclsyntax.OpGreaterThanOrEqual,
		hclsyntax.OpLessThan, hclsyntax.OpLessThanOrEqual:
		lt, rt := lhs.Type(), rhs.Type()
		if (lt == cty.String && rt == cty.Number) || (lt == cty.Number && rt == cty.String) {
			return cty.UnknownVal(cty.Bool), hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid operand",
				Detail:   "Text cannot be ordered against a number.",
				Subject:  e.SrcRange.Ptr(),
			}}
		}
		if lhs.IsNull() || rhs.IsNull() {
			return cty.False, nil
		}
		if lt == cty.String && rt == cty.String {
			return compareText(e.Op, lhs, rhs), nil
		}

	case hclsyntax.OpEqual, hclsyntax.OpNotEqual:
		if lhs.IsNull() || rhs.IsNull() {
			return cty.BoolVal(e.Op == hclsyntax.OpNotEqual), nil
		}

	case hclsyntax.OpLogicalAnd, hclsyntax.OpLogicalOr:
		if lhs.IsNull() {
			lhs = cty.False
		}
		if rhs.IsNull() {
			rhs = cty.False
		}

	default:
		if lhs.IsNull() || rhs.IsNull() {
			return cty.NullVal(e.Op.Type), nil
		}
	}

	return (&hclsyntax.BinaryOpExpr{
		LHS:      literal(lhs, e.LHS.Range()),
		Op:       e.Op,
		RHS:      literal(rhs, e.RHS.Range()),
		SrcRange: e.SrcRange,
	}).Value(ctx)
}

func compareText(op *hclsyntax.Operation, lhs, rhs cty.Value) cty.Value {
	if !lhs.IsKnown() || !rhs.IsKnown() {
		return cty.UnknownVal(cty.Bool)
	}
	l, r := lhs.AsString(), rhs.AsString()
	switch op {
	case hclsyntax.OpGreaterThan:
		return cty.BoolVal(l > r)
	case hclsyntax.OpGreaterThanOrEqual:
		return cty.BoolVal(l >= r)
	case hclsyntax.OpLessThan:
		return cty.BoolVal(l < r)
	default:
		return cty.BoolVal(l <= r)
	}
}

func literal(v cty.Value, rng hcl.Range) *hclsyntax.LiteralValueExpr {
	return &hclsyntax.LiteralValueExpr{Val: v, SrcRange: rng}
}
