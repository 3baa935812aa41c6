package coercer

import (
	"math"
	"strconv"
	"strings"

	"dataprobe/domain/dataset"
)

// TypeCoercer decides column types from cell text and converts cells to values.
// Rules are deterministic: the same cells always produce the same column.
type TypeCoercer struct {
	config  CoercionConfig
	missing map[string]struct{}
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold       float64  `json:"numeric_threshold"`        // share of non-missing cells that must parse as numbers
	CategoricalUniqueRatio float64  `json:"categorical_unique_ratio"` // max distinct/non-missing ratio for categorical text
	MaxCategories          int      `json:"max_categories"`           // max distinct values for categorical text
	MissingTokens          []string `json:"missing_tokens"`           // cell texts read as missing
}

// DefaultCoercionConfig mirrors the usual CSV loader behaviour: a column is
// numeric only when every present cell parses, and the common NA spellings
// count as missing.
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold:       1.0,
		CategoricalUniqueRatio: 0.5,
		MaxCategories:          20,
		MissingTokens: []string{
			"", "NA", "N/A", "n/a", "NaN", "nan", "-NaN", "-nan",
			"NULL", "null", "None", "<NA>", "#N/A", "#NA",
		},
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	missing := make(map[string]struct{}, len(config.MissingTokens))
	for _, tok := range config.MissingTokens {
		missing[tok] = struct{}{}
	}
	return &TypeCoercer{config: config, missing: missing}
}

// IsMissing reports whether a trimmed cell counts as no value
func (c *TypeCoercer) IsMissing(cell string) bool {
	_, ok := c.missing[strings.TrimSpace(cell)]
	return ok
}

// ParseNumber parses a cell as a float. Infinities are accepted, NaN is not
// (NaN spellings are missing values).
func (c *TypeCoercer) ParseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") || strings.Contains(s, "_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int                `json:"total_count"`
	ValidCount      int                `json:"valid_count"`
	NumericCount    int                `json:"numeric_count"`
	UniqueCount     int                `json:"unique_count"`
	NumericRatio    float64            `json:"numeric_ratio"`
	UniqueRatio     float64            `json:"unique_ratio"`
	RecommendedType dataset.ColumnType `json:"recommended_type"`
}

// AnalyzeTypeDistribution counts how the cells of one column parse and
// recommends a column type.
func (c *TypeCoercer) AnalyzeTypeDistribution(cells []string) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(cells)}
	unique := make(map[string]struct{})

	for _, cell := range cells {
		if c.IsMissing(cell) {
			continue
		}
		analysis.ValidCount++
		unique[cell] = struct{}{}
		if _, ok := c.ParseNumber(cell); ok {
			analysis.NumericCount++
		}
	}
	analysis.UniqueCount = len(unique)

	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
		analysis.UniqueRatio = float64(analysis.UniqueCount) / float64(analysis.ValidCount)
	}

	analysis.RecommendedType = c.determineRecommendedType(analysis)
	return analysis
}

// determineRecommendedType chooses the column type based on analysis
func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) dataset.ColumnType {
	// An all-missing column has nothing to parse and stays textual
	if analysis.ValidCount == 0 {
		return dataset.ColumnTextual
	}

	if analysis.NumericRatio >= c.config.NumericThreshold {
		return dataset.ColumnNumeric
	}

	if analysis.UniqueCount <= c.config.MaxCategories &&
		analysis.UniqueRatio <= c.config.CategoricalUniqueRatio {
		return dataset.ColumnCategorical
	}

	return dataset.ColumnTextual
}

// BuildColumn types a column once and converts its cells. Cells that fail to
// parse in a numeric column (possible only with a threshold below 1) become missing.
func (c *TypeCoercer) BuildColumn(name string, cells []string) (*dataset.Column, TypeAnalysis) {
	analysis := c.AnalyzeTypeDistribution(cells)

	col := &dataset.Column{
		Name:    name,
		Type:    analysis.RecommendedType,
		Raw:     make([]string, len(cells)),
		Missing: make([]bool, len(cells)),
	}
	if col.Type.IsNumeric() {
		col.Numbers = make([]float64, len(cells))
	}

	for i, cell := range cells {
		// text keeps its surrounding whitespace; only detection trims
		trimmed := strings.TrimSpace(cell)
		col.Raw[i] = cell
		if col.Numbers != nil {
			col.Raw[i] = trimmed
		}
		if c.IsMissing(trimmed) {
			col.Missing[i] = true
			if col.Numbers != nil {
				col.Numbers[i] = math.NaN()
			}
			continue
		}
		if col.Numbers != nil {
			v, ok := c.ParseNumber(trimmed)
			if !ok {
				col.Missing[i] = true
				v = math.NaN()
			}
			col.Numbers[i] = v
		}
	}

	return col, analysis
}
