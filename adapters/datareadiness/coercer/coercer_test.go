package coercer

import (
	"math"
	"testing"

	"dataprobe/domain/dataset"

	"github.com/stretchr/testify/assert"
)

func TestTypeInference(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	tests := []struct {
		name     string
		cells    []string
		expected dataset.ColumnType
	}{
		{
			name:     "integers are numeric",
			cells:    []string{"25", "34", "45", "28", "52"},
			expected: dataset.ColumnNumeric,
		},
		{
			name:     "floats with missing cells are numeric",
			cells:    []string{"1.5", "", "NaN", "-2e3", " 4 "},
			expected: dataset.ColumnNumeric,
		},
		{
			name:     "low cardinality integers stay numeric",
			cells:    []string{"1", "2", "1", "2", "1", "2", "1", "2"},
			expected: dataset.ColumnNumeric,
		},
		{
			name:     "one unparseable cell makes the column text",
			cells:    []string{"1", "2", "three", "4", "5", "6", "7", "8"},
			expected: dataset.ColumnTextual,
		},
		{
			name:     "repeated labels are categorical",
			cells:    []string{"north", "south", "north", "south", "north", "east"},
			expected: dataset.ColumnCategorical,
		},
		{
			name:     "distinct labels are textual",
			cells:    []string{"alice", "bob", "carol", "dave"},
			expected: dataset.ColumnTextual,
		},
		{
			name:     "currency strings are not numbers",
			cells:    []string{"$45000", "$78000"},
			expected: dataset.ColumnTextual,
		},
		{
			name:     "all missing is textual",
			cells:    []string{"", "NA", "null"},
			expected: dataset.ColumnTextual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := c.AnalyzeTypeDistribution(tt.cells)
			assert.Equal(t, tt.expected, analysis.RecommendedType, "cells: %v", tt.cells)
			assert.Equal(t, len(tt.cells), analysis.TotalCount)
		})
	}
}

func TestBuildColumnNumeric(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	col, analysis := c.BuildColumn("price", []string{" 10 ", "", "2.5"})

	assert.Equal(t, dataset.ColumnNumeric, col.Type)
	assert.Equal(t, 2, analysis.ValidCount)
	assert.Equal(t, []string{"10", "", "2.5"}, col.Raw)
	assert.Equal(t, []bool{false, true, false}, col.Missing)
	assert.Equal(t, 10.0, col.Numbers[0])
	assert.True(t, math.IsNaN(col.Numbers[1]))
	assert.Equal(t, 2.5, col.Numbers[2])
}

func TestBuildColumnText(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	col, _ := c.BuildColumn("name", []string{"Ann", "N/A", "Bo"})

	assert.Equal(t, dataset.ColumnTextual, col.Type)
	assert.Nil(t, col.Numbers)
	assert.Equal(t, []bool{false, true, false}, col.Missing)
}

func TestBuildColumnTextKeepsWhitespace(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	col, analysis := c.BuildColumn("tag", []string{" x", "x", "x ", "  ", "y"})

	assert.Equal(t, []string{" x", "x", "x ", "  ", "y"}, col.Raw)
	assert.Equal(t, []bool{false, false, false, true, false}, col.Missing)
	assert.Equal(t, []string{" x", "x", "x ", "y"}, col.TextValues())
	assert.Equal(t, 4, analysis.UniqueCount)
}

func TestParseNumber(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	for _, ok := range []string{"0", "-1.25", "1e6", "inf", "  3  "} {
		_, parsed := c.ParseNumber(ok)
		assert.True(t, parsed, "expected %q to parse", ok)
	}
	for _, bad := range []string{"", "nan", "0x10", "1_000", "1,000", "abc"} {
		_, parsed := c.ParseNumber(bad)
		assert.False(t, parsed, "expected %q not to parse", bad)
	}
}
