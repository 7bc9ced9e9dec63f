package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperation(t *testing.T) {
	tests := []struct {
		in      string
		want    Operation
		wantErr bool
	}{
		{"review", OpReviewCode, false},
		{"REVIEW", OpReviewCode, false},
		{"  bugs ", OpPredictBugs, false},
		{"docs", OpGenerateDocstrings, false},
		{"security", OpSecurityScan, false},
		{"nonsense", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOperation(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOperationAnalyzable(t *testing.T) {
	analyzable := []Operation{OpReviewCode, OpPredictBugs, OpGenerateReport, OpSecurityScan}
	for _, op := range analyzable {
		assert.True(t, op.Analyzable(), "operation %s", op)
	}

	generative := []Operation{OpGenerateDocstrings, OpGenerateCode, OpSummarizeRequirements, OpGenerateTests}
	for _, op := range generative {
		assert.False(t, op.Analyzable(), "operation %s", op)
	}
}

func TestSourceArtifactEmpty(t *testing.T) {
	assert.True(t, NewSourceArtifact("a.py", "").Empty())
	assert.True(t, NewSourceArtifact("a.py", "  \n\t ").Empty())
	assert.False(t, NewSourceArtifact("a.py", "x = 1").Empty())
}

func TestOperationsCoverDescriptions(t *testing.T) {
	for _, op := range Operations() {
		assert.NotEqual(t, string(op), op.Description(), "operation %s needs a description", op)
	}
}
