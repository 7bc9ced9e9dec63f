package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortFindings(t *testing.T) {
	findings := []StaticFinding{
		{Category: CategoryMetric, Severity: SeverityInfo, Message: "whole file", Line: 0},
		{Category: CategoryStyle, Severity: SeverityInfo, Message: "style on 5", Line: 5},
		{Category: CategoryLogic, Severity: SeverityError, Message: "error on 5", Line: 5},
		{Category: CategorySecurity, Severity: SeverityWarning, Message: "warn on 2", Line: 2},
	}

	SortFindings(findings)

	require.Len(t, findings, 4)
	assert.Equal(t, "warn on 2", findings[0].Message)
	assert.Equal(t, "error on 5", findings[1].Message, "higher severity first within a line")
	assert.Equal(t, "style on 5", findings[2].Message)
	assert.Equal(t, "whole file", findings[3].Message, "findings without a line sort last")
}

func TestSortFindings_StableForEqualKeys(t *testing.T) {
	findings := []StaticFinding{
		{Severity: SeverityWarning, Message: "first", Line: 3},
		{Severity: SeverityWarning, Message: "second", Line: 3},
	}

	SortFindings(findings)

	assert.Equal(t, "first", findings[0].Message)
	assert.Equal(t, "second", findings[1].Message)
}
