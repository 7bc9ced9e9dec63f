package cmd

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsdlc/sdlc/internal/models"
)

// stubPipeline returns a fixed status for every artifact.
type stubPipeline struct {
	status models.ReportStatus
	calls  []models.SourceArtifact
}

func (s *stubPipeline) Run(_ context.Context, op models.Operation, artifact models.SourceArtifact) *models.Report {
	s.calls = append(s.calls, artifact)
	return &models.Report{
		Operation: op,
		FileName:  artifact.FileName,
		Status:    s.status,
		Findings: []models.StaticFinding{
			{Category: models.CategoryStyle, Severity: models.SeverityInfo, Message: "function 'f' is missing a docstring", Line: 1},
		},
		Text: "looks reasonable",
	}
}

// analyzeEnv extends testEnv with a stubbed pipeline and captured output.
func analyzeEnv(t *testing.T, status models.ReportStatus) (*stubPipeline, *bytes.Buffer) {
	t.Helper()
	testEnv(t)

	out := &bytes.Buffer{}
	ui.Out = out
	ui.ErrOut = &bytes.Buffer{}

	stub := &stubPipeline{status: status}
	origPipeline := getPipeline
	getPipeline = func() (pipeline, error) { return stub, nil }
	t.Cleanup(func() { getPipeline = origPipeline })

	analyzeNoSave = true
	analyzeJSON = false
	t.Cleanup(func() { analyzeNoSave = false })

	return stub, out
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeTempZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestAnalyzeRun_SingleFile(t *testing.T) {
	stub, out := analyzeEnv(t, models.ReportSuccess)

	path := writeTempFile(t, "sample.py", "def f():\n    pass\n")
	err := analyzeRun(context.Background(), models.OpReviewCode, path)
	require.NoError(t, err)

	require.Len(t, stub.calls, 1)
	assert.Equal(t, path, stub.calls[0].FileName)

	assert.Contains(t, out.String(), "missing a docstring")
	assert.Contains(t, out.String(), "looks reasonable")
}

func TestAnalyzeRun_JSONOutput(t *testing.T) {
	_, out := analyzeEnv(t, models.ReportSuccess)
	analyzeJSON = true
	t.Cleanup(func() { analyzeJSON = false })

	path := writeTempFile(t, "sample.py", "x = 1\n")
	err := analyzeRun(context.Background(), models.OpReviewCode, path)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"status": "success"`)
	assert.Contains(t, out.String(), `"findings"`)
}

func TestAnalyzeRun_ZipProjectReport(t *testing.T) {
	stub, out := analyzeEnv(t, models.ReportSuccess)

	path := writeTempZip(t, map[string]string{
		"a.py": "x = 1\n",
		"b.py": "y = 2\n",
	})
	err := analyzeRun(context.Background(), models.OpGenerateReport, path)
	require.NoError(t, err)

	assert.Len(t, stub.calls, 2)
	assert.Contains(t, out.String(), "Project Report:")
	assert.Contains(t, out.String(), "Analysis of a.py")
	assert.Contains(t, out.String(), "Analysis of b.py")
}

func TestAnalyzeRun_FileTooLarge(t *testing.T) {
	analyzeEnv(t, models.ReportSuccess)
	viper.Set("analysis.max_file_size", 4)

	path := writeTempFile(t, "big.py", "x = 12345\n")
	err := analyzeRun(context.Background(), models.OpReviewCode, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size limit")
}

func TestAnalyzeRun_MissingFile(t *testing.T) {
	analyzeEnv(t, models.ReportSuccess)

	err := analyzeRun(context.Background(), models.OpReviewCode, "/nonexistent/file.py")
	require.Error(t, err)
}

func TestAnalyzeRun_FailureExitsNonZero(t *testing.T) {
	analyzeEnv(t, models.ReportFailure)

	path := writeTempFile(t, "sample.py", "x = 1\n")
	err := analyzeRun(context.Background(), models.OpReviewCode, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 analyses failed")
}

func TestOperationCommands_Registered(t *testing.T) {
	for _, op := range models.Operations() {
		cmd, _, err := rootCmd.Find([]string{string(op)})
		require.NoError(t, err, "command for %s should exist", op)
		assert.Contains(t, cmd.Use, string(op))
	}
}
