package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileManager(t *testing.T) *FileManager {
	t.Helper()

	root := t.TempDir()
	fm := NewFileManager(
		filepath.Join(root, "input"),
		filepath.Join(root, "output"),
		filepath.Join(root, "input_archive"),
		filepath.Join(root, "output_archive"),
	)
	require.NoError(t, fm.EnsureDirectories())
	return fm
}

func TestEnsureDirectories(t *testing.T) {
	t.Parallel()

	fm := newTestFileManager(t)
	for _, dir := range []string{fm.InputDir, fm.OutputDir, fm.InputArchiveDir, fm.OutputArchiveDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestDiscoverInputFiles(t *testing.T) {
	t.Parallel()

	fm := newTestFileManager(t)
	for _, name := range []string{"b.csv", "a.csv", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(fm.InputDir, name), []byte("x\n"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(fm.InputDir, "dir.csv"), 0o755))

	files, err := fm.DiscoverInputFiles("")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(fm.InputDir, "a.csv"),
		filepath.Join(fm.InputDir, "b.csv"),
	}, files)

	files, err = fm.DiscoverInputFiles("*.txt")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = fm.DiscoverInputFiles("[")
	assert.Error(t, err)
}

func TestArchiveFiles(t *testing.T) {
	t.Parallel()

	fm := newTestFileManager(t)

	input := filepath.Join(fm.InputDir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("a,b\n"), 0o644))

	archived, err := fm.ArchiveInputFile(input)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.InputArchiveDir, "in.csv"), archived)
	assert.False(t, FileExists(input))
	assert.True(t, FileExists(archived))

	output := filepath.Join(fm.OutputDir, "out.xml")
	require.NoError(t, os.WriteFile(output, []byte("<records/>"), 0o644))

	copied, err := fm.ArchiveOutputFile(output)
	require.NoError(t, err)
	assert.True(t, FileExists(output))
	content, err := os.ReadFile(copied)
	require.NoError(t, err)
	assert.Equal(t, "<records/>", string(content))
}

func TestArchiveDisabled(t *testing.T) {
	t.Parallel()

	fm := newTestFileManager(t)
	fm.ArchiveOnSuccess = false

	input := filepath.Join(fm.InputDir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("a\n"), 0o644))

	path, err := fm.ArchiveInputFile(input)
	require.NoError(t, err)
	assert.Equal(t, input, path)
	assert.True(t, FileExists(input))
}

func TestGenerateOutputFileName(t *testing.T) {
	t.Parallel()

	uuidPattern := `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`

	name := GenerateOutputFileName("{original}_{uuid}", "xml", map[string]string{"original": "payments"})
	assert.Regexp(t, regexp.MustCompile(`^payments_`+uuidPattern+`\.xml$`), name)

	name = GenerateOutputFileName("{profile}_{date}", "json", map[string]string{"profile": "PAY"})
	assert.Equal(t, "PAY_"+time.Now().Format("20060102")+".json", name)

	name = GenerateOutputFileName("report.XLSX", "xlsx", nil)
	assert.Equal(t, "report.XLSX", name)

	// Values that look like placeholders are not expanded a second time.
	name = GenerateOutputFileName("{original}", "yaml", map[string]string{"original": "{uuid}"})
	assert.Equal(t, "{uuid}.yaml", name)

	name = GenerateOutputFileName("{original}", "xml", map[string]string{"original": "../etc/x"})
	assert.Equal(t, ".._etc_x.xml", name)
}

func TestWriteErrorLog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	path, err := WriteErrorLog(nil, dir)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteErrorLog([]ErrorLogEntry{
		{Timestamp: time.Now(), FileName: "a.csv", ErrorType: "malformed", ErrorMessage: "bad quote", RowNumber: 3, Column: 4},
		{Timestamp: time.Now(), FileName: "b.csv", ErrorType: "file", ErrorMessage: "unreadable"},
	}, dir)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "Total Errors: 2")
	assert.Contains(t, text, "Row Number:     3")
	assert.Contains(t, text, "Column:         4")
	assert.Contains(t, text, "unreadable")
}

func TestWriteSummaryLog(t *testing.T) {
	t.Parallel()

	start := time.Now()
	path, err := WriteSummaryLog(ProcessingSummary{
		StartTime:       start,
		EndTime:         start.Add(2 * time.Second),
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		TotalRecords:    10,
		ProcessedFiles:  []ProcessedFileInfo{{InputFile: "a.csv", OutputFile: "a.xml", Records: 10}},
		FailedFilesList: []FailedFileInfo{{InputFile: "b.csv", ErrorMessage: "boom"}},
	}, t.TempDir())
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "Duration:       2s")
	assert.Contains(t, text, "Total Records:  10")
	assert.Contains(t, text, "Output:       a.xml")
	assert.Contains(t, text, "Error: boom")
}
