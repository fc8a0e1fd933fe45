package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")

	path, err := writeArtifact(dir, summaryFileName("run-1"), []byte("# Summary"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "contract_summary_run-1.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Summary", string(data))
}

func TestWriteArtifact_Overwrite(t *testing.T) {
	dir := t.TempDir()

	_, err := writeArtifact(dir, calendarFileName("run-2"), []byte("[]"))
	require.NoError(t, err)
	path, err := writeArtifact(dir, calendarFileName("run-2"), []byte(`[{"summary":"x"}]`))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"summary":"x"}]`, string(data))
}
