package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// summaryFileName returns the run-scoped summary artifact name.
func summaryFileName(runID string) string {
	return fmt.Sprintf("contract_summary_%s.md", runID)
}

// calendarFileName returns the run-scoped deliverables artifact name.
func calendarFileName(runID string) string {
	return fmt.Sprintf("calendar_deliverables_%s.json", runID)
}

// writeArtifact writes data to dir/name via a temp file and rename, so a
// concurrently running notification stage never observes a partial file.
func writeArtifact(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "artifact: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return "", eris.Wrap(err, "artifact: create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", eris.Wrapf(err, "artifact: write %s", name)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", eris.Wrapf(err, "artifact: close %s", name)
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", eris.Wrapf(err, "artifact: rename to %s", path)
	}
	return path, nil
}
