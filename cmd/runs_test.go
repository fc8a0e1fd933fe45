package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clearterms/contract-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "aaaaaaaa-1111-2222-3333-444444444444",
			UserEmail: "user@example.com",
			Mode:      model.ModeCreator,
			Company:   "Acme Corp",
			Status:    model.RunStatusComplete,
			Result:    &model.RunResult{OverallRisk: "Medium"},
			CreatedAt: created,
			UpdatedAt: created.Add(42 * time.Second),
		},
		{
			ID:        "bbbbbbbb-1111-2222-3333-444444444444",
			UserEmail: "user@example.com",
			Mode:      model.ModeLegal,
			Company:   "A Very Long Company Name That Keeps Going LLC",
			Status:    model.RunStatusFailed,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "aaaaaaaa")
	assert.Contains(t, out, "Acme Corp")
	assert.Contains(t, out, "Medium")
	assert.Contains(t, out, "42s")
	// Long names are truncated for the table.
	assert.Contains(t, out, "A Very Long Company Name Th...")
	assert.NotContains(t, out, "Keeps Going LLC")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "aaaaaaaa", truncateID("aaaaaaaa-1111-2222"))
	assert.Equal(t, "short", truncateID("short"))
}
