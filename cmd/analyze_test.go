package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadContractText_Inline(t *testing.T) {
	analyzeText = "inline contract body"
	analyzeFile = ""
	t.Cleanup(func() { analyzeText = ""; analyzeFile = "" })

	text, err := loadContractText()
	require.NoError(t, err)
	assert.Equal(t, "inline contract body", text)
}

func TestLoadContractText_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contract.txt")
	require.NoError(t, os.WriteFile(path, []byte("file contract body"), 0o644))

	analyzeText = ""
	analyzeFile = path
	t.Cleanup(func() { analyzeText = ""; analyzeFile = "" })

	text, err := loadContractText()
	require.NoError(t, err)
	assert.Equal(t, "file contract body", text)
}

func TestLoadContractText_Missing(t *testing.T) {
	analyzeText = ""
	analyzeFile = ""

	_, err := loadContractText()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "either --file or --text is required")
}

func TestLoadContractText_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n"), 0o644))

	analyzeText = ""
	analyzeFile = path
	t.Cleanup(func() { analyzeFile = "" })

	_, err := loadContractText()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}
