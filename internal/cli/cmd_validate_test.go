package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_PrintsStats(t *testing.T) {
	chars, words := writeFixture(t)

	out, err := executeCommand(t, "validate", chars, words)
	require.NoError(t, err)

	assert.Contains(t, out, "words:      4")
	assert.Contains(t, out, "characters: 5")
	assert.Contains(t, out, "translated: 2")
	assert.Contains(t, out, "without translation: 2")
}

func TestValidateCommand_EmptyInputExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	chars := filepath.Join(dir, "chars.csv")
	words := filepath.Join(dir, "words.csv")
	require.NoError(t, os.WriteFile(chars, nil, 0o600))
	require.NoError(t, os.WriteFile(words, nil, 0o600))

	out, err := executeCommand(t, "validate", chars, words)
	require.Error(t, err)
	assert.Contains(t, out, "words:      0")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
}

func TestValidateCommand_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(t, "validate", filepath.Join(dir, "absent.csv"), filepath.Join(dir, "absent2.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "characters")
}

func TestValidateCommand_RequiresTwoArgs(t *testing.T) {
	_, err := executeCommand(t, "validate", "only-one.csv")
	require.Error(t, err)
}
