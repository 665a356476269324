package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateEnv points the loader at a temp data dir with fetching off so
// no test reaches the network.
func generateEnv(t *testing.T) string {
	t.Helper()
	dataDir := t.TempDir()
	t.Setenv("ZI2ANKI_DATA_DIR", dataDir)
	t.Setenv("ZI2ANKI_TTS_DISABLED", "true")
	return dataDir
}

func TestGenerateCommand_WritesDeck(t *testing.T) {
	chars, words := writeFixture(t)
	dataDir := generateEnv(t)
	outPath := filepath.Join(dataDir, "out", "fixture.apkg")

	out, err := executeCommand(t, "generate", chars, words, "-o", outPath, "-d", "Fixture Deck")
	require.NoError(t, err)

	info, err := os.Stat(outPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	assert.Contains(t, out, "Deck written: "+outPath)
	assert.Contains(t, out, "notes: 2")
	assert.Contains(t, out, "skipped: 2")
}

func TestGenerateCommand_DefaultOutputPath(t *testing.T) {
	chars, words := writeFixture(t)
	dataDir := generateEnv(t)

	_, err := executeCommand(t, "generate", chars, words)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dataDir, "chinese_dict.apkg"))
	require.NoError(t, err)
}

func TestGenerateCommand_NoAudioSkipsCache(t *testing.T) {
	chars, words := writeFixture(t)
	dataDir := generateEnv(t)
	outPath := filepath.Join(dataDir, "na.apkg")

	out, err := executeCommand(t, "generate", chars, words, "-o", outPath, "--no-audio")
	require.NoError(t, err)

	assert.NotContains(t, out, "audio:")
	_, err = os.Stat(outPath)
	require.NoError(t, err)

	// The cache directory must not appear when audio is off.
	_, err = os.Stat(filepath.Join(dataDir, "audio_cache"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateCommand_ReportsDirOverride(t *testing.T) {
	chars, words := writeFixture(t)
	dataDir := generateEnv(t)
	reports := filepath.Join(dataDir, "my-reports")

	_, err := executeCommand(t, "generate", chars, words,
		"-o", filepath.Join(dataDir, "r.apkg"), "--reports-dir", reports)
	require.NoError(t, err)

	entries, err := os.ReadDir(reports)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestGenerateCommand_EmptyInputFails(t *testing.T) {
	dir := t.TempDir()
	chars := filepath.Join(dir, "chars.csv")
	words := filepath.Join(dir, "words.csv")
	require.NoError(t, os.WriteFile(chars, nil, 0o600))
	require.NoError(t, os.WriteFile(words, nil, 0o600))
	generateEnv(t)

	_, err := executeCommand(t, "generate", chars, words)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no words")
}

func TestGenerateCommand_RequiresTwoArgs(t *testing.T) {
	_, err := executeCommand(t, "generate")
	require.Error(t, err)
}
