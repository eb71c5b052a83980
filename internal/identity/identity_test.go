package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "identity.yaml")
	f := NewFile(path)

	assert.Equal(t, "", f.LoadName())

	require.NoError(t, f.SaveName("  Ann  "))
	assert.Equal(t, "Ann", f.LoadName())

	// пустое имя не затирает сохранённое
	require.NoError(t, f.SaveName(" "))
	assert.Equal(t, "Ann", NewFile(path).LoadName())
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unterminated"), 0o600))

	_, err := NewFile(path).Load()
	assert.Error(t, err)

	require.NoError(t, NewFile(path).SaveName("Bob"))
	assert.Equal(t, "Bob", NewFile(path).LoadName())
}
