package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundtrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.Nil(t, s.Get("missing"))

	require.NoError(t, s.Set(KeyContacts, []byte(`[{"name":"a"}]`)))
	assert.Equal(t, []byte(`[{"name":"a"}]`), s.Get(KeyContacts))

	require.NoError(t, s.Remove(KeyContacts))
	assert.Nil(t, s.Get(KeyContacts))
}

func TestFileStoreRemoveMissingIsNoop(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Remove("never-written"))
}

func TestLoadJSONMalformedIsAbsent(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyActivity+".json"), []byte("{not json"), 0600))

	var out []string
	assert.False(t, LoadJSON(s, KeyActivity, &out))
	assert.Empty(t, out)
}

func TestSaveLoadJSON(t *testing.T) {
	s := NewMemStore()
	in := map[string]float64{"ETH": 1.5}
	require.NoError(t, SaveJSON(s, KeySnapshots, in))

	var out map[string]float64
	assert.True(t, LoadJSON(s, KeySnapshots, &out))
	assert.Equal(t, in, out)
}
