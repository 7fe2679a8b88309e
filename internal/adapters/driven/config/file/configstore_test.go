package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewConfigStore_Success(t *testing.T) {
	store, dir := newStore(t)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesNestedDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewConfigStore(nested)
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create")
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not toml {{[["), 0600))

	store, err := NewConfigStore(dir)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestDefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}
	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".courselens"), dir)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))
	require.NoError(t, store.Set("embedding.dimensions", 768))
	require.NoError(t, store.Set("fusion.lexical_weight", 0.3))
	require.NoError(t, store.Set("context.anchor_content", true))

	assert.Equal(t, "nomic-embed-text", store.GetString("embedding.model"))
	assert.Equal(t, 768, store.GetInt("embedding.dimensions"))
	assert.InDelta(t, 0.3, store.GetFloat("fusion.lexical_weight"), 1e-9)
	assert.True(t, store.GetBool("context.anchor_content"))

	// Wrong types and missing keys return zero values.
	assert.Empty(t, store.GetString("embedding.dimensions"))
	assert.Zero(t, store.GetInt("embedding.model"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.False(t, store.GetBool("missing"))
	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_GetFloat_AcceptsIntegers(t *testing.T) {
	store, _ := newStore(t)
	store.mu.Lock()
	store.data["fusion.semantic_weight"] = int64(1)
	store.mu.Unlock()

	assert.InDelta(t, 1.0, store.GetFloat("fusion.semantic_weight"), 1e-9)
}

func TestConfigStore_WritesTables(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))
	require.NoError(t, store.Set("chat.provider", "ollama"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[embedding]")
	assert.Contains(t, string(data), "[chat]")
	assert.NotContains(t, string(data), `"embedding.model"`)
}

func TestConfigStore_Persistence(t *testing.T) {
	store, dir := newStore(t)

	require.NoError(t, store.Set("embedding.model", "text-embedding-004"))
	require.NoError(t, store.Set("generation.page_size", 250))
	require.NoError(t, store.Set("context.anchor_content", false))
	require.NoError(t, store.Set("top_level", "x"))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-004", reloaded.GetString("embedding.model"))
	assert.Equal(t, 250, reloaded.GetInt("generation.page_size"))
	v, ok := reloaded.Get("context.anchor_content")
	assert.True(t, ok)
	assert.Equal(t, false, v)
	assert.Equal(t, "x", reloaded.GetString("top_level"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Set("embedding.api_key", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Load_MissingFileIsEmpty(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Load())
	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_Set_WriteError(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Set("a", "b"))

	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("c", "d"))
}

func TestConfigStore_Set_UnmarshallableValue(t *testing.T) {
	store, _ := newStore(t)
	assert.Error(t, store.Set("channel", make(chan int)))
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"embedding.model":      "m",
		"embedding.dimensions": 768,
		"plain":                true,
	})

	emb, ok := nested["embedding"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "m", emb["model"])
	assert.Equal(t, 768, emb["dimensions"])
	assert.Equal(t, true, nested["plain"])

	assert.Equal(t, map[string]any{
		"embedding.model":      "m",
		"embedding.dimensions": 768,
		"plain":                true,
	}, flattenMap(nested, ""))
}
