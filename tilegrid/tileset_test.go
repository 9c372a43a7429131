package tilegrid

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tilesetFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, data := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return fsys
}

func writeContextMapping(t *testing.T, configDir, contextID, tileset, data string) {
	t.Helper()
	dir := filepath.Join(configDir, "tileset_config", contextID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, tileset+".json"), []byte(data), 0o644))
}

func TestResolveImageTileset(t *testing.T) {
	cacheDir := t.TempDir()
	rs := &Resolver{
		Assets: tilesetFS(map[string]string{
			"blocks.json": `{"kind": "image", "image_base_url": "https://tiles.example/dist", "tiles": ["blank", "block"]}`,
		}),
		CacheDir: cacheDir,
	}

	// image tilesets are context-independent
	for _, contextID := range []string{"", "12345"} {
		reg, err := rs.Resolve("blocks", contextID)
		require.NoError(t, err)
		assert.Equal(t, KindImage, reg.Kind)

		h, err := reg.Lookup("block")
		require.NoError(t, err)
		assert.Equal(t, "https://tiles.example/dist/block.png", h.URL)
		assert.Equal(t, filepath.Join(cacheDir, "blocks", "block.png"), h.CachePath)
		assert.Empty(t, h.Token)
	}
}

func TestResolveEmojiTileset(t *testing.T) {
	configDir := t.TempDir()
	writeContextMapping(t, configDir, "100", "squares", `{"blank": "<:blank:1>", "block": "<:block:2>"}`)

	rs := &Resolver{
		Assets: tilesetFS(map[string]string{
			"squares.json": `{"kind": "emoji", "tiles": ["blank", "block"]}`,
		}),
		ConfigDir: configDir,
	}

	reg, err := rs.Resolve("squares", "100")
	require.NoError(t, err)
	assert.Equal(t, KindEmoji, reg.Kind)

	h, err := reg.Lookup("block")
	require.NoError(t, err)
	assert.Equal(t, "<:block:2>", h.Token)

	// same tileset, different context, different tokens
	writeContextMapping(t, configDir, "200", "squares", `{"blank": "<:blank:9>", "block": "<:block:8>"}`)
	reg, err = rs.Resolve("squares", "200")
	require.NoError(t, err)
	h, err = reg.Lookup("block")
	require.NoError(t, err)
	assert.Equal(t, "<:block:8>", h.Token)
}

func TestResolveEmojiTilesetMissingContext(t *testing.T) {
	rs := &Resolver{
		Assets: tilesetFS(map[string]string{
			"squares.json": `{"kind": "emoji", "tiles": ["blank"]}`,
		}),
		ConfigDir: t.TempDir(),
	}

	_, err := rs.Resolve("squares", "999")
	assert.ErrorIs(t, err, ErrAssetNotFound)

	_, err = rs.Resolve("squares", "")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestResolveMissingTileset(t *testing.T) {
	rs := &Resolver{Assets: tilesetFS(nil)}
	_, err := rs.Resolve("nope", "1")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestResolveMalformedTileset(t *testing.T) {
	configDir := t.TempDir()
	writeContextMapping(t, configDir, "1", "badmap", `["not", "an", "object"]`)

	rs := &Resolver{
		Assets: tilesetFS(map[string]string{
			"badkind.json": `{"kind": "vector", "tiles": ["a"]}`,
			"notiles.json": `{"kind": "emoji", "tiles": []}`,
			"nourl.json":   `{"kind": "image", "tiles": ["a"]}`,
			"badmap.json":  `{"kind": "emoji", "tiles": ["a"]}`,
		}),
		ConfigDir: configDir,
	}

	for _, name := range []string{"badkind", "notiles", "nourl", "badmap"} {
		_, err := rs.Resolve(name, "1")
		assert.ErrorIs(t, err, ErrMalformedAsset, name)
	}
}

func TestLookupUnmappedTile(t *testing.T) {
	configDir := t.TempDir()
	// mapping covers "blank" but not "block"
	writeContextMapping(t, configDir, "1", "squares", `{"blank": "<:blank:1>"}`)

	rs := &Resolver{
		Assets: tilesetFS(map[string]string{
			"squares.json": `{"kind": "emoji", "tiles": ["blank", "block"]}`,
		}),
		ConfigDir: configDir,
	}

	reg, err := rs.Resolve("squares", "1")
	require.NoError(t, err)

	_, err = reg.Lookup("block")
	assert.ErrorIs(t, err, ErrUnmappedTile)
}

func TestConfigDirOverridesAssets(t *testing.T) {
	configDir := t.TempDir()
	dir := filepath.Join(configDir, "tilesets")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "blocks.json"),
		[]byte(`{"kind": "image", "image_base_url": "https://override.example", "tiles": ["block"]}`),
		0o644,
	))

	rs := &Resolver{
		Assets: tilesetFS(map[string]string{
			"blocks.json": `{"kind": "image", "image_base_url": "https://builtin.example", "tiles": ["block"]}`,
		}),
		ConfigDir: configDir,
		CacheDir:  t.TempDir(),
	}

	reg, err := rs.Resolve("blocks", "")
	require.NoError(t, err)

	h, err := reg.Lookup("block")
	require.NoError(t, err)
	assert.Equal(t, "https://override.example/block.png", h.URL)
}

func TestTilesetsListing(t *testing.T) {
	rs := NewResolver("", t.TempDir())
	names, err := rs.Tilesets()
	require.NoError(t, err)
	assert.Contains(t, names, "blocks")
	assert.Contains(t, names, "squares")
}
