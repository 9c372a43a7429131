package tilegrid

import (
	"context"
	"image/color"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tinyFonts holds a one-row font so service tests stay readable.
var tinyFonts = fstest.MapFS{
	"tiny.json": &fstest.MapFile{Data: []byte(
		`{"height": 1, "characters": {"h": [["block"]], "i": [["block"]]}}`,
	)},
}

func TestServiceRenderTextMode(t *testing.T) {
	configDir := t.TempDir()
	writeContextMapping(t, configDir, "42", "squares", `{"block": "B"}`)

	service := &Service{
		FontName: "tiny",
		Fonts:    tinyFonts,
		Tilesets: &Resolver{
			Assets:    tilesetFS(map[string]string{"squares.json": `{"kind": "emoji", "tiles": ["block"]}`}),
			ConfigDir: configDir,
		},
	}

	art, err := service.Render(context.Background(), "squares", "42", "hi", ModeText)
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.Equal(t, []string{"BB"}, art.Lines)
	assert.Nil(t, art.Image)
}

func TestServiceRenderImageMode(t *testing.T) {
	const size = 4
	ts := newTileServer(t, size, map[string]color.NRGBA{"block": red})

	service := &Service{
		FontName: "tiny",
		Fonts:    tinyFonts,
		Tilesets: &Resolver{
			Assets: tilesetFS(map[string]string{
				"blocks.json": `{"kind": "image", "image_base_url": "` + ts.srv.URL + `", "tiles": ["block"]}`,
			}),
			CacheDir: t.TempDir(),
		},
		Fetcher: &Fetcher{},
	}

	art, err := service.Render(context.Background(), "blocks", "", "hi", ModeImage)
	require.NoError(t, err)
	require.NotNil(t, art.Image)
	assert.Equal(t, 2*size, art.Image.Bounds().Dx())
	assert.Equal(t, size, art.Image.Bounds().Dy())
	assert.Nil(t, art.Lines)
}

func TestServiceModeTilesetKindMismatch(t *testing.T) {
	configDir := t.TempDir()
	writeContextMapping(t, configDir, "42", "squares", `{"block": "B"}`)

	service := &Service{
		FontName: "tiny",
		Fonts:    tinyFonts,
		Tilesets: &Resolver{
			Assets: tilesetFS(map[string]string{
				"squares.json": `{"kind": "emoji", "tiles": ["block"]}`,
				"blocks.json":  `{"kind": "image", "image_base_url": "https://tiles.example", "tiles": ["block"]}`,
			}),
			ConfigDir: configDir,
			CacheDir:  t.TempDir(),
		},
	}

	_, err := service.Render(context.Background(), "blocks", "42", "hi", ModeText)
	assert.ErrorIs(t, err, ErrWrongTilesetKind, "image tilesets have no text tokens")
	assert.NotErrorIs(t, err, ErrUnmappedTile, "a mode mismatch is not a configuration defect")

	_, err = service.Render(context.Background(), "squares", "42", "hi", ModeImage)
	assert.ErrorIs(t, err, ErrWrongTilesetKind, "emoji tilesets have no tile images")
	assert.NotErrorIs(t, err, ErrAssetFetchFailed, "a mode mismatch is not a transient fetch failure")
}

func TestServiceEmptyText(t *testing.T) {
	service := &Service{
		FontName: "tiny",
		Fonts:    tinyFonts,
		Tilesets: &Resolver{Assets: tilesetFS(nil)},
	}

	for _, mode := range []Mode{ModeText, ModeImage} {
		_, err := service.Render(context.Background(), "blocks", "", "", mode)
		assert.ErrorIs(t, err, ErrUnsupportedCharacter)
	}
}

func TestServiceBDFFontFallback(t *testing.T) {
	configDir := t.TempDir()
	writeContextMapping(t, configDir, "9", "squares", `{"block": "#", "blank": "."}`)

	service := &Service{
		FontName: "dotty",
		Fonts: fstest.MapFS{
			"dotty.bdf": &fstest.MapFile{Data: []byte(testBDF)},
		},
		Tilesets: &Resolver{
			Assets:    tilesetFS(map[string]string{"squares.json": `{"kind": "emoji", "tiles": ["blank", "block"]}`}),
			ConfigDir: configDir,
		},
	}

	art, err := service.Render(context.Background(), "squares", "9", "a", ModeText)
	require.NoError(t, err)
	require.Len(t, art.Lines, 5)
	lit := 0
	for _, line := range art.Lines {
		assert.Len(t, line, 4, "cell is advance wide")
		lit += strings.Count(line, "#")
	}
	assert.Equal(t, 10, lit, "every bitmap pixel maps to an on-tile token")
}

func TestServiceUnknownFont(t *testing.T) {
	service := &Service{
		FontName: "nope",
		Fonts:    tinyFonts,
		Tilesets: &Resolver{Assets: tilesetFS(nil)},
	}

	_, err := service.Render(context.Background(), "blocks", "", "hi", ModeImage)
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestServiceUnknownMode(t *testing.T) {
	service := &Service{
		FontName: "tiny",
		Fonts:    tinyFonts,
		Tilesets: &Resolver{
			Assets:   tilesetFS(map[string]string{"blocks.json": `{"kind": "image", "image_base_url": "https://tiles.example", "tiles": ["block"]}`}),
			CacheDir: t.TempDir(),
		},
	}

	_, err := service.Render(context.Background(), "blocks", "", "hi", Mode(99))
	assert.Error(t, err)
}
