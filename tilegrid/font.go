package tilegrid

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"unicode/utf8"
)

//go:embed fonts/*.json
var fontAssets embed.FS

// DefaultFont is the font used when the caller does not pick one.
const DefaultFont = "rundi"

// Font is an immutable pseudo-pixel font. Every supported character maps to
// a Height×width grid of abstract tile names; widths may differ between
// characters but are constant within one character's grid.
type Font struct {
	Name          string
	Height        int
	LowercaseOnly bool
	Characters    map[string][][]string
}

// fontFile is the on-disk schema. Unknown fields are rejected so a typo in
// an asset shows up as ErrMalformedAsset instead of silently loading.
type fontFile struct {
	Height        *int                  `json:"height"`
	LowercaseOnly bool                  `json:"lowercase_only"`
	Characters    map[string][][]string `json:"characters"`
}

// LoadFont loads a named font from the embedded assets.
func LoadFont(name string) (*Font, error) {
	sub, err := fs.Sub(fontAssets, "fonts")
	if err != nil {
		return nil, err
	}
	return LoadFontFS(sub, name)
}

// LoadFontFS loads <name>.json from fsys and validates it. The returned
// Font is immutable and safe to share between renders.
func LoadFontFS(fsys fs.FS, name string) (*Font, error) {
	data, err := fs.ReadFile(fsys, name+".json")
	if err != nil {
		return nil, fmt.Errorf("font %q: %w", name, ErrAssetNotFound)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var file fontFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("font %q: %v: %w", name, err, ErrMalformedAsset)
	}

	if file.Height == nil || *file.Height <= 0 {
		return nil, fmt.Errorf("font %q: missing or non-positive height: %w", name, ErrMalformedAsset)
	}
	if len(file.Characters) == 0 {
		return nil, fmt.Errorf("font %q: no characters: %w", name, ErrMalformedAsset)
	}

	for ch, grid := range file.Characters {
		if utf8.RuneCountInString(ch) != 1 {
			return nil, fmt.Errorf("font %q: character key %q is not a single character: %w", name, ch, ErrMalformedAsset)
		}
		if len(grid) != *file.Height {
			return nil, fmt.Errorf("font %q: character %q has %d rows, want %d: %w", name, ch, len(grid), *file.Height, ErrMalformedAsset)
		}
		width := len(grid[0])
		if width == 0 {
			return nil, fmt.Errorf("font %q: character %q has an empty row: %w", name, ch, ErrMalformedAsset)
		}
		for _, row := range grid {
			if len(row) != width {
				return nil, fmt.Errorf("font %q: character %q has ragged rows: %w", name, ch, ErrMalformedAsset)
			}
		}
	}

	return &Font{
		Name:          name,
		Height:        *file.Height,
		LowercaseOnly: file.LowercaseOnly,
		Characters:    file.Characters,
	}, nil
}

// loadFontAsset loads <name>.json from fsys, falling back to converting
// <name>.bdf when no JSON definition exists.
func loadFontAsset(fsys fs.FS, name string) (*Font, error) {
	font, err := LoadFontFS(fsys, name)
	if err == nil || !errors.Is(err, ErrAssetNotFound) {
		return font, err
	}

	data, bdfErr := fs.ReadFile(fsys, name+".bdf")
	if bdfErr != nil {
		return nil, err
	}
	return FromBDF(data, name, bdfCharset, defaultOnTile, defaultOffTile)
}
