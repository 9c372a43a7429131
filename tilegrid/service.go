package tilegrid

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
)

// Resource limits
const (
	MaxChars = 100
)

// Mode selects the output artifact of a render.
type Mode int

const (
	ModeText Mode = iota
	ModeImage
)

// Artifact is the result of one render: chat lines in text mode, a single
// composited image in image mode.
type Artifact struct {
	Lines []string
	Image image.Image
}

// Service wires fonts, tilesets and the tile cache into the render entry
// point used by the bot and the HTTP image handler. A render is a pure
// function of its inputs plus static and cached assets; concurrent renders
// share nothing mutable.
type Service struct {
	// FontName picks the font, DefaultFont when empty.
	FontName string

	// Fonts is searched before the embedded font assets when set. It may
	// hold <name>.json definitions or <name>.bdf bitmap fonts, which are
	// converted on load.
	Fonts fs.FS

	Tilesets *Resolver
	Fetcher  *Fetcher
}

// Render turns text into an artifact using the named tileset resolved for
// contextID. Every failure is a typed error from this package; nothing is
// retried and no partial artifact is ever returned.
func (s *Service) Render(ctx context.Context, tileset, contextID, text string, mode Mode) (*Artifact, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text: %w", ErrUnsupportedCharacter)
	}

	fontName := s.FontName
	if fontName == "" {
		fontName = DefaultFont
	}

	var font *Font
	var err error
	if s.Fonts != nil {
		font, err = loadFontAsset(s.Fonts, fontName)
	}
	if s.Fonts == nil || errors.Is(err, ErrAssetNotFound) {
		font, err = LoadFont(fontName)
	}
	if err != nil {
		return nil, err
	}

	reg, err := s.Tilesets.Resolve(tileset, contextID)
	if err != nil {
		return nil, err
	}

	grid, err := Expand(text, font, reg)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeText:
		if reg.Kind != KindEmoji {
			return nil, fmt.Errorf("tileset %q has no text tokens: %w", tileset, ErrWrongTilesetKind)
		}
		return &Artifact{Lines: RenderText(grid)}, nil
	case ModeImage:
		if reg.Kind != KindImage {
			return nil, fmt.Errorf("tileset %q has no tile images: %w", tileset, ErrWrongTilesetKind)
		}
		fetcher := s.Fetcher
		if fetcher == nil {
			fetcher = &Fetcher{}
		}
		img, err := RenderImage(ctx, grid, fetcher)
		if err != nil {
			return nil, err
		}
		return &Artifact{Image: img}, nil
	default:
		return nil, fmt.Errorf("unknown render mode %d", mode)
	}
}
