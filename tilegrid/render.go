package tilegrid

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// RenderText flattens the grid into chat-ready lines, one per tile row,
// each the concatenation of that row's tokens.
func RenderText(g *Grid) []string {
	lines := make([]string, len(g.Rows))
	for i, row := range g.Rows {
		var b strings.Builder
		for _, h := range row {
			b.WriteString(h.Token)
		}
		lines[i] = b.String()
	}
	return lines
}

// RenderImage composites the grid into a single image. The tile size comes
// from the first tile's width; tiles are assumed uniform across a tileset.
// The canvas is transparent and sized (maxRowWidth×size, height×size), with
// the tile at row r, column c pasted at (c×size, r×size). Any fetch failure
// aborts the whole render.
func RenderImage(ctx context.Context, g *Grid, f *Fetcher) (image.Image, error) {
	width := g.Width()
	if width == 0 {
		return nil, fmt.Errorf("empty tile grid: %w", ErrUnsupportedCharacter)
	}

	// Tiles repeat heavily within one grid; decode each one once.
	decoded := make(map[string]image.Image)
	tile := func(h Handle) (image.Image, error) {
		if img, ok := decoded[h.CachePath]; ok {
			return img, nil
		}
		img, err := f.Tile(ctx, h)
		if err != nil {
			return nil, err
		}
		decoded[h.CachePath] = img
		return img, nil
	}

	var first Handle
	for _, row := range g.Rows {
		if len(row) > 0 {
			first = row[0]
			break
		}
	}
	firstImg, err := tile(first)
	if err != nil {
		return nil, err
	}
	size := firstImg.Bounds().Dx()

	canvas := imaging.New(width*size, len(g.Rows)*size, color.NRGBA{})
	for r, row := range g.Rows {
		for c, h := range row {
			img, err := tile(h)
			if err != nil {
				return nil, err
			}
			canvas = imaging.Paste(canvas, img, image.Pt(c*size, r*size))
		}
	}

	return canvas, nil
}
