package tilegrid

import (
	"fmt"

	"github.com/zachomedia/go-bdf"
	"golang.org/x/image/math/fixed"
)

// Tile names BDF-derived fonts draw with; the built-in tilesets map both.
const (
	defaultOnTile  = "block"
	defaultOffTile = "blank"
)

// bdfCharset lists the characters converted out of a BDF font dropped into
// the config dir.
const bdfCharset = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789 .,:;!?'\"()+-*/=<>@#&%"

// FromBDF derives a tile font from a BDF bitmap font: lit pixels of each
// glyph become onTile, dark ones offTile. charset lists the characters to
// convert; glyphs missing from the BDF are skipped, so callers that need
// full coverage should check Characters afterwards. The resulting cells are
// advance wide and line-height tall.
func FromBDF(data []byte, name string, charset string, onTile, offTile string) (*Font, error) {
	parsed, err := bdf.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("font %q: %v: %w", name, err, ErrMalformedAsset)
	}

	face := parsed.NewFace()
	metrics := face.Metrics()
	height := metrics.Height.Ceil()
	if height <= 0 {
		return nil, fmt.Errorf("font %q: non-positive line height: %w", name, ErrMalformedAsset)
	}

	dot := fixed.Point26_6{X: 0, Y: metrics.Ascent}
	chars := make(map[string][][]string, len(charset))

	for _, r := range charset {
		dr, mask, maskp, advance, ok := face.Glyph(dot, r)
		if !ok {
			continue
		}
		width := advance.Ceil()
		if width <= 0 {
			continue
		}

		grid := make([][]string, height)
		for y := range grid {
			row := make([]string, width)
			for x := range row {
				row[x] = offTile
			}
			grid[y] = row
		}

		// The mask pixel at maskp+(p-dr.Min) covers destination pixel p.
		for py := dr.Min.Y; py < dr.Max.Y; py++ {
			for px := dr.Min.X; px < dr.Max.X; px++ {
				if py < 0 || py >= height || px < 0 || px >= width {
					continue
				}
				_, _, _, a := mask.At(maskp.X+px-dr.Min.X, maskp.Y+py-dr.Min.Y).RGBA()
				if a >= 0x8000 {
					grid[py][px] = onTile
				}
			}
		}

		chars[string(r)] = grid
	}

	if len(chars) == 0 {
		return nil, fmt.Errorf("font %q: charset has no coverage: %w", name, ErrMalformedAsset)
	}

	return &Font{Name: name, Height: height, Characters: chars}, nil
}
