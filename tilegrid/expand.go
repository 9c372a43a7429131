package tilegrid

import "strings"

// Grid is the expanded tile layout of one piece of text. It always has the
// font's height; row widths vary with the glyph widths of the input. A Grid
// belongs to the render that built it.
type Grid struct {
	Rows [][]Handle
}

// Width returns the widest row in tiles.
func (g *Grid) Width() int {
	w := 0
	for _, row := range g.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// Expand lays text out as a tile grid: each character's tile-name grid is
// looked up in the font, resolved through the registry, and appended
// row-wise so characters sit side by side in input order. Any failure
// aborts the whole expansion; there is no partial output.
func Expand(text string, f *Font, reg *Registry) (*Grid, error) {
	if f.LowercaseOnly {
		text = strings.ToLower(text)
	}

	rows := make([][]Handle, f.Height)
	for _, r := range text {
		glyph, ok := f.Characters[string(r)]
		if !ok {
			return nil, &CharError{Font: f.Name, Char: r}
		}
		for y := 0; y < f.Height; y++ {
			for _, tile := range glyph[y] {
				h, err := reg.Lookup(tile)
				if err != nil {
					return nil, err
				}
				rows[y] = append(rows[y], h)
			}
		}
	}

	return &Grid{Rows: rows}, nil
}
