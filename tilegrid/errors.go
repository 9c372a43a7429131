package tilegrid

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the rendering core. Callers match them with
// errors.Is and translate them to user-facing replies; the core itself
// never logs and never retries.
var (
	// ErrAssetNotFound signals that a requested font or tileset
	// configuration does not exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrMalformedAsset signals that a font or tileset asset exists but
	// violates the expected schema.
	ErrMalformedAsset = errors.New("malformed asset")

	// ErrUnsupportedCharacter signals that the input text contains a
	// character absent from the selected font.
	ErrUnsupportedCharacter = errors.New("unsupported character")

	// ErrUnmappedTile signals that a tile name required by the font has no
	// entry in the resolved tileset mapping. This is a configuration
	// defect, not a user input error.
	ErrUnmappedTile = errors.New("unmapped tile")

	// ErrAssetFetchFailed signals that a required raster tile image could
	// not be retrieved or read.
	ErrAssetFetchFailed = errors.New("asset fetch failed")

	// ErrWrongTilesetKind signals a render mode the requested tileset can
	// never satisfy: text output from an image tileset or image output
	// from an emoji tileset. This is a user input error, not a
	// configuration defect.
	ErrWrongTilesetKind = errors.New("wrong tileset kind")
)

// CharError reports a character the selected font cannot render. It unwraps
// to ErrUnsupportedCharacter so hosts can branch on the kind while still
// naming the offending character in replies.
type CharError struct {
	Font string
	Char rune
}

func (e *CharError) Error() string {
	return fmt.Sprintf("font %q does not support character %q", e.Font, e.Char)
}

func (e *CharError) Unwrap() error { return ErrUnsupportedCharacter }
