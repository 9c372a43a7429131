package tilegrid

import (
	"errors"
	"net/http"

	"github.com/disintegration/imaging"

	"petbots.fbbdev.it/tilebot/log"
)

// Handler serves composited tile renders as PNG over HTTP, so the bot can
// deliver images by URL instead of uploading them.
type Handler struct {
	Service *Service
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	tileset := query.Get("tileset")
	if tileset == "" {
		http.NotFound(w, r)
		return
	}

	text := query.Get("text")
	if text == "" || len(text) > MaxChars {
		http.NotFound(w, r)
		return
	}

	art, err := h.Service.Render(r.Context(), tileset, query.Get("context"), text, ModeImage)
	if err != nil {
		switch {
		case errors.Is(err, ErrAssetNotFound), errors.Is(err, ErrUnsupportedCharacter), errors.Is(err, ErrWrongTilesetKind):
			http.NotFound(w, r)
		case errors.Is(err, ErrUnmappedTile), errors.Is(err, ErrMalformedAsset):
			log.WarningLogger.Print("tileset configuration incomplete: ", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		default:
			log.ErrorLogger.Print("render: ", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Add("Content-Type", "image/png")
	w.Header().Add("Cache-Control", "max-age=1, s-maxage=3600, public, immutable, stale-while-revalidate")
	if err := imaging.Encode(w, art.Image, imaging.PNG); err != nil {
		log.ErrorLogger.Print("png/http: ", err)
		log.WarningLogger.Print("could not encode png or write http response")
		// just in case Encode did not write anything
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
