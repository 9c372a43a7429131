package tilegrid

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed tilesets/*.json
var tilesetAssets embed.FS

// Kind distinguishes the two tileset families. Image tilesets resolve tiles
// to downloadable PNGs and ignore the context; emoji tilesets resolve tiles
// to chat tokens registered per context.
type Kind string

const (
	KindImage Kind = "image"
	KindEmoji Kind = "emoji"
)

// Handle is a resolved render reference for one abstract tile. Emoji-kind
// tilesets fill Token; image-kind tilesets fill URL and CachePath.
type Handle struct {
	Token     string
	URL       string
	CachePath string
}

// Registry is a tileset specialized to one context. It is immutable after
// Resolve and safe to share between renders.
type Registry struct {
	Name      string
	ContextID string
	Kind      Kind

	handles map[string]Handle
}

// Lookup resolves an abstract tile name to its render handle.
func (r *Registry) Lookup(name string) (Handle, error) {
	h, ok := r.handles[name]
	if !ok {
		return Handle{}, fmt.Errorf("tileset %q (context %q): tile %q: %w", r.Name, r.ContextID, name, ErrUnmappedTile)
	}
	return h, nil
}

// tilesetFile is the on-disk tileset schema.
type tilesetFile struct {
	Kind         Kind     `json:"kind"`
	ImageBaseURL string   `json:"image_base_url,omitempty"`
	Tiles        []string `json:"tiles"`
}

// Resolver loads tileset configurations and specializes them to a context.
// Assets holds the built-in <name>.json configurations; ConfigDir, when
// set, provides on-disk overrides plus the per-context token mappings under
// tileset_config/<context>/<name>.json; CacheDir is where downloaded image
// tiles land.
type Resolver struct {
	Assets    fs.FS
	ConfigDir string
	CacheDir  string
}

// NewResolver returns a Resolver over the embedded tileset configurations.
func NewResolver(configDir, cacheDir string) *Resolver {
	sub, err := fs.Sub(tilesetAssets, "tilesets")
	if err != nil {
		// embed layout is fixed at compile time
		panic(err)
	}
	return &Resolver{Assets: sub, ConfigDir: configDir, CacheDir: cacheDir}
}

// Resolve loads the named tileset and specializes it to contextID. Image
// tilesets resolve for any context; emoji tilesets require a token mapping
// for the given context.
func (rs *Resolver) Resolve(name, contextID string) (*Registry, error) {
	cfg, err := rs.config(name)
	if err != nil {
		return nil, err
	}

	reg := &Registry{Name: name, ContextID: contextID, Kind: cfg.Kind}

	switch cfg.Kind {
	case KindImage:
		reg.handles = make(map[string]Handle, len(cfg.Tiles))
		for _, tile := range cfg.Tiles {
			reg.handles[tile] = Handle{
				URL:       cfg.ImageBaseURL + "/" + tile + ".png",
				CachePath: filepath.Join(rs.CacheDir, name, tile+".png"),
			}
		}
	case KindEmoji:
		tokens, err := rs.contextMapping(name, contextID)
		if err != nil {
			return nil, err
		}
		reg.handles = make(map[string]Handle, len(tokens))
		for tile, token := range tokens {
			reg.handles[tile] = Handle{Token: token}
		}
	default:
		return nil, fmt.Errorf("tileset %q: unknown kind %q: %w", name, cfg.Kind, ErrMalformedAsset)
	}

	return reg, nil
}

// config reads the tileset configuration, preferring a ConfigDir override
// over the built-in assets.
func (rs *Resolver) config(name string) (*tilesetFile, error) {
	var data []byte
	var err error

	if rs.ConfigDir != "" {
		data, err = os.ReadFile(filepath.Join(rs.ConfigDir, "tilesets", name+".json"))
	}
	if rs.ConfigDir == "" || err != nil {
		data, err = fs.ReadFile(rs.Assets, name+".json")
	}
	if err != nil {
		return nil, fmt.Errorf("tileset %q: %w", name, ErrAssetNotFound)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var cfg tilesetFile
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("tileset %q: %v: %w", name, err, ErrMalformedAsset)
	}
	if len(cfg.Tiles) == 0 {
		return nil, fmt.Errorf("tileset %q: no tiles: %w", name, ErrMalformedAsset)
	}
	if cfg.Kind == KindImage && cfg.ImageBaseURL == "" {
		return nil, fmt.Errorf("tileset %q: image tileset without image_base_url: %w", name, ErrMalformedAsset)
	}

	return &cfg, nil
}

// contextMapping reads the per-context tile→token mapping of an emoji
// tileset.
func (rs *Resolver) contextMapping(name, contextID string) (map[string]string, error) {
	if contextID == "" {
		return nil, fmt.Errorf("tileset %q requires a context: %w", name, ErrAssetNotFound)
	}
	if rs.ConfigDir == "" {
		return nil, fmt.Errorf("tileset %q: no mapping for context %q: %w", name, contextID, ErrAssetNotFound)
	}

	path := filepath.Join(rs.ConfigDir, "tileset_config", contextID, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tileset %q: no mapping for context %q: %w", name, contextID, ErrAssetNotFound)
	}

	var tokens map[string]string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("tileset %q (context %q): %v: %w", name, contextID, err, ErrMalformedAsset)
	}
	return tokens, nil
}

// Tilesets lists the names of all known tilesets, built-in and on-disk.
func (rs *Resolver) Tilesets() ([]string, error) {
	seen := make(map[string]bool)

	entries, err := fs.ReadDir(rs.Assets, ".")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if n, ok := strings.CutSuffix(e.Name(), ".json"); ok {
			seen[n] = true
		}
	}

	if rs.ConfigDir != "" {
		entries, err := os.ReadDir(filepath.Join(rs.ConfigDir, "tilesets"))
		if err == nil {
			for _, e := range entries {
				if n, ok := strings.CutSuffix(e.Name(), ".json"); ok {
					seen[n] = true
				}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}
