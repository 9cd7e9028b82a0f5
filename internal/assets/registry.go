package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/julien-sobczak/the-studydeck/internal/helpers"
	"github.com/julien-sobczak/the-studydeck/internal/medias"
	"golang.org/x/exp/slices"
	"golang.org/x/text/unicode/norm"
)

// ErrUnaddressable is returned for files whose name cannot be referenced by an URL
// (ex: "cat#1.png" where everything after # is a fragment).
var ErrUnaddressable = errors.New("file name cannot be referenced by an URL")

// Asset is a static file served under /subject-assets/.
type Asset struct {
	// Path relative to the assets directory (always using /)
	Path string `json:"path"`
	// Canonical URL
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	Hash     string `json:"hash"`

	// Absolute path on disk
	AbsolutePath string `json:"-"`
}

// Registry maps every known subject asset to its served URL.
// A registry is built once at startup. New files (ex: extracted images) can be added later.
type Registry struct {
	Dir string

	mu     sync.RWMutex
	assets map[string]*Asset // by URL
}

// NewRegistry returns an empty registry for the given directory.
func NewRegistry(dir string) *Registry {
	return &Registry{
		Dir:    dir,
		assets: make(map[string]*Asset),
	}
}

// BuildRegistry walks the assets directory to register every file.
// Hidden files and directories are ignored, like files that no URL can reference.
func BuildRegistry(dir string) (*Registry, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid assets directory %q: %w", dir, err)
	}

	registry := NewRegistry(absDir)
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != absDir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if _, err := registry.AddFile(path); err != nil && !errors.Is(err, ErrUnaddressable) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to walk assets directory %q: %w", dir, err)
	}
	return registry, nil
}

// AddFile registers a file located inside the registry directory.
func (r *Registry) AddFile(path string) (*Asset, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	absDir, err := filepath.Abs(r.Dir)
	if err != nil {
		return nil, err
	}
	relativePath, err := filepath.Rel(absDir, absPath)
	if err != nil || relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("file %q is outside the assets directory %q", path, r.Dir)
	}
	url := ResolveSubjectAssetPath(filepath.ToSlash(relativePath))
	if _, suffix := splitSuffix(url); suffix != "" || !strings.HasPrefix(url, PublicPrefix) {
		return nil, fmt.Errorf("%w: %q", ErrUnaddressable, path)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%q is a directory", path)
	}
	hash, err := helpers.HashFromFile(absPath)
	if err != nil {
		return nil, err
	}

	asset := &Asset{
		Path:         filepath.ToSlash(relativePath),
		Size:         info.Size(),
		MimeType:     medias.MimeType(filepath.Ext(absPath)),
		Hash:         hash,
		AbsolutePath: absPath,
	}
	r.Add(asset)
	return asset, nil
}

// Add registers an asset. The URL is determined from the path.
func (r *Registry) Add(asset *Asset) {
	asset.Path = norm.NFC.String(asset.Path)
	asset.URL = ResolveSubjectAssetPath(asset.Path)
	if asset.AbsolutePath == "" && r.Dir != "" {
		asset.AbsolutePath = filepath.Join(r.Dir, filepath.FromSlash(asset.Path))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets[asset.URL] = asset
}

// Lookup searches for the asset referenced by a raw reference (relative, public-prefixed or canonical).
func (r *Registry) Lookup(ref string) (*Asset, bool) {
	url := ResolveLessonImageSource(ref)
	if !strings.HasPrefix(url, PublicPrefix) {
		return nil, false
	}
	url, _ = splitSuffix(url)
	r.mu.RLock()
	defer r.mu.RUnlock()
	asset, ok := r.assets[norm.NFC.String(url)]
	return asset, ok
}

// Len returns the number of registered assets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assets)
}

// Keys returns the sorted list of served URLs.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var keys []string
	for key := range r.assets {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Assets returns all assets sorted by URL.
func (r *Registry) Assets() []*Asset {
	keys := r.Keys()
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []*Asset
	for _, key := range keys {
		results = append(results, r.assets[key])
	}
	return results
}

// URLs returns the mapping between on-disk paths and served URLs.
func (r *Registry) URLs() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	results := make(map[string]string, len(r.assets))
	for _, asset := range r.assets {
		results[asset.Path] = asset.URL
	}
	return results
}

/* Manifest */

type manifest struct {
	Assets []*Asset `json:"assets"`
}

// WriteManifest dumps the registry in JSON.
func (r *Registry) WriteManifest(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(manifest{Assets: r.Assets()})
}

// ReadManifest restores a registry previously saved with WriteManifest.
func ReadManifest(rd io.Reader, dir string) (*Registry, error) {
	var m manifest
	if err := json.NewDecoder(rd).Decode(&m); err != nil {
		return nil, fmt.Errorf("invalid assets manifest: %w", err)
	}
	registry := NewRegistry(dir)
	for _, asset := range m.Assets {
		registry.Add(asset)
	}
	return registry, nil
}
