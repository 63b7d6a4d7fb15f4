package variable

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/patrickmn/go-cache"
)

// Documents loads file references relative to a base directory and caches
// their contents for the lifetime of a run.
type Documents struct {
	Dir   string
	cache *cache.Cache
}

// NewDocuments returns a loader rooted at dir.
func NewDocuments(dir string) *Documents {
	return &Documents{
		Dir:   dir,
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// Load reads path, resolving relative paths against the loader directory.
func (d *Documents) Load(path string) (string, error) {
	full := d.path(path)
	if cached, ok := d.cache.Get(full); ok {
		return cached.(string), nil
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text := string(data)
	d.cache.Set(full, text, cache.NoExpiration)
	return text, nil
}

func (d *Documents) path(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(d.Dir, path)
}
