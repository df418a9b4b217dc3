package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of compiled scripts kept by a [Loader] when
// no size is configured.
const DefaultCacheSize = 64

type compiledScript struct {
	modTime     time.Time
	transformer Transformer
}

// Loader compiles transformation scripts from disk and caches them by path.
// A cached script is recompiled once its file is modified.
type Loader struct {
	cache *lru.Cache[string, compiledScript]
}

// NewLoader creates a Loader holding at most size compiled scripts.
func NewLoader(size int) (*Loader, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, compiledScript](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create script cache: %w", err)
	}
	return &Loader{cache: cache}, nil
}

// Load returns the compiled script at path. The script kind is chosen by file
// extension: ".cel" for CEL expressions and ".go" for Go scripts.
func (l *Loader) Load(path string) (Transformer, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve script path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat script: %w", err)
	}
	if cached, ok := l.cache.Get(path); ok && info.ModTime().Equal(cached.modTime) {
		return cached.transformer, nil
	}

	src, err := os.ReadFile(path) //nolint:gosec // scripts are configured by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	var transformer Transformer
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cel":
		transformer, err = CompileCEL(string(src))
	case ".go":
		transformer, err = CompileGo(filepath.Base(path), string(src))
	default:
		return nil, fmt.Errorf("%w %q: %s", ErrUnsupportedScript, ext, path)
	}
	if err != nil {
		return nil, err
	}
	l.cache.Add(path, compiledScript{modTime: info.ModTime(), transformer: transformer})
	return transformer, nil
}

// Evict drops the compiled script at path, if cached.
func (l *Loader) Evict(path string) bool {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return l.cache.Remove(path)
}

// Len returns the number of cached scripts.
func (l *Loader) Len() int { return l.cache.Len() }
