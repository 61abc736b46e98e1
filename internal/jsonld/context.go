package jsonld

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"
)

const DefaultContextVersion = "v1"

var (
	ErrContextNotFound = errors.New("context not found")
	ErrInvalidVersion  = errors.New("invalid context version")
	ErrMissingContext  = errors.New("context document missing @context")
)

//go:embed contexts/*.jsonld
var embeddedContexts embed.FS

// ContextLoader loads versioned JSON-LD contexts with in-memory caching.
// Contexts are resolved locally so compaction never reaches the network.
type ContextLoader struct {
	mu    sync.RWMutex
	cache map[string]map[string]any
	fsys  fs.FS
}

// NewContextLoader reads <version>.jsonld files from fsys. A nil fsys uses
// the contexts embedded in the binary.
func NewContextLoader(fsys fs.FS) *ContextLoader {
	if fsys == nil {
		sub, err := fs.Sub(embeddedContexts, "contexts")
		if err != nil {
			panic(err)
		}
		fsys = sub
	}
	return &ContextLoader{
		cache: make(map[string]map[string]any),
		fsys:  fsys,
	}
}

// Load returns the JSON-LD context document for the requested version.
func (l *ContextLoader) Load(version string) (map[string]any, error) {
	if version == "" {
		return nil, ErrInvalidVersion
	}

	l.mu.RLock()
	if cached, ok := l.cache[version]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	data, err := fs.ReadFile(l.fsys, fmt.Sprintf("%s.jsonld", version))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrContextNotFound
		}
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse context %s: %w", version, err)
	}
	if _, ok := doc["@context"]; !ok {
		return nil, ErrMissingContext
	}

	l.mu.Lock()
	l.cache[version] = doc
	l.mu.Unlock()

	return doc, nil
}

// LoadDefaultContext loads the default context version.
func LoadDefaultContext() (map[string]any, error) {
	return defaultLoader.Load(DefaultContextVersion)
}

var defaultLoader = NewContextLoader(nil)

func extractContext(contextDoc map[string]any) (any, error) {
	ctx, ok := contextDoc["@context"]
	if !ok {
		return nil, ErrMissingContext
	}
	return ctx, nil
}
