package localcache

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// CacheFactory builds a cache from a full DSN. Additional schemes can
// be registered by embedding deployments before the DSN is resolved.
type CacheFactory func(dsn string) (Cache, error)

var factoryRegistry = struct {
	mu        sync.RWMutex
	factories map[string]CacheFactory
}{
	factories: map[string]CacheFactory{},
}

func RegisterCacheFactory(scheme string, factory CacheFactory) {
	scheme = normalizeScheme(scheme)
	if scheme == "" || factory == nil {
		return
	}
	factoryRegistry.mu.Lock()
	defer factoryRegistry.mu.Unlock()
	factoryRegistry.factories[scheme] = factory
}

func lookupCacheFactory(scheme string) (CacheFactory, bool) {
	scheme = normalizeScheme(scheme)
	factoryRegistry.mu.RLock()
	defer factoryRegistry.mu.RUnlock()
	factory, ok := factoryRegistry.factories[scheme]
	return factory, ok
}

// BuildCacheFromDSN resolves "file://path" (or a bare path) to a file
// cache and "memory://" to an in-memory one. Registered factories take
// precedence over the built-in schemes.
func BuildCacheFromDSN(dsn string) (Cache, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrInvalidInput
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	scheme := normalizeScheme(parsed.Scheme)
	if factory, ok := lookupCacheFactory(scheme); ok {
		return factory(dsn)
	}
	switch scheme {
	case "", "file":
		path, pathErr := dsnPath(parsed, dsn)
		if pathErr != nil {
			return nil, pathErr
		}
		return NewFileCache(path)
	case "memory", "mem", "inmem":
		return NewMemoryCache(), nil
	default:
		return nil, fmt.Errorf("unsupported cache scheme: %s", scheme)
	}
}

func dsnPath(parsed *url.URL, raw string) (string, error) {
	if parsed.Scheme == "" {
		return raw, nil
	}
	path := parsed.Path
	if parsed.Host != "" {
		path = parsed.Host + path
	}
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("cache dsn %q has no path", raw)
	}
	return path, nil
}

func normalizeScheme(scheme string) string {
	return strings.ToLower(strings.TrimSpace(scheme))
}
