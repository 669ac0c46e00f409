package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/containerd/errdefs"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/lac-dcc/DCC888/pkg/ir"
	"github.com/lac-dcc/DCC888/pkg/loader"
	"github.com/lac-dcc/DCC888/pkg/ssa"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = fmt.Errorf("key not found: %w", errdefs.ErrNotFound)

// Result is a cached conversion.
type Result struct {
	Document *loader.Document `msgpack:"document"`
	Stats    ssa.Stats        `msgpack:"stats"`
}

// Program rebuilds the cached SSA program.
func (r *Result) Program() (*ir.Program, error) {
	return r.Document.Build()
}

// Key returns the cache key of converting prog under env with policy. It
// is a SHA-256 of the canonical msgpack encoding of all three.
func Key(prog *ir.Program, env *ir.Env, policy ssa.Policy) (string, error) {
	data, err := msgpack.Marshal(struct {
		Document *loader.Document `msgpack:"document"`
		Policy   ssa.Policy       `msgpack:"policy"`
	}{loader.FromProgram(prog, env), policy})
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ResultStore caches conversion results and persists them to path.
type ResultStore struct {
	cache *StatsCache
	path  string
}

// NewResultStore creates a store holding at most maxEntries results. An
// empty path disables persistence.
func NewResultStore(maxEntries int, path string) *ResultStore {
	return &ResultStore{
		cache: NewStatsCache(Options{MaxSize: maxEntries}),
		path:  path,
	}
}

// Lookup returns the cached result for key.
func (s *ResultStore) Lookup(key string) (*Result, error) {
	data, ok := s.cache.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	var r Result
	if err := msgpack.Unmarshal(data, &r); err != nil {
		s.cache.Delete(key)
		return nil, fmt.Errorf("decode cached result %s: %w", key, err)
	}
	return &r, nil
}

// Store caches r under key.
func (s *ResultStore) Store(key string, r *Result) error {
	data, err := msgpack.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	s.cache.Set(key, data)
	return nil
}

// Convert returns the cached conversion of prog and env, running
// ssa.Convert and caching its result on a miss. hit reports whether the
// result came from the cache.
func (s *ResultStore) Convert(prog *ir.Program, env *ir.Env, opts ssa.Options) (r *Result, hit bool, err error) {
	policy := opts.Policy
	if policy == "" {
		policy = ssa.PolicyMaximal
	}
	key, err := Key(prog, env, policy)
	if err != nil {
		return nil, false, err
	}

	r, err = s.Lookup(key)
	if err == nil {
		return r, true, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, false, err
	}

	res, err := ssa.Convert(prog, env, opts)
	if err != nil {
		return nil, false, err
	}
	r = &Result{Document: loader.FromProgram(res.Program, res.Env), Stats: res.Stats}
	if err := s.Store(key, r); err != nil {
		return nil, false, err
	}
	return r, false, nil
}

// Len returns the number of cached results.
func (s *ResultStore) Len() int { return s.cache.Len() }

// Stats returns hit and miss counters.
func (s *ResultStore) Stats() Stats { return s.cache.Stats() }

// Save persists the store to disk.
func (s *ResultStore) Save() error {
	if s.path == "" {
		return errors.New("no persistence path set")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return s.cache.PersistToFile(s.path)
}

// Load restores the store from disk.
func (s *ResultStore) Load() error {
	if s.path == "" {
		return nil
	}
	return s.cache.LoadFromFile(s.path)
}
