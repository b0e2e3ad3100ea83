// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

type (
	// Store caches parsed manifests per project directory for the lifetime of one
	// dispatch. It also remembers which warnings were already emitted.
	Store struct {
		mu        sync.Mutex
		logger    *slog.Logger
		manifests map[string]*viper.Viper
		warned    map[string]struct{}
	}

	// StoreOption configures a Store.
	StoreOption func(*Store)
)

// WithLogger routes the store's warnings to logger instead of slog.Default().
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		manifests: make(map[string]*viper.Viper),
		warned:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset drops every cached manifest and forgets emitted warnings.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.manifests)
	clear(s.warned)
}

// load returns the parsed manifest of projectDir along with the absolute directory
// used as its cache key.
func (s *Store) load(projectDir string) (*viper.Viper, string, error) {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve %s: %w", projectDir, err)
	}

	s.mu.Lock()
	cached, ok := s.manifests[dir]
	s.mu.Unlock()
	if ok {
		return cached, dir, nil
	}

	if !Exists(dir) {
		return nil, "", &NotInitializedError{Start: projectDir}
	}

	v := viper.New()
	v.SetConfigFile(Path(dir))
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, "", fmt.Errorf("%w %s: %w", ErrInvalidManifest, Path(dir), err)
	}

	if _, statErr := os.Stat(filepath.Join(dir, ObsoleteFileName)); statErr == nil {
		s.warnOnce(dir, "obsolete",
			"obsolete manifest is ignored, move its settings into "+FileName,
			"path", filepath.Join(dir, ObsoleteFileName))
	}

	s.mu.Lock()
	s.manifests[dir] = v
	s.mu.Unlock()
	return v, dir, nil
}

// warnOnce logs msg at warn level the first time it is seen for (projectDir, key).
func (s *Store) warnOnce(projectDir, key, msg string, args ...any) {
	id := projectDir + "\x00" + key

	s.mu.Lock()
	_, seen := s.warned[id]
	s.warned[id] = struct{}{}
	s.mu.Unlock()

	if seen {
		return
	}
	s.log().Warn(msg, append([]any{"project", projectDir}, args...)...)
}

func (s *Store) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
