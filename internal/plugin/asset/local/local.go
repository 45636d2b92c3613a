// Package local stores localized images in a directory served by the site.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chirino/docsync/internal/config"
	registryasset "github.com/chirino/docsync/internal/registry/asset"
	"github.com/chirino/docsync/internal/tempfiles"
)

func init() {
	registryasset.Register(registryasset.Plugin{
		Name:   "local",
		Loader: load,
	})
}

func load(ctx context.Context) (registryasset.AssetStore, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil || strings.TrimSpace(cfg.AssetDir) == "" {
		return nil, fmt.Errorf("asset/local: asset directory is required")
	}
	return New(cfg.AssetDir, cfg.AssetPublicPrefix), nil
}

// Store writes assets into dir. The directory is created on first write.
type Store struct {
	dir    string
	prefix string
}

// New returns a Store rooted at dir whose public paths start with prefix.
func New(dir, prefix string) *Store {
	return &Store{
		dir:    filepath.Clean(dir),
		prefix: "/" + strings.Trim(prefix, "/"),
	}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) Exists(_ context.Context, name string) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.dir, name))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("asset/local: stat %s: %w", name, err)
	}
}

func (s *Store) Put(_ context.Context, name string, data io.Reader, _ string) error {
	if err := validName(name); err != nil {
		return err
	}
	if _, err := tempfiles.WriteAtomic(s.dir, name, data); err != nil {
		return fmt.Errorf("asset/local: %w", err)
	}
	return nil
}

func (s *Store) PublicPath(name string) string {
	if s.prefix == "/" {
		return "/" + name
	}
	return s.prefix + "/" + name
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("asset/local: invalid asset name %q", name)
	}
	return nil
}
