package recipe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wokai/wokcook/internal/domain"
)

// LoadFile reads and validates one recipe JSON file. When the file has no
// id the file name is used.
func LoadFile(path string) (*domain.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipe %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading recipe %s: %w", path, err)
	}
	if r.ID == "" {
		r.ID = Slug(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	return r, nil
}

// LoadDir adds every *.json recipe in dir to the source. Invalid files are
// logged and skipped. It returns the number of recipes loaded.
func (s *MemorySource) LoadDir(ctx context.Context, dir string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("listing recipes in %s: %w", dir, err)
	}

	loaded := 0
	for _, p := range paths {
		r, err := LoadFile(p)
		if err != nil {
			s.log.Warn("skipping %s: %v", p, err)
			continue
		}
		if err := s.Add(ctx, r); err != nil {
			s.log.Warn("skipping %s: %v", p, err)
			continue
		}
		loaded++
	}
	s.log.Info("loaded %d recipes from %s", loaded, dir)
	return loaded, nil
}
