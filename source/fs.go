package source

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/gobkc/pgmigrations/types"
)

const scriptSuffix = ".sql"

// FS loads migrations from a directory inside any fs.FS, embed.FS included.
type FS struct {
	FS    fs.FS
	Dir   string
	Limit int
}

func NewFS(fsys fs.FS, dir string, limit int) *FS {
	if dir == "" {
		dir = "."
	}
	return &FS{FS: fsys, Dir: dir, Limit: limit}
}

func (s *FS) Migrations() ([]types.Migration, error) {
	return load(s.FS, s.Dir, s.Limit, s.Dir)
}

// load lists dir, keeps the first limit entries (when limit > 0), drops
// anything that is not a .sql file and prepends the bootstrap unit. label is
// the directory name used in error messages.
func load(fsys fs.FS, dir string, limit int, label string) ([]types.Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrDirectory, label, err)
	}

	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	list := []types.Migration{Bootstrap()}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), scriptSuffix) {
			continue
		}

		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", types.ErrDirectory, label, err)
		}

		mig, err := NewMigration(name, string(raw))
		if err != nil {
			return nil, err
		}
		list = append(list, mig)
	}

	return list, nil
}
