package source

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobkc/pgmigrations/types"
)

// Dir loads migrations from a directory on the local filesystem.
type Dir struct {
	Path  string
	Limit int
}

func NewDir(path string, limit int) *Dir {
	return &Dir{Path: path, Limit: limit}
}

func (d *Dir) Migrations() ([]types.Migration, error) {
	abs, err := filepath.Abs(d.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrDirectory, d.Path, err)
	}
	return load(os.DirFS(abs), ".", d.Limit, d.Path)
}
