package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	sourceRoot  = "/source"
	replicaRoot = "/replica"
)

// useMemFs replaces the package filesystem with an empty in-memory one that
// contains the source and replica roots.
func useMemFs(t *testing.T) {
	fs = afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(sourceRoot, 0755))
	require.NoError(t, fs.MkdirAll(replicaRoot, 0755))
}

// writeFiles creates the given files under root. Paths ending in a slash are
// created as empty directories.
func writeFiles(t *testing.T, root string, files map[string]string) {
	for path, contents := range files {
		fullPath := filepath.Join(root, path)
		if path[len(path)-1] == '/' {
			require.NoError(t, fs.MkdirAll(fullPath, 0755))
			continue
		}
		require.NoError(t, afero.WriteFile(fs, fullPath, []byte(contents), 0644))
	}
}

// readFiles returns the contents of every regular file under root, and an
// entry with a trailing slash for every empty directory.
func readFiles(t *testing.T, root string) map[string]string {
	files := map[string]string{}
	err := afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil || path == root {
			return err
		}

		relativePath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if fi.IsDir() {
			children, err := afero.ReadDir(fs, path)
			if err != nil {
				return err
			}
			if len(children) == 0 {
				files[relativePath+"/"] = ""
			}
			return nil
		}

		contents, err := afero.ReadFile(fs, path)
		if err != nil {
			return err
		}
		files[relativePath] = string(contents)
		return nil
	})
	require.NoError(t, err)
	return files
}
