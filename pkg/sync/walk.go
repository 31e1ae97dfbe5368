package sync

import (
	stdErrors "errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/sidkik/foldersync/pkg/errors"
)

// tree lists the contents of a directory tree. Paths are relative to the
// root and appear in walk order: lexical, with every directory listed before
// its children.
type tree struct {
	root  string
	files []string
	dirs  []string
}

// walkTree lists the regular files and directories under root. Paths that
// match one of the exclude patterns are skipped along with their children.
// Symlinks and other special files are ignored.
func walkTree(root string, exclude []string) (tree, error) {
	t := tree{root: root}
	err := afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relativePath, err := filepath.Rel(root, path)
		if err != nil {
			return errors.WithContext(err, "normalize path")
		}
		if strings.HasPrefix(relativePath, "..") {
			return errors.Errorf("%q is not within %q", path, root)
		}

		if relativePath == "." {
			return nil
		}

		if Excluded(relativePath, exclude) {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case fi.IsDir():
			t.dirs = append(t.dirs, relativePath)
		case fi.Mode().IsRegular():
			t.files = append(t.files, relativePath)
		}
		return nil
	})
	if err != nil {
		return tree{}, errors.WithContext(err, "walk "+root)
	}
	return t, nil
}

// Excluded returns whether the relative path matches any of the patterns.
// Patterns use doublestar syntax and always use forward slashes.
func Excluded(relativePath string, patterns []string) bool {
	slashPath := filepath.ToSlash(relativePath)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, slashPath); ok {
			return true
		}
	}
	return false
}

// ValidateExcludes returns an error if any of the patterns is malformed.
func ValidateExcludes(patterns []string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("malformed exclude pattern %q", pattern)
		}
	}
	return nil
}

func isNotExist(err error) bool {
	return os.IsNotExist(err) || stdErrors.Is(err, syscall.ENOTDIR)
}
