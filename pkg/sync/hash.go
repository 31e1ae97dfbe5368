package sync

import (
	"crypto/md5"
	"encoding/hex"
	"io"

	"github.com/spf13/afero"

	"github.com/sidkik/foldersync/pkg/errors"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// Fingerprint returns the MD5 digest of the file at the given path as 32
// lowercase hex characters. The file is read in full on every call.
func Fingerprint(path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", errors.WithContext(err, "open")
	}
	defer f.Close()

	hasher := md5.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", errors.WithContext(err, "read")
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// FilesEqual returns whether the files at the two paths have the same
// contents. It returns false if either path isn't a regular file.
func FilesEqual(pathA, pathB string) (bool, error) {
	for _, path := range []string{pathA, pathB} {
		exists, err := fileExists(path)
		if err != nil {
			return false, errors.WithContext(err, "stat")
		}
		if !exists {
			return false, nil
		}
	}

	sumA, err := Fingerprint(pathA)
	if err != nil {
		return false, errors.WithContext(err, "hash "+pathA)
	}

	sumB, err := Fingerprint(pathB)
	if err != nil {
		return false, errors.WithContext(err, "hash "+pathB)
	}
	return sumA == sumB, nil
}

// fileExists returns whether path exists and is a regular file.
func fileExists(path string) (bool, error) {
	fi, err := fs.Stat(path)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}

// dirExists returns whether path exists and is a directory.
func dirExists(path string) (bool, error) {
	fi, err := fs.Stat(path)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return fi.IsDir(), nil
}
