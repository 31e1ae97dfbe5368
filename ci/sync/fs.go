package sync

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ghodss/yaml"

	"github.com/sidkik/foldersync/pkg/config"
	"github.com/sidkik/foldersync/pkg/errors"
)

type file struct {
	path     string
	contents string
	mode     os.FileMode
	modTime  time.Time
}

func (f file) WithPath(path string) file {
	f.path = path
	return f
}

func (f file) WithContents(contents string) file {
	f.contents = contents
	return f
}

func (f file) WithModTime(modTime time.Time) file {
	f.modTime = modTime
	return f
}

func randomFile(path string) file {
	randomTime := time.Date(2019, 11, 10, rand.Intn(23), rand.Intn(59), rand.Intn(59), 0, time.UTC)
	return file{
		path:     path,
		contents: strconv.Itoa(rand.Int()),
		mode:     os.FileMode(0640 | rand.Intn(8)),
		modTime:  randomTime,
	}
}

// mockFs contains helper methods for creating temporary source and replica
// trees for testing.
type mockFs struct {
	root         string
	sourceDir    string
	replicaDir   string
	logPath      string
	settingsPath string
}

type fsOp func(mockFs) error

func newMockFs() (mockFs, error) {
	root, err := os.MkdirTemp("", "foldersync-test")
	if err != nil {
		return mockFs{}, errors.WithContext(err, "make root dir")
	}

	sourceDir := filepath.Join(root, "source")
	if err := os.Mkdir(sourceDir, 0755); err != nil {
		return mockFs{}, errors.WithContext(err, "make source directory")
	}

	return mockFs{
		root:         root,
		sourceDir:    sourceDir,
		replicaDir:   filepath.Join(root, "replica"),
		logPath:      filepath.Join(root, "logs", "foldersync.log"),
		settingsPath: filepath.Join(root, "settings.yaml"),
	}, nil
}

// args returns the arguments for running foldersync on the mock trees.
func (fs mockFs) args() []string {
	return []string{"--config", fs.settingsPath, fs.sourceDir, fs.replicaDir, fs.logPath}
}

func (fs mockFs) cleanup() error {
	return os.RemoveAll(fs.root)
}

func (fs mockFs) writeSettings(settings config.Settings) error {
	settings.Version = config.SupportedSettingsVersion
	yamlBytes, err := yaml.Marshal(settings)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}
	return os.WriteFile(fs.settingsPath, yamlBytes, 0644)
}

func createFile(toCreate file) fsOp {
	return func(fs mockFs) error {
		toCreate.path = filepath.Join(fs.sourceDir, toCreate.path)

		parent := filepath.Dir(toCreate.path)
		if err := os.MkdirAll(parent, 0755); err != nil {
			return errors.WithContext(err, "make parent")
		}

		if err := os.WriteFile(toCreate.path, []byte(toCreate.contents), toCreate.mode); err != nil {
			return errors.WithContext(err, "write")
		}

		if err := os.Chmod(toCreate.path, toCreate.mode); err != nil {
			return errors.WithContext(err, "chmod")
		}

		if err := os.Chtimes(toCreate.path, time.Now(), toCreate.modTime); err != nil {
			return errors.WithContext(err, "chtimes")
		}
		return nil
	}
}

func removeFile(path string) fsOp {
	return func(fs mockFs) error {
		return os.Remove(filepath.Join(fs.sourceDir, path))
	}
}

func renameFile(from, to string) fsOp {
	return func(fs mockFs) error {
		dst := filepath.Join(fs.sourceDir, to)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return errors.WithContext(err, "make parent")
		}
		return os.Rename(filepath.Join(fs.sourceDir, from), dst)
	}
}

func getReplicaFile(fs mockFs, path string) (file, bool, error) {
	fullPath := filepath.Join(fs.replicaDir, path)
	fi, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return file{}, false, nil
		}
		return file{}, false, errors.WithContext(err, "stat")
	}

	contents, err := os.ReadFile(fullPath)
	if err != nil {
		return file{}, false, errors.WithContext(err, "read")
	}

	return file{
		path:     path,
		contents: string(contents),
		mode:     fi.Mode().Perm(),
		modTime:  fi.ModTime().UTC(),
	}, true, nil
}

type replicaAssertion func(mockFs) error

func shouldExist(exp file) replicaAssertion {
	return func(fs mockFs) error {
		actual, exists, err := getReplicaFile(fs, exp.path)
		if err != nil {
			return errors.WithContext(err, "get replica file")
		}

		if !exists {
			return fmt.Errorf("file %q does not exist", exp.path)
		}

		if actual != exp {
			return fmt.Errorf("expected file %v, got %v", exp, actual)
		}
		return nil
	}
}

func shouldNotExist(path string) replicaAssertion {
	return func(fs mockFs) error {
		_, exists, err := getReplicaFile(fs, path)
		if err != nil {
			return errors.WithContext(err, "get replica file")
		}

		if exists {
			return fmt.Errorf("file %q exists", path)
		}
		return nil
	}
}
