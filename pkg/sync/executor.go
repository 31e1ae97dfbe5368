package sync

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/foldersync/pkg/errors"
	"github.com/sidkik/foldersync/pkg/synclog"
)

const (
	// DefaultRetryLimit is the number of guarded attempts made for a file
	// operation before the final attempt whose error is returned.
	DefaultRetryLimit = 3

	// DefaultRetryDelay is how long to wait after a failed attempt.
	DefaultRetryDelay = 100 * time.Millisecond
)

// Variables mocked for unit testing.
var (
	copyFile   = copyFileImpl
	moveFile   = moveFileImpl
	removeFile = func(path string) error { return fs.Remove(path) }
)

// OpKind is the type of a filesystem mutation.
type OpKind int

const (
	// Copy copies Source over Destination.
	Copy OpKind = iota
	// Move renames Source to Destination.
	Move
	// DeleteFile removes the file at Destination.
	DeleteFile
	// CreateDir creates the directory at Destination and its parents.
	CreateDir
	// DeleteDir recursively removes the directory at Destination.
	DeleteDir
)

func (k OpKind) String() string {
	switch k {
	case Copy:
		return "copy"
	case Move:
		return "move"
	case DeleteFile:
		return "delete file"
	case CreateDir:
		return "create directory"
	case DeleteDir:
		return "delete directory"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// Operation is a single planned mutation of the replica.
type Operation struct {
	Kind OpKind

	// Source is only set for Copy and Move.
	Source      string
	Destination string
}

func (op Operation) String() string {
	if op.Kind == Copy || op.Kind == Move {
		return fmt.Sprintf("%s %s -> %s", op.Kind, op.Source, op.Destination)
	}
	return fmt.Sprintf("%s %s", op.Kind, op.Destination)
}

// Executor applies operations to the filesystem, retrying failed attempts.
type Executor struct {
	// RetryLimit is the number of attempts whose failure is logged and
	// retried. One more attempt is made after that, and its error is
	// returned.
	RetryLimit int
	RetryDelay time.Duration

	Clock  clockwork.Clock
	Logger synclog.Logger
}

// NewExecutor returns an Executor with the default retry policy.
func NewExecutor(logger synclog.Logger) *Executor {
	return &Executor{
		RetryLimit: DefaultRetryLimit,
		RetryDelay: DefaultRetryDelay,
		Clock:      clockwork.NewRealClock(),
		Logger:     logger,
	}
}

// Apply applies op. Failed attempts are logged and retried after
// RetryDelay, up to RetryLimit times. The error of the final attempt is
// returned as is.
func (e *Executor) Apply(op Operation) error {
	for attempt := 1; attempt <= e.RetryLimit; attempt++ {
		err := e.ApplyOnce(op)
		if err == nil {
			return nil
		}

		e.Logger.Log(fmt.Sprintf("[Failed: %s %s: %s]", op.Kind, op.Destination, err))
		log.WithError(err).WithFields(log.Fields{
			"operation": op.String(),
			"attempt":   attempt,
		}).Debug("File operation failed. Retrying.")
		e.Clock.Sleep(e.RetryDelay)
	}
	return e.ApplyOnce(op)
}

// ApplyOnce makes a single attempt at op.
func (e *Executor) ApplyOnce(op Operation) error {
	switch op.Kind {
	case Copy:
		return copyFile(op.Source, op.Destination)
	case Move:
		return moveFile(op.Source, op.Destination)
	case DeleteFile:
		// The file is already gone, which is what we wanted.
		if err := removeFile(op.Destination); err != nil && !isNotExist(err) {
			return errors.WithContext(err, "remove")
		}
		return nil
	case CreateDir:
		if err := fs.MkdirAll(op.Destination, 0755); err != nil {
			return errors.WithContext(err, "make directory")
		}
		return nil
	case DeleteDir:
		if err := fs.RemoveAll(op.Destination); err != nil {
			return errors.WithContext(err, "remove directory")
		}
		return nil
	default:
		return errors.Errorf("unknown operation kind %d", int(op.Kind))
	}
}

func copyFileImpl(src, dst string) error {
	if err := prepareDestination(dst); err != nil {
		return err
	}

	srcFile, err := fs.Open(src)
	if err != nil {
		return errors.WithContext(err, "open source")
	}
	defer srcFile.Close()

	fileInfo, err := srcFile.Stat()
	if err != nil {
		return errors.WithContext(err, "stat")
	}

	dstFile, err := fs.Create(dst)
	if err != nil {
		return errors.WithContext(err, "open destination")
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return errors.WithContext(err, "copy")
	}

	if err := dstFile.Close(); err != nil {
		return errors.WithContext(err, "close destination")
	}

	if err := fs.Chmod(dst, fileInfo.Mode()); err != nil {
		return errors.WithContext(err, "set file mode")
	}

	// Change the modification time as the last step so that it doesn't get
	// reset by other file operations.
	if err := fs.Chtimes(dst, time.Now(), fileInfo.ModTime()); err != nil {
		return errors.WithContext(err, "set file modtime")
	}
	return nil
}

func moveFileImpl(src, dst string) error {
	// Clearing the destination would delete the source when one path is
	// inside the other, so the file is first moved aside.
	if outer, ok := nestedPath(src, dst); ok {
		tmp, err := reservePath(outer)
		if err != nil {
			return errors.WithContext(err, "reserve temporary path")
		}

		if err := fs.Rename(src, tmp); err != nil {
			fs.Remove(tmp)
			return errors.WithContext(err, "move aside")
		}

		if err := renameOver(tmp, dst); err != nil {
			if restoreErr := fs.Rename(tmp, src); restoreErr != nil {
				log.WithError(restoreErr).WithField("path", tmp).Warn("Failed to restore moved file")
			}
			return err
		}
		return nil
	}
	return renameOver(src, dst)
}

// renameOver renames src to dst, replacing any file already at dst.
func renameOver(src, dst string) error {
	if err := prepareDestination(dst); err != nil {
		return err
	}

	if err := fs.Rename(src, dst); err != nil {
		return errors.WithContext(err, "rename")
	}
	return nil
}

// nestedPath returns the outer path if one of the paths is inside the other.
func nestedPath(a, b string) (string, bool) {
	switch {
	case isInside(a, b):
		return b, true
	case isInside(b, a):
		return a, true
	default:
		return "", false
	}
}

// isInside returns whether path is strictly inside dir.
func isInside(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != "." && rel != ".." &&
		!strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// reservePath creates an empty file next to path and returns its name.
func reservePath(path string) (string, error) {
	f, err := afero.TempFile(fs, filepath.Dir(path), "."+filepath.Base(path)+".move-")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return "", err
	}
	return name, nil
}

// prepareDestination makes sure that a regular file can be written to dst.
// The parent directory is created if necessary. Anything in the way is
// removed: a file where a parent directory should be, or a directory at dst
// itself.
func prepareDestination(dst string) error {
	parent := filepath.Dir(dst)
	if err := removeFileAncestor(parent); err != nil {
		return errors.WithContext(err, "clear parent")
	}

	if err := fs.MkdirAll(parent, 0755); err != nil {
		return errors.WithContext(err, "make parent")
	}

	isDir, err := dirExists(dst)
	if err != nil {
		return errors.WithContext(err, "stat destination")
	}

	if isDir {
		if err := fs.RemoveAll(dst); err != nil {
			return errors.WithContext(err, "remove directory at destination")
		}
	}
	return nil
}

// removeFileAncestor removes the closest existing ancestor of dir (or dir
// itself) if it's not a directory.
func removeFileAncestor(dir string) error {
	for {
		fi, err := fs.Stat(dir)
		if err == nil {
			if fi.IsDir() {
				return nil
			}
			return fs.Remove(dir)
		}

		if !isNotExist(err) {
			return err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}
