package sync

import (
	"fmt"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/foldersync/pkg/diff"
	"github.com/sidkik/foldersync/pkg/errors"
	"github.com/sidkik/foldersync/pkg/synclog"
)

// Reconciler makes the replica directory a copy of the source directory.
type Reconciler struct {
	Source  string
	Replica string

	// Exclude lists doublestar patterns, relative to both roots, of paths
	// that are never synced.
	Exclude []string

	Logger   synclog.Logger
	Executor *Executor
}

// RunPass runs a single reconciliation, bracketed by the pass start and end
// events.
func (r *Reconciler) RunPass() error {
	r.Logger.StartPass()
	defer r.Logger.EndPass()

	r.Logger.Log(fmt.Sprintf("Synchronization started from %s to %s", r.Source, r.Replica))
	if err := r.Reconcile(); err != nil {
		r.Logger.Log(fmt.Sprintf("Synchronization failed from %s to %s: %s", r.Source, r.Replica, err))
		return err
	}
	r.Logger.Log(fmt.Sprintf("Synchronization completed from %s to %s", r.Source, r.Replica))
	return nil
}

// Reconcile converges the replica to the source. Each step relies on the
// file contents settled by the previous ones, so the order matters:
//  1. Overwrite replica files whose contents differ from the source file at
//     the same path.
//  2. Index the replica by content.
//  3. Move replica files that have the contents of a source file, but are
//     at the wrong path.
//  4. Copy source files that are still missing.
//  5. Delete replica files that don't exist in the source.
//  6. Delete replica directories that don't exist in the source.
//  7. Create source directories that are missing in the replica.
//
// Reconcile stops at the first file operation that fails after retrying.
// Directory failures are only logged.
func (r *Reconciler) Reconcile() error {
	source, err := walkTree(r.Source, r.Exclude)
	if err != nil {
		return errors.WithContext(err, "list source")
	}

	sourceIndex, err := r.updateChanged(source.files)
	if err != nil {
		return errors.WithContext(err, "update changed files")
	}

	replica, err := walkTree(r.Replica, r.Exclude)
	if err != nil {
		return errors.WithContext(err, "list replica")
	}

	replicaIndex, err := indexFiles(r.Replica, replica.files)
	if err != nil {
		return errors.WithContext(err, "index replica")
	}
	log.WithFields(log.Fields{
		"source":  sourceIndex.Len(),
		"replica": replicaIndex.Len(),
	}).Debug("Indexed files")

	if err := r.alignMoved(sourceIndex, replicaIndex); err != nil {
		return errors.WithContext(err, "move files")
	}

	if err := r.createMissing(source.files); err != nil {
		return errors.WithContext(err, "create files")
	}

	// Moves and copies changed the replica since it was last listed.
	replica, err = walkTree(r.Replica, r.Exclude)
	if err != nil {
		return errors.WithContext(err, "list replica")
	}

	if err := r.deleteExtra(replica.files); err != nil {
		return errors.WithContext(err, "delete files")
	}

	r.deleteExtraDirs(source.dirs, replica.dirs)
	r.createMissingDirs(source.dirs)
	return nil
}

func (r *Reconciler) updateChanged(files []string) (*HashIndex, error) {
	index := NewHashIndex()
	for _, path := range files {
		srcPath := filepath.Join(r.Source, path)
		dstPath := filepath.Join(r.Replica, path)

		fingerprint, err := Fingerprint(srcPath)
		if err != nil {
			return nil, errors.WithContext(err, fmt.Sprintf("hash %s", srcPath))
		}
		index.Add(FileRecord{Path: path, Fingerprint: fingerprint})

		exists, err := fileExists(dstPath)
		if err != nil {
			return nil, errors.WithContext(err, "stat")
		}
		if !exists {
			continue
		}

		equal, err := FilesEqual(srcPath, dstPath)
		if err != nil {
			return nil, errors.WithContext(err, "compare")
		}
		if equal {
			continue
		}

		r.Logger.Log(fmt.Sprintf("[Changed file: %s]", path))
		r.Logger.LogChange(r.changeReport(srcPath, dstPath))
		if err := r.Executor.Apply(Operation{Kind: Copy, Source: srcPath, Destination: dstPath}); err != nil {
			return nil, err
		}
	}
	return index, nil
}

// changeReport describes how the replica file differs from the source file.
// Failures to read either file only make the report less useful, so they
// are logged rather than returned.
func (r *Reconciler) changeReport(srcPath, dstPath string) []string {
	srcContents, err := afero.ReadFile(fs, srcPath)
	if err != nil {
		log.WithError(err).WithField("path", srcPath).Debug("Failed to read file for change report")
		return nil
	}

	dstContents, err := afero.ReadFile(fs, dstPath)
	if err != nil {
		log.WithError(err).WithField("path", dstPath).Debug("Failed to read file for change report")
		return nil
	}

	srcLines, srcBinary := diff.SplitLines(srcContents)
	dstLines, dstBinary := diff.SplitLines(dstContents)
	if srcBinary || dstBinary {
		return []string{fmt.Sprintf("Binary content changed (%d bytes -> %d bytes)",
			len(dstContents), len(srcContents))}
	}
	return diff.ChangeMessages(srcLines, dstLines)
}

func indexFiles(root string, files []string) (*HashIndex, error) {
	index := NewHashIndex()
	for _, path := range files {
		fingerprint, err := Fingerprint(filepath.Join(root, path))
		if err != nil {
			return nil, errors.WithContext(err, fmt.Sprintf("hash %s", path))
		}
		index.Add(FileRecord{Path: path, Fingerprint: fingerprint})
	}
	return index, nil
}

// alignMoved pairs source and replica files with the same contents, and
// moves the replica file to the source file's path when they differ.
// Within a fingerprint, a source file is first paired with the earliest
// unpaired replica file that has the same base name. The files left over
// are then paired in walk order. The pairing is greedy, so it doesn't always
// find the fewest moves.
func (r *Reconciler) alignMoved(sourceIndex, replicaIndex *HashIndex) error {
	for _, fingerprint := range sourceIndex.Fingerprints() {
		replicaFiles, ok := replicaIndex.Get(fingerprint)
		if !ok {
			continue
		}
		sourceFiles, _ := sourceIndex.Get(fingerprint)

		sourceRemaining := append([]FileRecord{}, sourceFiles...)
		replicaRemaining := append([]FileRecord{}, replicaFiles...)

		for _, src := range sourceFiles {
			i := indexOfName(replicaRemaining, filepath.Base(src.Path))
			if i < 0 || replicaRemaining[i].Path == src.Path {
				continue
			}

			if err := r.move(replicaRemaining[i].Path, src.Path); err != nil {
				return err
			}
			sourceRemaining = removeRecord(sourceRemaining, indexOfPath(sourceRemaining, src.Path))
			replicaRemaining = removeRecord(replicaRemaining, i)
		}

		for len(sourceRemaining) > 0 && len(replicaRemaining) > 0 {
			src, dst := sourceRemaining[0], replicaRemaining[0]
			if dst.Path != src.Path {
				if err := r.move(dst.Path, src.Path); err != nil {
					return err
				}
			}
			sourceRemaining = sourceRemaining[1:]
			replicaRemaining = replicaRemaining[1:]
		}
	}
	return nil
}

func (r *Reconciler) move(from, to string) error {
	r.Logger.Log(fmt.Sprintf("[Moving %s → %s]", from, to))
	return r.Executor.Apply(Operation{
		Kind:        Move,
		Source:      filepath.Join(r.Replica, from),
		Destination: filepath.Join(r.Replica, to),
	})
}

func (r *Reconciler) createMissing(files []string) error {
	for _, path := range files {
		dstPath := filepath.Join(r.Replica, path)
		exists, err := fileExists(dstPath)
		if err != nil {
			return errors.WithContext(err, "stat")
		}
		if exists {
			continue
		}

		r.Logger.Log(fmt.Sprintf("[Created file: %s]", path))
		op := Operation{Kind: Copy, Source: filepath.Join(r.Source, path), Destination: dstPath}
		if err := r.Executor.Apply(op); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) deleteExtra(files []string) error {
	for _, path := range files {
		exists, err := fileExists(filepath.Join(r.Source, path))
		if err != nil {
			return errors.WithContext(err, "stat")
		}
		if exists {
			continue
		}

		r.Logger.Log(fmt.Sprintf("[Deleted file: %s]", path))
		op := Operation{Kind: DeleteFile, Destination: filepath.Join(r.Replica, path)}
		if err := r.Executor.Apply(op); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) deleteExtraDirs(sourceDirs, replicaDirs []string) {
	wanted := map[string]struct{}{}
	for _, dir := range sourceDirs {
		wanted[dir] = struct{}{}
	}

	var deleted []string
	for _, dir := range replicaDirs {
		if _, ok := wanted[dir]; ok {
			continue
		}

		// Already removed along with its parent.
		if withinAny(dir, deleted) {
			continue
		}

		err := r.Executor.ApplyOnce(Operation{Kind: DeleteDir, Destination: filepath.Join(r.Replica, dir)})
		if err != nil {
			r.Logger.Log(fmt.Sprintf("[Failed to delete directory %s: %s]", dir, err))
			continue
		}
		r.Logger.Log(fmt.Sprintf("[Deleted directory: %s]", dir))
		deleted = append(deleted, dir)
	}
}

func (r *Reconciler) createMissingDirs(sourceDirs []string) {
	for _, dir := range sourceDirs {
		dstPath := filepath.Join(r.Replica, dir)
		exists, err := dirExists(dstPath)
		if err == nil && exists {
			continue
		}

		if err == nil {
			err = r.Executor.ApplyOnce(Operation{Kind: CreateDir, Destination: dstPath})
		}
		if err != nil {
			r.Logger.Log(fmt.Sprintf("[Failed to create directory %s: %s]", dir, err))
			continue
		}
		r.Logger.Log(fmt.Sprintf("[Created directory: %s]", dir))
	}
}

func indexOfName(records []FileRecord, name string) int {
	for i, rec := range records {
		if filepath.Base(rec.Path) == name {
			return i
		}
	}
	return -1
}

func indexOfPath(records []FileRecord, path string) int {
	for i, rec := range records {
		if rec.Path == path {
			return i
		}
	}
	return -1
}

func removeRecord(records []FileRecord, i int) []FileRecord {
	if i < 0 {
		return records
	}
	return append(records[:i:i], records[i+1:]...)
}

// withinAny returns whether path is inside one of the given directories.
func withinAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		if strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
