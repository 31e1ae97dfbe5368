package sync

// FileRecord is a file found while walking a tree during a pass.
type FileRecord struct {
	// Path is relative to the root of the tree.
	Path string

	// Fingerprint is the digest of the file's contents.
	Fingerprint string
}

// HashIndex groups the files of a tree by their contents. Files with the
// same fingerprint are kept in the order they were added, and fingerprints
// are iterated in the order they were first seen.
// Indexes are built from scratch on every pass and never reused.
type HashIndex struct {
	order   []string
	buckets map[string][]FileRecord
}

// NewHashIndex returns an empty HashIndex.
func NewHashIndex() *HashIndex {
	return &HashIndex{buckets: map[string][]FileRecord{}}
}

// Add appends rec to the bucket for its fingerprint.
func (idx *HashIndex) Add(rec FileRecord) {
	if _, ok := idx.buckets[rec.Fingerprint]; !ok {
		idx.order = append(idx.order, rec.Fingerprint)
	}
	idx.buckets[rec.Fingerprint] = append(idx.buckets[rec.Fingerprint], rec)
}

// Get returns the files with the given fingerprint.
func (idx *HashIndex) Get(fingerprint string) ([]FileRecord, bool) {
	records, ok := idx.buckets[fingerprint]
	return records, ok
}

// Fingerprints returns the distinct fingerprints in the order they were
// first added.
func (idx *HashIndex) Fingerprints() []string {
	return append([]string{}, idx.order...)
}

// Len returns the number of files in the index.
func (idx *HashIndex) Len() (n int) {
	for _, records := range idx.buckets {
		n += len(records)
	}
	return n
}
