// Package diff reports line level changes between two versions of a text
// file.
//
// Lines are aligned by index rather than by a longest common subsequence:
// both files are walked in lockstep and every mismatching pair is recorded.
// A local cancellation pass then drops lines that only shifted by one
// position inside a dense region of changes. The result is not a minimal edit
// script.
package diff

// Origin says which file a Record came from.
type Origin int

const (
	// Added lines exist in the source file.
	Added Origin = iota
	// Removed lines exist in the replica file.
	Removed
)

func (o Origin) String() string {
	if o == Added {
		return "added"
	}
	return "removed"
}

// Record is a single differing line.
type Record struct {
	Origin Origin
	Text   string

	// Position is the zero-based index of the line in its own file.
	Position int
}

// Compute returns the differing lines between source and replica.
// Records are ordered as they were discovered (source before replica for
// each mismatching pair), not by position.
func Compute(source, replica []string) []Record {
	var records []Record

	i, j := 0, 0
	for i < len(source) && j < len(replica) {
		if source[i] != replica[j] {
			records = append(records,
				Record{Added, source[i], i},
				Record{Removed, replica[j], j})
		}
		i++
		j++
	}
	for ; i < len(source); i++ {
		records = append(records, Record{Added, source[i], i})
	}
	for ; j < len(replica); j++ {
		records = append(records, Record{Removed, replica[j], j})
	}

	return cancelShifted(records)
}

// cancelShifted removes pairs of records with the same text and opposite
// origins when they sit in the same contiguous run of positions. Only the
// records following k are searched, and the search stops at the first gap
// in positions, so identical lines far apart are left alone.
func cancelShifted(records []Record) []Record {
	for k := 0; k < len(records); k++ {
		curr := records[k]
		prevPosition := curr.Position
		for l := k + 1; l < len(records); l++ {
			next := records[l]
			if next.Position != prevPosition && next.Position != prevPosition+1 {
				break
			}

			if next.Origin != curr.Origin && next.Text == curr.Text {
				records = append(records[:l], records[l+1:]...)
				records = append(records[:k], records[k+1:]...)

				// Re-examine the record that moved into slot k.
				k--
				break
			}
			prevPosition = next.Position
		}
	}
	return records
}
