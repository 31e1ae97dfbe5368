package diff

import (
	"fmt"
	"strings"
)

// ChangeMessages describes the differences between source and replica as
// one message per block of adjacent changes.
func ChangeMessages(source, replica []string) []string {
	var messages []string
	for _, block := range blocks(Compute(source, replica)) {
		messages = append(messages, block.message())
	}
	return messages
}

type changeBlock struct {
	start   int
	added   []string
	removed []string
}

// blocks splits records into runs where consecutive records are at most one
// line apart.
func blocks(records []Record) (result []changeBlock) {
	for i := 0; i < len(records); {
		block := changeBlock{start: records[i].Position}
		for i < len(records) {
			curr := records[i]
			if curr.Origin == Added {
				block.added = append(block.added, curr.Text)
			} else {
				block.removed = append(block.removed, curr.Text)
			}
			i++

			if i < len(records) && abs(records[i].Position-curr.Position) > 1 {
				break
			}
		}
		result = append(result, block)
	}
	return result
}

func (b changeBlock) message() string {
	removed := prefixLines("  - ", b.removed)
	added := prefixLines("  + ", b.added)

	switch {
	case len(b.removed) > 0 && len(b.added) > 0:
		header := fmt.Sprintf("Changed line at %d:", b.start+1)
		if len(b.removed) > 1 && len(b.added) > 1 {
			header = fmt.Sprintf("Changed lines %d-%d:", b.start+1, b.start+len(b.removed))
		}
		return header + "\n" + removed + "\n" + added
	case len(b.removed) > 0:
		return b.header("Removed", len(b.removed)) + "\n" + removed
	default:
		return b.header("Added", len(b.added)) + "\n" + added
	}
}

func (b changeBlock) header(verb string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%s line at %d:", verb, b.start+1)
	}
	return fmt.Sprintf("%s lines %d-%d:", verb, b.start+1, b.start+count)
}

func prefixLines(prefix string, lines []string) string {
	return prefix + strings.Join(lines, "\n"+prefix)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
