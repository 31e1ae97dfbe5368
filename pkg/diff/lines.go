package diff

import (
	"bytes"
	"strings"
)

// SplitLines splits file contents into lines. Both "\n" and "\r\n" line
// endings are accepted, and a trailing line ending doesn't produce an empty
// final line. If the contents contain a NUL byte they're assumed to be
// binary, and binary is true.
func SplitLines(contents []byte) (lines []string, binary bool) {
	if bytes.IndexByte(contents, 0) >= 0 {
		return nil, true
	}

	if len(contents) == 0 {
		return nil, false
	}

	text := strings.TrimSuffix(string(contents), "\n")
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, strings.TrimSuffix(line, "\r"))
	}
	return lines, false
}
