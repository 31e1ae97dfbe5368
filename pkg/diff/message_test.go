package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeMessages(t *testing.T) {
	tests := []struct {
		name    string
		source  []string
		replica []string
		exp     []string
	}{
		{
			name:    "NoChanges",
			source:  []string{"same"},
			replica: []string{"same"},
			exp:     nil,
		},
		{
			name:    "SingleChangedLine",
			source:  []string{"Line 1", "Line 2", "Line 3"},
			replica: []string{"Line 1", "Line X", "Line 3"},
			exp:     []string{"Changed line at 2:\n  - Line X\n  + Line 2"},
		},
		{
			name:    "ChangedRange",
			source:  []string{"1", "A", "B", "4"},
			replica: []string{"1", "X", "Y", "4"},
			exp:     []string{"Changed lines 2-3:\n  - X\n  - Y\n  + A\n  + B"},
		},
		{
			// One removed line is enough for the singular form.
			name:    "MixedBlockWithOneRemovedLine",
			source:  []string{"1", "a1", "a2", "2", "3"},
			replica: []string{"1", "2", "3", "u1"},
			exp:     []string{"Changed line at 2:\n  - u1\n  + a1\n  + a2"},
		},
		{
			name:    "AddedLine",
			source:  []string{"1", "2", "NEW", "3"},
			replica: []string{"1", "2", "3"},
			exp:     []string{"Added line at 3:\n  + NEW"},
		},
		{
			name:    "AddedLines",
			source:  []string{"A", "B"},
			replica: nil,
			exp:     []string{"Added lines 1-2:\n  + A\n  + B"},
		},
		{
			name:    "RemovedLine",
			source:  []string{"1", "2", "3"},
			replica: []string{"1", "2", "REMOVED", "3"},
			exp:     []string{"Removed line at 3:\n  - REMOVED"},
		},
		{
			name:    "RemovedLines",
			source:  nil,
			replica: []string{"A", "B"},
			exp:     []string{"Removed lines 1-2:\n  - A\n  - B"},
		},
		{
			name:    "SeparateBlocks",
			source:  []string{"1", "A", "2", "B", "3", "C"},
			replica: []string{"1", "X", "2", "Y", "3"},
			exp: []string{
				"Changed line at 2:\n  - X\n  + A",
				"Changed line at 4:\n  - Y\n  + B",
				"Added line at 6:\n  + C",
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, ChangeMessages(test.source, test.replica))
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name      string
		contents  string
		expLines  []string
		expBinary bool
	}{
		{
			name:     "Empty",
			contents: "",
			expLines: nil,
		},
		{
			name:     "NoTrailingNewline",
			contents: "a\nb",
			expLines: []string{"a", "b"},
		},
		{
			name:     "TrailingNewline",
			contents: "a\nb\n",
			expLines: []string{"a", "b"},
		},
		{
			name:     "CRLF",
			contents: "a\r\nb\r\n",
			expLines: []string{"a", "b"},
		},
		{
			name:     "BlankLines",
			contents: "a\n\n\nb\n",
			expLines: []string{"a", "", "", "b"},
		},
		{
			name:      "Binary",
			contents:  "PK\x03\x04\x00\x00",
			expBinary: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			lines, binary := SplitLines([]byte(test.contents))
			assert.Equal(t, test.expLines, lines)
			assert.Equal(t, test.expBinary, binary)
		})
	}
}
