package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		source  []string
		replica []string
		exp     []Record
	}{
		{
			name:    "Identical",
			source:  []string{"Hello world!"},
			replica: []string{"Hello world!"},
			exp:     nil,
		},
		{
			name:    "BothEmpty",
			source:  nil,
			replica: nil,
			exp:     nil,
		},
		{
			name:    "InsertedLinesAndTrailingReplicaLine",
			source:  []string{"1", "a1", "a2", "2", "3"},
			replica: []string{"1", "2", "3", "u1"},
			exp: []Record{
				{Added, "a1", 1},
				{Added, "a2", 2},
				{Removed, "u1", 3},
			},
		},
		{
			name:    "NewFirstLine",
			source:  []string{"a1", "2"},
			replica: []string{"2"},
			exp: []Record{
				{Added, "a1", 0},
			},
		},
		{
			name:    "ChangedLine",
			source:  []string{"Line 1", "Line 2", "Line 3"},
			replica: []string{"Line 1", "Line X", "Line 3"},
			exp: []Record{
				{Added, "Line 2", 1},
				{Removed, "Line X", 1},
			},
		},
		{
			name:    "TwoAdjacentLinesChanged",
			source:  []string{"1", "A", "B", "4"},
			replica: []string{"1", "X", "Y", "4"},
			exp: []Record{
				{Added, "A", 1},
				{Removed, "X", 1},
				{Added, "B", 2},
				{Removed, "Y", 2},
			},
		},
		{
			name:    "LineAddedInSource",
			source:  []string{"1", "2", "NEW", "3"},
			replica: []string{"1", "2", "3"},
			exp: []Record{
				{Added, "NEW", 2},
			},
		},
		{
			name:    "LineRemovedFromSource",
			source:  []string{"1", "2", "3"},
			replica: []string{"1", "2", "REMOVED", "3"},
			exp: []Record{
				{Removed, "REMOVED", 2},
			},
		},
		{
			name:    "OneLineAddedOneLineRemoved",
			source:  []string{"1", "a", "2", "3"},
			replica: []string{"1", "2", "3", "u"},
			exp: []Record{
				{Added, "a", 1},
				{Removed, "u", 3},
			},
		},
		{
			name:    "EmptySource",
			source:  nil,
			replica: []string{"A", "B"},
			exp: []Record{
				{Removed, "A", 0},
				{Removed, "B", 1},
			},
		},
		{
			name:    "EmptyReplica",
			source:  []string{"A", "B"},
			replica: nil,
			exp: []Record{
				{Added, "A", 0},
				{Added, "B", 1},
			},
		},
		{
			name:    "MultipleNonAdjacentChanges",
			source:  []string{"1", "A", "2", "B", "3", "C"},
			replica: []string{"1", "X", "2", "Y", "3"},
			exp: []Record{
				{Added, "A", 1},
				{Removed, "X", 1},
				{Added, "B", 3},
				{Removed, "Y", 3},
				{Added, "C", 5},
			},
		},
		{
			// The repeated "x" lines are more than one position apart, so
			// they're never cancelled against each other.
			name:    "DistantDuplicatesKept",
			source:  []string{"x", "1", "2", "3", "4"},
			replica: []string{"y", "1", "2", "3", "4", "5", "x"},
			exp: []Record{
				{Added, "x", 0},
				{Removed, "y", 0},
				{Removed, "5", 5},
				{Removed, "x", 6},
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, Compute(test.source, test.replica))
		})
	}
}

func TestCancelShiftedRescansSameIndex(t *testing.T) {
	// After "b" is cancelled, the record that slides into its slot must be
	// examined too.
	records := []Record{
		{Added, "b", 1},
		{Added, "c", 2},
		{Removed, "b", 2},
		{Removed, "c", 3},
	}
	assert.Empty(t, cancelShifted(records))
}

func TestOriginString(t *testing.T) {
	assert.Equal(t, "added", Added.String())
	assert.Equal(t, "removed", Removed.String())
}
