package errors

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	assert.NoError(t, WithContext(nil, "ignored"))

	root := FileNotFound{Path: "/src/a.txt"}
	err := WithContext(WithContext(root, "hash"), "update pass")
	assert.Equal(t, `update pass: hash: "/src/a.txt" does not exist`, err.Error())
	assert.Equal(t, root, RootCause(err))

	// Wrapping doesn't record a stack, so equal chains are equal values.
	assert.Equal(t, WithContext(root, "hash"), WithContext(root, "hash"))
}

func TestRootCauseOfPathError(t *testing.T) {
	_, statErr := os.Stat("/definitely/does/not/exist")
	err := WithContext(statErr, "stat")
	assert.True(t, os.IsNotExist(RootCause(err)))
}

func TestGetPrintableMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		exp  string
	}{
		{
			name: "Plain",
			err:  WithContext(New("boom"), "copy"),
			exp:  "copy: boom",
		},
		{
			name: "Friendly",
			err:  WithContext(NewFriendlyError("Source %q is missing.", "/src"), "start"),
			exp:  `Source "/src" is missing.`,
		},
		{
			name: "Typed",
			err:  InvalidFieldError{Field: "interval", Value: "0s", Reason: "must be positive"},
			exp:  `invalid value "0s" for interval: must be positive`,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, GetPrintableMessage(test.err))
		})
	}
}
