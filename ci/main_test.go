//go:build ci
// +build ci

package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sidkik/foldersync/ci/sync"
	"github.com/sidkik/foldersync/ci/util"
)

type TestFunction func(*testing.T, *util.TestHelper)

func TestFoldersync(t *testing.T) {
	binary, ok := os.LookupEnv("CI_FOLDERSYNC_BINARY")
	if !ok {
		t.Error("missing required environment variable CI_FOLDERSYNC_BINARY")
		return
	}

	helper, err := util.NewTestHelper(binary)
	require.NoError(t, err)

	tests := []struct {
		name   string
		testFn TestFunction
	}{
		{
			name:   "FileSync",
			testFn: sync.Test,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			test.testFn(t, helper)
		})
	}
}
