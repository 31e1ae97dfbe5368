package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/foldersync/ci/util"
	"github.com/sidkik/foldersync/pkg/config"
)

// Test runs the end-to-end sync tests against the binary under test.
func Test(t *testing.T, helper *util.TestHelper) {
	t.Run("FileChange", func(t *testing.T) {
		testFileChange(t, helper)
	})
	t.Run("Rename", func(t *testing.T) {
		testRename(t, helper)
	})
	t.Run("Exclude", func(t *testing.T) {
		testExclude(t, helper)
	})
}

// startSync starts foldersync on fs with a short interval. The returned
// function stops it.
func startSync(t *testing.T, helper *util.TestHelper, fs mockFs, settings config.Settings) func() {
	settings.Interval = config.Duration{Duration: 500 * time.Millisecond}
	require.NoError(t, fs.writeSettings(settings))

	ctx, cancel := context.WithCancel(context.Background())
	errChan, err := helper.Start(ctx, fs.args()...)
	require.NoError(t, err, "start foldersync")
	return func() {
		cancel()
		for err := range errChan {
			assert.NoError(t, err, "run foldersync")
		}
	}
}

func waitUntilSynced(t *testing.T, helper *util.TestHelper, fs mockFs) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	require.NoError(t, helper.WaitUntilSynced(ctx, fs.logPath))
}

func testFileChange(t *testing.T, helper *util.TestHelper) {
	refFile := randomFile("dir/test-file")
	changedContents := refFile.WithContents("changed contents")
	changedModTime := refFile.WithContents("changed again").
		WithModTime(refFile.modTime.Add(1 * time.Minute))

	tests := []struct {
		name   string
		change fsOp
		check  replicaAssertion
	}{
		{
			name:   "ChangeContents",
			change: createFile(changedContents),
			check:  shouldExist(changedContents),
		},
		{
			name:   "ChangeContentsAndModTime",
			change: createFile(changedModTime),
			check:  shouldExist(changedModTime),
		},
		{
			name:   "RemoveFile",
			change: removeFile(refFile.path),
			check:  shouldNotExist(refFile.path),
		},
	}

	fs, err := newMockFs()
	require.NoError(t, err)
	defer fs.cleanup()

	stop := startSync(t, helper, fs, config.DefaultSettings())
	defer stop()

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			require.NoError(t, createFile(refFile)(fs))
			waitUntilSynced(t, helper, fs)
			require.NoError(t, shouldExist(refFile)(fs))

			require.NoError(t, test.change(fs))
			waitUntilSynced(t, helper, fs)
			assert.NoError(t, test.check(fs))
		})
	}
}

func testRename(t *testing.T, helper *util.TestHelper) {
	fs, err := newMockFs()
	require.NoError(t, err)
	defer fs.cleanup()

	original := randomFile("original/name")
	require.NoError(t, createFile(original)(fs))

	stop := startSync(t, helper, fs, config.DefaultSettings())
	defer stop()
	waitUntilSynced(t, helper, fs)
	require.NoError(t, shouldExist(original)(fs))

	require.NoError(t, renameFile(original.path, "renamed/name")(fs))
	waitUntilSynced(t, helper, fs)

	assert.NoError(t, shouldExist(original.WithPath("renamed/name"))(fs))
	assert.NoError(t, shouldNotExist(original.path)(fs))

	// The file was moved within the replica rather than copied again.
	moves, err := util.CountLines(fs.logPath, "[Moving original/name → renamed/name]")
	require.NoError(t, err)
	assert.Equal(t, 1, moves)
}

func testExclude(t *testing.T, helper *util.TestHelper) {
	fs, err := newMockFs()
	require.NoError(t, err)
	defer fs.cleanup()

	synced := randomFile("src/main.go")
	ignored := randomFile("src/debug.log")
	ignoredDir := randomFile("node_modules/pkg/index.js")
	for _, f := range []file{synced, ignored, ignoredDir} {
		require.NoError(t, createFile(f)(fs))
	}

	settings := config.DefaultSettings()
	settings.Exclude = []string{"**/*.log", "node_modules"}
	settings.Watch = true
	stop := startSync(t, helper, fs, settings)
	defer stop()
	waitUntilSynced(t, helper, fs)

	assert.NoError(t, shouldExist(synced)(fs))
	assert.NoError(t, shouldNotExist(ignored.path)(fs))
	assert.NoError(t, shouldNotExist(ignoredDir.path)(fs))
}
