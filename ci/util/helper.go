package util

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/foldersync/pkg/errors"
)

// completedPrefix is logged at the end of every successful pass.
const completedPrefix = "Synchronization completed from "

// TestHelper contains methods commonly used during integration tests.
type TestHelper struct {
	// Binary is the path to the foldersync binary under test.
	Binary string
}

// NewTestHelper creates a new TestHelper.
func NewTestHelper(binary string) (*TestHelper, error) {
	if _, err := os.Stat(binary); err != nil {
		return nil, errors.WithContext(err, "stat binary")
	}
	return &TestHelper{Binary: binary}, nil
}

// Start starts foldersync with the given arguments. The returned channel
// receives an error if the process exits before ctx is cancelled, and is
// closed once the process has stopped.
func (helper *TestHelper) Start(ctx context.Context, args ...string) (chan error, error) {
	cmd := exec.Command(helper.Binary, args...)

	stderr := bytes.NewBuffer(nil)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	errChan := make(chan error)
	go func() {
		waitErr := make(chan error)
		go func() {
			waitErr <- cmd.Wait()
			close(waitErr)
		}()

		defer close(errChan)
		select {
		case <-ctx.Done():
			if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
				errChan <- errors.WithContext(err, "kill")
				return
			}
			<-waitErr
		case err := <-waitErr:
			errChan <- fmt.Errorf("crashed (%v): stderr: %s", err, stderr)
		}
	}()
	return errChan, nil
}

// Run runs foldersync to completion, and returns its stdout.
func (helper *TestHelper) Run(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, helper.Binary, args...).Output()
}

// WaitUntilSynced blocks until a pass that started after the call has
// completed, according to the log file at logPath.
func (helper *TestHelper) WaitUntilSynced(ctx context.Context, logPath string) error {
	initial, err := CountLines(logPath, completedPrefix)
	if err != nil {
		return errors.WithContext(err, "read log")
	}

	// The pass that's running when we're called may have missed the change,
	// so wait for the one after it.
	synced := TestWithRetry(ctx, nil, func() bool {
		curr, err := CountLines(logPath, completedPrefix)
		if err != nil {
			log.WithError(err).Warn("Failed to read log")
			return false
		}
		return curr >= initial+2
	})
	if !synced {
		return errors.New("timed out waiting for a pass")
	}
	return nil
}

// CountLines returns how many lines in the file contain substr. A missing
// file has no lines.
func CountLines(path, substr string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	var n int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), substr) {
			n++
		}
	}
	return n, scanner.Err()
}

// TestWithRetry runs test with an exponential backoff until it passes or ctx
// is done. A value on trigger runs the test right away.
func TestWithRetry(ctx context.Context, trigger chan struct{}, test func() bool) bool {
	maxSleepTime := 5 * time.Second
	sleepTime := 100 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return test()
		case <-time.After(sleepTime):
			sleepTime *= 2
			if sleepTime > maxSleepTime {
				sleepTime = maxSleepTime
			}
		case <-trigger:
		}

		if test() {
			return true
		}
	}
}
