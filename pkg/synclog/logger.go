// Package synclog implements the log that records what each synchronization
// pass did to the replica.
package synclog

import (
	"strings"
	"sync"
)

// Logger receives the events of synchronization passes.
type Logger interface {
	// StartPass and EndPass bracket the events of a single pass.
	StartPass()
	EndPass()

	// Log records a single event.
	Log(msg string)

	// LogChange records the change report for a modified file. Each message
	// describes one block of changed lines and may span multiple lines.
	LogChange(msgs []string)
}

// Nop discards all events.
type Nop struct{}

// StartPass implements Logger.
func (Nop) StartPass() {}

// EndPass implements Logger.
func (Nop) EndPass() {}

// Log implements Logger.
func (Nop) Log(string) {}

// LogChange implements Logger.
func (Nop) LogChange([]string) {}

// Recorder keeps every event in memory. It's safe for concurrent use.
type Recorder struct {
	lock    sync.Mutex
	lines   []string
	changes [][]string
	passes  int
}

// StartPass implements Logger.
func (r *Recorder) StartPass() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.passes++
}

// EndPass implements Logger.
func (r *Recorder) EndPass() {}

// Log implements Logger.
func (r *Recorder) Log(msg string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.lines = append(r.lines, msg)
}

// LogChange implements Logger.
func (r *Recorder) LogChange(msgs []string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.changes = append(r.changes, append([]string{}, msgs...))
}

// Lines returns a copy of the logged lines.
func (r *Recorder) Lines() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string{}, r.lines...)
}

// Changes returns a copy of the logged change reports.
func (r *Recorder) Changes() [][]string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([][]string{}, r.changes...)
}

// Passes returns the number of passes that were started.
func (r *Recorder) Passes() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.passes
}

// Matching returns the logged lines that start with prefix.
func (r *Recorder) Matching(prefix string) (matches []string) {
	for _, line := range r.Lines() {
		if strings.HasPrefix(line, prefix) {
			matches = append(matches, line)
		}
	}
	return matches
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.lines = nil
	r.changes = nil
	r.passes = 0
}

var (
	_ Logger = &FileLogger{}
	_ Logger = &Recorder{}
	_ Logger = Nop{}
)
