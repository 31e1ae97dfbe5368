package synclog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/foldersync/pkg/errors"
)

// Mocked out for unit testing.
var (
	fs                = afero.NewOsFs()
	console io.Writer = os.Stdout
)

const (
	timestampFormat = "2006-01-02 15:04:05"
	passSeparator   = "------------------------------------------------------------"
)

// FileLogger appends events to a log file and echoes them to the console.
type FileLogger struct {
	log  *logrus.Logger
	file afero.File
}

// NewFileLogger opens the log file at path for appending, creating it and
// its parent directory if necessary.
func NewFileLogger(path string) (*FileLogger, error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.WithContext(err, "make log directory")
	}

	file, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.WithContext(err, "open log file")
	}

	logger := logrus.New()
	logger.SetOutput(io.MultiWriter(console, file))
	logger.SetFormatter(lineFormatter{})
	return &FileLogger{log: logger, file: file}, nil
}

// StartPass implements Logger.
func (l *FileLogger) StartPass() {
	l.log.Info(passSeparator)
}

// EndPass implements Logger.
func (l *FileLogger) EndPass() {
	l.log.Info(passSeparator)
}

// Log implements Logger.
func (l *FileLogger) Log(msg string) {
	l.log.Info(msg)
}

// LogChange implements Logger.
func (l *FileLogger) LogChange(msgs []string) {
	for _, msg := range msgs {
		// Indent continuation lines so the block stays readable under the
		// timestamp prefix.
		l.log.Info(strings.ReplaceAll(msg, "\n", "\n    "))
	}
}

// Close closes the underlying log file.
func (l *FileLogger) Close() error {
	return l.file.Close()
}

// lineFormatter renders entries as "[timestamp] message".
type lineFormatter struct{}

func (lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	line := fmt.Sprintf("[%s] %s\n", entry.Time.Format(timestampFormat), entry.Message)
	return []byte(line), nil
}
