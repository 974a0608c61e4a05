package audit

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0o664

// LogBuild assembles a zerolog logger from a writer or a file path.
type LogBuild struct {
	writer io.Writer
	path   string
	level  string
}

// LogData is a built logger and the file it owns, if any.
type LogData struct {
	LogFile *os.File
	Logger  zerolog.Logger
}

// NewLog starts a builder that writes to stderr at info level.
func NewLog() *LogBuild {
	return &LogBuild{}
}

// FromPath appends log lines to the file at path.
func (build *LogBuild) FromPath(path string) *LogBuild {
	build.path = path
	return build
}

// FromWriter writes log lines to w.
func (build *LogBuild) FromWriter(w io.Writer) *LogBuild {
	build.writer = w
	return build
}

// WithLevel sets the minimum level by name: debug, info, warn or error.
func (build *LogBuild) WithLevel(level string) *LogBuild {
	build.level = level
	return build
}

// Make opens the log file when a path was given and builds the logger.
func (build *LogBuild) Make() (*LogData, error) {
	level := zerolog.InfoLevel
	if build.level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(build.level))
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", build.level, err)
		}
		level = l
	}

	logData := new(LogData)
	writer := build.writer
	if writer == nil {
		writer = os.Stderr
	}
	if build.path != "" {
		f, err := os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		logData.LogFile = f
		writer = zerolog.SyncWriter(f)
	}
	logData.Logger = zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logData, nil
}

// Close releases the log file, if one was opened.
func (d *LogData) Close() error {
	if d.LogFile == nil {
		return nil
	}
	return d.LogFile.Close()
}
