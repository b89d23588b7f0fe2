package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is a log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Rotation configures the optional log file
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Options configures a Logger
type Options struct {
	Verbose  bool      // Enables debug lines
	File     string    // Optional rotated log file
	Rotation Rotation  // Ignored when File is empty
	Output   io.Writer // Terminal sink (default: os.Stderr)
}

// Fields are structured key/value pairs appended to an event line
type Fields map[string]any

// Logger writes "[level] event key=value" lines.
// Stdout is never used so that the MCP stdio transport stays clean.
type Logger struct {
	mu     *sync.Mutex
	writer io.Writer
	closer io.Closer
	level  Level
	name   string
}

// New creates a logger from options
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	writers := []io.Writer{out}
	var closer io.Closer
	if opts.File != "" {
		rot := opts.Rotation
		if rot.MaxSizeMB <= 0 {
			rot.MaxSizeMB = 64
		}
		fileWriter := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    rot.MaxSizeMB,
			MaxBackups: rot.MaxBackups,
			MaxAge:     rot.MaxAgeDays,
			Compress:   rot.Compress,
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
	}

	level := LevelInfo
	if opts.Verbose {
		level = LevelDebug
	}

	return &Logger{
		mu:     &sync.Mutex{},
		writer: io.MultiWriter(writers...),
		closer: closer,
		level:  level,
	}
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return &Logger{mu: &sync.Mutex{}, writer: io.Discard, level: LevelError + 1}
}

// Named returns a child logger sharing the same sink
func (l *Logger) Named(name string) *Logger {
	child := *l
	if l.name != "" {
		child.name = l.name + "/" + name
	} else {
		child.name = name
	}
	return &child
}

// Enabled reports whether lines at level are written
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

// Close flushes and closes the log file if one is open
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *Logger) Debug(event string, fields Fields) { l.log(LevelDebug, event, fields) }
func (l *Logger) Info(event string, fields Fields)  { l.log(LevelInfo, event, fields) }
func (l *Logger) Warn(event string, fields Fields)  { l.log(LevelWarn, event, fields) }
func (l *Logger) Error(event string, fields Fields) { l.log(LevelError, event, fields) }

func (l *Logger) log(level Level, event string, fields Fields) {
	if l == nil || !l.Enabled(level) {
		return
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(level.String())
	b.WriteString("] ")
	if l.name != "" {
		b.WriteString(l.name)
		b.WriteString(" ")
	}
	b.WriteString(event)

	// Keys are sorted so lines are stable
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, formatValue(fields[k]))
	}
	b.WriteString("\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.writer, b.String())
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if val == "" || strings.ContainsAny(val, " \t\"=") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case error:
		return fmt.Sprintf("%q", val.Error())
	case []string:
		return fmt.Sprintf("%q", strings.Join(val, ","))
	default:
		return fmt.Sprint(val)
	}
}
