// package shared defines shared helpers
package shared

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// FileLogOptions configures the rotating log file used by [NewFileLogger].
type FileLogOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Stderr also mirrors entries to os.Stderr when set.
	Stderr bool
}

// NewFileLogger creates a [log.Logger] writing to a [lumberjack.Logger] rotating file.
//
// The returned closer flushes and closes the file.
func NewFileLogger(opts FileLogOptions) (*log.Logger, io.Closer, error) {
	if opts.Path == "" {
		return nil, nil, fmt.Errorf("%w: log file path is empty", ErrInvalidArgument)
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}

	rotating := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}

	var w io.Writer = rotating
	if opts.Stderr {
		w = io.MultiWriter(os.Stderr, rotating)
	}
	return NewLogger(w), rotating, nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// FormatDuration renders milliseconds as "<M> min <S> sec".
//
// Both parts are truncated and computed independently, so fractional seconds are dropped.
func FormatDuration(ms float64) string {
	minutes := math.Floor(ms / 60000)
	seconds := math.Floor(math.Mod(ms, 60000) / 1000)
	return fmt.Sprintf("%d min %d sec", int64(minutes), int64(seconds))
}

// MarshalJSON encodes v, indented when pretty is set.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
