// Package logging configures the module's structured logger. Every
// component logs through the package-level Logger rather than the
// standard library's log package, so task id, url and chunk index can
// travel as structured fields instead of being formatted into strings.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Logger is the shared structured logger. It defaults to a human-readable
// console writer on stderr at info level; Configure narrows or widens that.
var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
	Level(zerolog.InfoLevel).
	With().
	Timestamp().
	Logger()

var configureOnce sync.Once

// Configure sets the logger's verbosity and, when debug is true, mirrors
// output to a file under dir in addition to stderr. It is idempotent:
// only the first call takes effect, matching the once-per-process debug
// log file the reference CLI tooling sets up.
func Configure(dir string, debug bool) error {
	var err error
	configureOnce.Do(func() {
		level := zerolog.InfoLevel
		if debug {
			level = zerolog.DebugLevel
		}

		writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}}

		if debug && dir != "" {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				err = mkErr
				return
			}
			var f *os.File
			f, err = os.OpenFile(dir+"/debug.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return
			}
			writers = append(writers, f)
		}

		Logger = zerolog.New(io.MultiWriter(writers...)).
			Level(level).
			With().
			Timestamp().
			Logger()
	})
	return err
}
