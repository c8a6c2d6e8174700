package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger. Debug mode switches to a human-readable
// console writer with caller annotations; otherwise output is JSON at info
// level, suitable for piping into the dashboard's log pane.
func Init(debug bool) {
	if debug {
		log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Caller().Logger().Level(zerolog.DebugLevel)
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// InitWriter directs log output to w. Tests use this to silence or capture logs.
func InitWriter(w io.Writer) {
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

func Debug() *zerolog.Event { return log.Debug() }

func Info() *zerolog.Event { return log.Info() }

func Warn() *zerolog.Event { return log.Warn() }

func Error() *zerolog.Event { return log.Error() }

func Fatal() *zerolog.Event { return log.Fatal() }
