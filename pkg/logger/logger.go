package logx

import (
	"io"
	"os"

	"github.com/longevity-agent/server/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool `envconfig:"LOG_DEBUG" default:"false"`
	PrettyFormat bool `envconfig:"LOG_PRETTY_FORMAT" default:"false"`
}

var DefaultLoggerOpts = &LoggerOpts{
	Environment: core.Development,
}

type LoggerOpts struct {
	Environment core.Environment
	Config
}

func safe(opts ...LoggerOpts) *LoggerOpts {
	if len(opts) == 0 {
		return DefaultLoggerOpts
	}
	return &opts[0]
}

// Init replaces the global zerolog logger. Deployed stages write JSON to stdout
// unless PrettyFormat is set; local stages always use the console writer.
func Init(opts ...LoggerOpts) {
	o := safe(opts...)

	var w io.Writer = os.Stdout
	if o.PrettyFormat || !o.Environment.Deployed() {
		w = zerolog.NewConsoleWriter()
	}

	level := zerolog.InfoLevel
	if o.Debug || o.Environment.Verbose() {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Caller().
		Str("env", o.Environment.String()).
		Logger()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Panic() *zerolog.Event {
	return log.Panic()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
