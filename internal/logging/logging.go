package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Level string
	JSON  bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

var def atomic.Value

func init() {
	Configure(Options{})
}

func Configure(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(out).Level(parseLevel(opts.Level)).With().Timestamp().Logger()
	def.Store(&l)
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func L() *zerolog.Logger {
	l, _ := def.Load().(*zerolog.Logger)
	return l
}

// Component returns the process logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return L().With().Str("component", name).Logger()
}

func InitFromEnv() {
	lvl := os.Getenv("BYTEPIPE_LOG_LEVEL")
	jsonStr := os.Getenv("BYTEPIPE_LOG_JSON")
	json := false
	if b, err := strconv.ParseBool(strings.TrimSpace(jsonStr)); err == nil {
		json = b
	}
	Configure(Options{Level: lvl, JSON: json})
}
