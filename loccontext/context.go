/*
Package loccontext provides the single logging/configuration hook shared by
every other package in this module, mirroring libloc's loc_ctx: a small,
shared object that every writer and reader is built from.

There is no process-wide logging state. A nil *Context logs to a sink that
discards everything; writer.New and reader.Open build a Context from
LOC_LOG (see NewFromEnv) when none is given.
*/
package loccontext

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Priority mirrors libloc's LOC_DEBUG..LOC_ERROR priority levels.
type Priority int

const (
	PriorityDebug Priority = iota
	PriorityInfo
	PriorityWarn
	PriorityError
)

func (p Priority) String() string {
	switch p {
	case PriorityDebug:
		return "debug"
	case PriorityInfo:
		return "info"
	case PriorityWarn:
		return "warn"
	case PriorityError:
		return "err"
	default:
		return "unknown"
	}
}

func (p Priority) logrusLevel() logrus.Level {
	switch p {
	case PriorityDebug:
		return logrus.DebugLevel
	case PriorityInfo:
		return logrus.InfoLevel
	case PriorityWarn:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

// Context carries a log priority and a log sink. It is shared, never
// mutated after construction, and safe to pass around freely.
type Context struct {
	log *logrus.Logger
}

// New returns a Context logging at the given priority to stderr.
func New(priority Priority) *Context {
	log := logrus.New()
	log.SetLevel(priority.logrusLevel())
	log.SetOutput(os.Stderr)
	return &Context{log: log}
}

// NewFromEnv reads LOC_LOG: a decimal integer, or one of "err", "info",
// "debug". Unset or unrecognized values default to PriorityError, so a
// process stays quiet unless logging is explicitly requested.
func NewFromEnv() *Context {
	return New(priorityFromEnv(os.Getenv("LOC_LOG")))
}

func priorityFromEnv(v string) Priority {
	switch v {
	case "debug":
		return PriorityDebug
	case "info":
		return PriorityInfo
	case "err", "":
		return PriorityError
	}
	if n, err := strconv.Atoi(v); err == nil {
		switch {
		case n <= int(PriorityDebug):
			return PriorityDebug
		case n >= int(PriorityError):
			return PriorityError
		default:
			return Priority(n)
		}
	}
	return PriorityError
}

// Logger returns the underlying structured logger. Every package that
// receives a *Context logs through this instead of fmt.Println/log.Printf.
func (c *Context) Logger() *logrus.Logger {
	if c == nil {
		return discardLogger
	}
	return c.log
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return l
}()

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
