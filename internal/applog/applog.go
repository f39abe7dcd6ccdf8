// Package applog provides the leveled, multi-destination logging used
// throughout hudsync: call AddLogger to register one or more destinations,
// then use the package-level Debug/Info/Warn/Error/Fatal functions to write
// to all of them that are enabled for the given level.
package applog

import (
	"fmt"
	golog "log"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Log levels, lowest to highest severity.
const (
	DEBUG = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[int]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var levelColor = map[int]*color.Color{
	DEBUG: color.New(color.FgBlue),
	INFO:  color.New(color.FgGreen),
	WARN:  color.New(color.FgYellow),
	ERROR: color.New(color.FgRed),
	FATAL: color.New(color.FgRed, color.Bold),
}

type logger struct {
	out   *golog.Logger
	level int
	color bool
}

var (
	mu      sync.RWMutex
	loggers = make(map[string]*logger)
)

// AddLogger registers a named destination that receives every message at
// level or above. color enables ANSI level-tag coloring via fatih/color;
// disable it for file destinations.
func AddLogger(name string, out *os.File, level int, enableColor bool) {
	mu.Lock()
	defer mu.Unlock()
	loggers[name] = &logger{
		out:   golog.New(out, "", golog.LstdFlags),
		level: level,
		color: enableColor,
	}
}

// DelLogger removes a previously registered destination.
func DelLogger(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(loggers, name)
}

// SetLevel changes the minimum level a registered destination emits.
func SetLevel(name string, level int) error {
	mu.Lock()
	defer mu.Unlock()
	l, ok := loggers[name]
	if !ok {
		return fmt.Errorf("applog: no such logger %q", name)
	}
	l.level = level
	return nil
}

// LevelFromString parses one of debug/info/warn/error/fatal, the vocabulary
// accepted by the --log-level CLI flag and config file key.
func LevelFromString(s string) (int, error) {
	switch s {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "fatal":
		return FATAL, nil
	default:
		return -1, fmt.Errorf("applog: invalid log level %q", s)
	}
}

func emit(level int, name string, msg string) {
	mu.RLock()
	defer mu.RUnlock()

	tag := fmt.Sprintf("[%s]", levelNames[level])
	for _, l := range loggers {
		if l.level > level {
			continue
		}
		line := tag + " "
		if name != "" {
			line += name + ": "
		}
		line += msg
		if l.color {
			line = levelColor[level].Sprint(tag) + " " + line[len(tag)+1:]
		}
		l.out.Output(3, line)
	}
}

func Debug(format string, args ...interface{}) { emit(DEBUG, "", fmt.Sprintf(format, args...)) }
func Info(format string, args ...interface{})  { emit(INFO, "", fmt.Sprintf(format, args...)) }
func Warn(format string, args ...interface{})  { emit(WARN, "", fmt.Sprintf(format, args...)) }
func Error(format string, args ...interface{}) { emit(ERROR, "", fmt.Sprintf(format, args...)) }

func Fatal(format string, args ...interface{}) {
	emit(FATAL, "", fmt.Sprintf(format, args...))
	os.Exit(1)
}

// Named returns a logger that prefixes every message with name, the way a
// component (e.g. "client", "server") tags its own lines.
func Named(name string) Logger {
	return Logger{name: name}
}

// Logger is a thin name-bound handle onto the package-level loggers.
type Logger struct {
	name string
}

func (l Logger) Debug(format string, args ...interface{}) { emit(DEBUG, l.name, fmt.Sprintf(format, args...)) }
func (l Logger) Info(format string, args ...interface{})  { emit(INFO, l.name, fmt.Sprintf(format, args...)) }
func (l Logger) Warn(format string, args ...interface{})  { emit(WARN, l.name, fmt.Sprintf(format, args...)) }
func (l Logger) Error(format string, args ...interface{}) { emit(ERROR, l.name, fmt.Sprintf(format, args...)) }
