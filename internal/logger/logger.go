// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// It wraps the standard log package to provide level-based filtering and either plain text
// or single-line JSON output.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel
	// ErrorLevel logs are high-priority. If an application is running smoothly, it shouldn't generate any error-level logs.
	ErrorLevel
)

var levelNames = map[Level]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
}

// ParseLevel maps a config string to a Level, defaulting to InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger provides leveled logging
type Logger struct {
	level  Level
	json   bool
	logger *log.Logger
}

var (
	mu            sync.RWMutex
	defaultLogger *Logger
)

// Init initializes the default logger with the specified level and format, writing to stderr
func Init(level string, format string) {
	InitWriter(level, format, os.Stderr)
}

// InitWriter initializes the default logger writing to w
func InitWriter(level string, format string, w io.Writer) {
	jsonFormat := strings.ToLower(format) == "json"

	flags := log.LstdFlags | log.Lmicroseconds
	if jsonFormat {
		flags = 0
	} else {
		flags |= log.Lshortfile
	}

	mu.Lock()
	defer mu.Unlock()
	defaultLogger = &Logger{
		level:  ParseLevel(level),
		json:   jsonFormat,
		logger: log.New(w, "", flags),
	}
}

func output(level Level, format string, args ...interface{}) {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil || l.level > level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if l.json {
		line, err := json.Marshal(struct {
			Time  string `json:"time"`
			Level string `json:"level"`
			Msg   string `json:"msg"`
		}{time.Now().Format(time.RFC3339Nano), strings.ToLower(levelNames[level]), msg})
		if err == nil {
			_ = l.logger.Output(3, string(line))
			return
		}
	}
	_ = l.logger.Output(3, "["+levelNames[level]+"] "+msg)
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	output(DebugLevel, format, args...)
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	output(InfoLevel, format, args...)
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	output(WarnLevel, format, args...)
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	output(ErrorLevel, format, args...)
}

// Fatal logs a message at ErrorLevel and exits
func Fatal(format string, args ...interface{}) {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()

	msg := fmt.Sprintf("[FATAL] "+format, args...)
	if l != nil {
		_ = l.logger.Output(2, msg)
	} else {
		log.Print(msg)
	}
	os.Exit(1)
}
