// Package logger is a leveled key/value logger. Values under personal keys
// (usernames, user ids, credentials, dietary preferences) are redacted
// unless the process runs in development mode at DEBUG level.
package logger

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{DEBUG: "DEBUG", INFO: "INFO", WARN: "WARN", ERROR: "ERROR"}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "INFO"
}

// ParseLevel converts a LOG_LEVEL value. Unknown values fall back to INFO.
func ParseLevel(level string) LogLevel {
	for l, name := range levelNames {
		if strings.EqualFold(level, name) {
			return l
		}
	}
	return INFO
}

type Logger struct {
	mu     sync.RWMutex
	level  LogLevel
	isDev  bool
	out    *log.Logger
	fields []any
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// New builds a standalone logger writing to w.
func New(level LogLevel, isDev bool, w io.Writer) *Logger {
	return &Logger{level: level, isDev: isDev, out: log.New(w, "", log.LstdFlags)}
}

// Initialize sets up the process-wide logger. Only the first call counts.
func Initialize(level LogLevel, isDev bool) {
	once.Do(func() {
		defaultLogger = New(level, isDev, os.Stdout)
	})
}

func GetLogger() *Logger {
	Initialize(INFO, false)
	return defaultLogger
}

func SetLevel(level LogLevel) {
	l := GetLogger()
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// With returns a logger that prepends keysAndValues to every line. The
// child starts at its parent's level and writes to the same output.
func (l *Logger) With(keysAndValues ...any) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fields := make([]any, 0, len(l.fields)+len(keysAndValues))
	fields = append(fields, l.fields...)
	fields = append(fields, keysAndValues...)
	return &Logger{level: l.level, isDev: l.isDev, out: l.out, fields: fields}
}

type redactRule struct {
	match  func(key string) bool
	redact func(value string) string
}

func keyContains(parts ...string) func(string) bool {
	return func(key string) bool {
		for _, p := range parts {
			if strings.Contains(key, p) {
				return true
			}
		}
		return false
	}
}

// Rules are tried in order; the first match wins.
var redactRules = []redactRule{
	{keyContains("password", "hash", "credential"), func(string) string { return "[REDACTED]" }},
	{keyContains("username"), redactName},
	{keyContains("userid", "user_id", "owner"), hashUserID},
	{keyContains("preference", "dietary"), func(string) string { return "[REDACTED]" }},
	{keyContains("session", "token"), truncateID},
}

func redactName(name string) string {
	runes := []rune(name)
	if len(runes) <= 2 {
		return "****"
	}
	return string(runes[0]) + "****" + string(runes[len(runes)-1])
}

// hashUserID maps a user id to a short stable token so lines about the same
// user can still be correlated.
func hashUserID(id string) string {
	if id == "" {
		return id
	}
	sum := sha256.Sum256([]byte(id))
	return fmt.Sprintf("user_%x", sum[:4])
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:4] + "****"
}

func redactValue(key string, value any) any {
	key = strings.ToLower(key)
	for _, rule := range redactRules {
		if rule.match(key) {
			return rule.redact(fmt.Sprint(value))
		}
	}
	return value
}

func (l *Logger) formatMessage(level LogLevel, msg string, keysAndValues []any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)

	kv := keysAndValues
	if len(l.fields) > 0 {
		kv = append(append([]any{}, l.fields...), keysAndValues...)
	}
	if len(kv) == 0 {
		return b.String()
	}

	redact := !l.isDev || l.currentLevel() > DEBUG
	b.WriteString(" {")
	for i := 0; i < len(kv); i += 2 {
		if i > 0 {
			b.WriteString(",")
		}
		key := fmt.Sprint(kv[i])
		var value any = "(MISSING)"
		if i+1 < len(kv) {
			value = kv[i+1]
		}
		if redact {
			value = redactValue(key, value)
		}
		fmt.Fprintf(&b, " %s=%v", key, value)
	}
	b.WriteString(" }")
	return b.String()
}

func (l *Logger) currentLevel() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *Logger) log(level LogLevel, msg string, keysAndValues []any) {
	if level < l.currentLevel() {
		return
	}
	l.out.Println(l.formatMessage(level, msg, keysAndValues))
}

func (l *Logger) Debug(msg string, keysAndValues ...any) { l.log(DEBUG, msg, keysAndValues) }
func (l *Logger) Info(msg string, keysAndValues ...any)  { l.log(INFO, msg, keysAndValues) }
func (l *Logger) Warn(msg string, keysAndValues ...any)  { l.log(WARN, msg, keysAndValues) }
func (l *Logger) Error(msg string, keysAndValues ...any) { l.log(ERROR, msg, keysAndValues) }

// Package-level convenience functions

func Debug(msg string, keysAndValues ...any) { GetLogger().log(DEBUG, msg, keysAndValues) }
func Info(msg string, keysAndValues ...any)  { GetLogger().log(INFO, msg, keysAndValues) }
func Warn(msg string, keysAndValues ...any)  { GetLogger().log(WARN, msg, keysAndValues) }
func Error(msg string, keysAndValues ...any) { GetLogger().log(ERROR, msg, keysAndValues) }
