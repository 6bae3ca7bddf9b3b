package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"

	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
	BrightWhite   = "\033[97m"
)

// ColoredLogger wraps zap.Logger with colored output
type ColoredLogger struct {
	*zap.Logger
	enableColors bool
}

// Component represents different parts of the system for color coding
type Component string

const (
	ComponentGeneral   Component = "GENERAL"
	ComponentGateway   Component = "GATEWAY"
	ComponentChain     Component = "CHAIN"
	ComponentContract  Component = "CONTRACT"
	ComponentJournal   Component = "JOURNAL"
	ComponentScheduler Component = "SCHEDULER"
	ComponentConfig    Component = "CONFIG"
)

func getComponentColor(component Component) string {
	switch component {
	case ComponentGeneral:
		return Yellow
	case ComponentGateway:
		return BrightGreen
	case ComponentChain:
		return BrightCyan
	case ComponentContract:
		return BrightMagenta
	case ComponentJournal:
		return Green
	case ComponentScheduler:
		return BrightBlue
	case ComponentConfig:
		return Cyan
	default:
		return White
	}
}

func getLevelColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return Gray
	case zapcore.InfoLevel:
		return BrightWhite
	case zapcore.WarnLevel:
		return BrightYellow
	case zapcore.ErrorLevel:
		return BrightRed
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return Red
	default:
		return White
	}
}

// coloredConsoleEncoder creates a custom encoder with colors
func coloredConsoleEncoder(enableColors bool) zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()

	// HH:MM:SS only
	config.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		timeStr := t.Format("15:04:05")
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s%s", Dim, timeStr, Reset))
		} else {
			enc.AppendString(timeStr)
		}
	}

	// Single letter level: D, I, W, E
	config.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		levelStr := levelLetter(level)
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s%s%s", getLevelColor(level), Bold, levelStr, Reset))
		} else {
			enc.AppendString(levelStr)
		}
	}

	config.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		file := caller.File
		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}
		file = strings.TrimSuffix(file, ".go")
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s%s", Dim, file, Reset))
		} else {
			enc.AppendString(file)
		}
	}

	return zapcore.NewConsoleEncoder(config)
}

func levelLetter(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return "D"
	case zapcore.InfoLevel:
		return "I"
	case zapcore.WarnLevel:
		return "W"
	case zapcore.ErrorLevel:
		return "E"
	default:
		return "?"
	}
}

// ParseLevel converts a textual level ("debug", "info", "warn", "error") into
// a zapcore.Level. Empty input means debug.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.DebugLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func newLogger(sink zapcore.WriteSyncer, level zapcore.Level, enableColors bool) *ColoredLogger {
	core := zapcore.NewCore(coloredConsoleEncoder(enableColors), sink, level)
	return &ColoredLogger{
		Logger:       zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)),
		enableColors: enableColors,
	}
}

// NewLeveledLogger creates a stdout logger that drops entries below level.
func NewLeveledLogger(component Component, level string, enableColors bool) (*ColoredLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return newLogger(zapcore.AddSync(os.Stdout), lvl, enableColors), nil
}

// NewFileLogger creates a logger that writes to a file
func NewFileLogger(component Component, filePath string, level string) (*ColoredLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}
	return newLogger(zapcore.AddSync(file), lvl, false), nil
}

// NewNopLogger returns a logger that discards everything. Used by tests and
// by components constructed without a logger.
func NewNopLogger() *ColoredLogger {
	return &ColoredLogger{Logger: zap.NewNop()}
}

func (l *ColoredLogger) tag(component Component, msg string) string {
	if l.enableColors {
		return fmt.Sprintf("%s[%s]%s %s", getComponentColor(component), component, Reset, msg)
	}
	return fmt.Sprintf("[%s] %s", component, msg)
}

// Component-specific logging methods
func (l *ColoredLogger) ComponentInfo(component Component, msg string, fields ...zap.Field) {
	l.Info(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentWarn(component Component, msg string, fields ...zap.Field) {
	l.Warn(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentError(component Component, msg string, fields ...zap.Field) {
	l.Error(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentDebug(component Component, msg string, fields ...zap.Field) {
	l.Debug(l.tag(component, msg), fields...)
}

// MaskSecret keeps the last four characters of a secret and stars the rest.
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return "SHORT_KEY"
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
