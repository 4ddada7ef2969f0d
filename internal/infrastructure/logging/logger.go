package logging

import (
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/GriffinCanCode/labmat/internal/infrastructure/config"
)

// rootName prefixes every component logger.
const rootName = "labmat"

// Logger wraps zap.Logger with a level that can change at runtime.
type Logger struct {
	*zap.Logger
	level zap.AtomicLevel
}

// Config defines logger configuration.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	OutputPaths []string
}

// FromConfig maps the environment settings onto a Config writing to stdout.
func FromConfig(cfg config.LogConfig) Config {
	return Config{
		Level:       cfg.Level,
		Development: cfg.Development,
		OutputPaths: []string{"stdout"},
	}
}

// FileConfig returns a configuration that writes to path only.
// The terminal client uses it so log lines never reach the screen it draws on.
func FileConfig(path, level string) Config {
	return Config{
		Level:       level,
		OutputPaths: []string{path},
	}
}

// New creates a logger. Development mode switches to colored console output
// and enables stack traces.
func New(cfg Config) (*Logger, error) {
	level, err := zap.ParseAtomicLevel(defaultLevel(cfg.Level))
	if err != nil {
		return nil, err
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	encoding := "json"
	if cfg.Development {
		encoding = "console"
	}

	z, err := zap.Config{
		Level:             level,
		Development:       cfg.Development,
		Encoding:          encoding,
		EncoderConfig:     encoderConfig(cfg.Development),
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !cfg.Development,
	}.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{Logger: z.Named(rootName), level: level}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), level: zap.NewAtomicLevelAt(zapcore.FatalLevel)}
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *zap.Logger {
	return l.Logger.Named(name)
}

// Level reports the current minimum level.
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// SetLevel changes the minimum level of this logger and all its children.
func (l *Logger) SetLevel(level string) error {
	return l.level.UnmarshalText([]byte(level))
}

// LevelHandler serves GET and PUT of the current level as JSON,
// e.g. {"level":"debug"}.
func (l *Logger) LevelHandler() http.Handler {
	return l.level
}

func defaultLevel(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

func encoderConfig(development bool) zapcore.EncoderConfig {
	if development {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeDuration = zapcore.StringDurationEncoder
		return cfg
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.SecondsDurationEncoder
	return cfg
}
