// Package logging provides the process-wide structured logger and the
// module-level settings (verbosity and progress reporting) shared by the
// parsers, writers and validator.
package logging

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// SettingsEnv names the environment variable pointing at the YAML settings file.
const SettingsEnv = "ISACORE_SETTINGS"

// ErrSettingsInvalid is returned when a settings file cannot be interpreted.
var ErrSettingsInvalid = errors.New("logging: settings invalid")

// Settings is the module-level configuration loaded once per process.
type Settings struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Progress enables periodic progress lines while parsing large tables.
	Progress bool `yaml:"progress"`
	// Mode selects the zap preset: development (console) or production (json).
	Mode string `yaml:"mode"`
}

// DefaultSettings returns the settings used when no settings file is configured.
func DefaultSettings() Settings {
	return Settings{Level: "info", Mode: "development"}
}

// Logger wraps a sugared zap logger with key/value helpers.
type Logger struct {
	sugar *zap.SugaredLogger
}

var (
	loadOnce sync.Once
	mu       sync.RWMutex
	current  Settings
	root     *Logger
)

// LoadSettings reads a YAML settings file. Missing fields keep their defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	buf, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(buf, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("%w: %s: %v", ErrSettingsInvalid, path, err)
	}
	if _, err := parseLevel(s.Level); err != nil {
		return DefaultSettings(), err
	}
	return s, nil
}

func ensureLoaded() {
	loadOnce.Do(func() {
		s := DefaultSettings()
		if path := strings.TrimSpace(os.Getenv(SettingsEnv)); path != "" {
			if loaded, err := LoadSettings(path); err == nil {
				s = loaded
			} else {
				fmt.Fprintf(os.Stderr, "isacore: ignoring settings %s: %v\n", path, err)
			}
		}
		mu.Lock()
		defer mu.Unlock()
		apply(s)
	})
}

// apply must be called with mu held for writing.
func apply(s Settings) {
	lvl, err := parseLevel(s.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	var cfg zap.Config
	switch strings.ToLower(s.Mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	zl, err := cfg.Build()
	if err != nil {
		zl = zap.NewNop()
	}
	if root != nil {
		_ = root.sugar.Sync()
	}
	current = s
	root = &Logger{sugar: zl.Sugar()}
}

func parseLevel(level string) (zapcore.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("%w: level %q", ErrSettingsInvalid, level)
	}
	return lvl, nil
}

// Configure replaces the module settings. Writers are serialized; readers
// observe either the old or the new settings.
func Configure(s Settings) {
	ensureLoaded()
	mu.Lock()
	defer mu.Unlock()
	apply(s)
}

// Current returns the active settings.
func Current() Settings {
	ensureLoaded()
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// ProgressEnabled reports whether progress lines should be logged.
func ProgressEnabled() bool {
	return Current().Progress
}

// L returns the process-wide logger.
func L() *Logger {
	ensureLoaded()
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// NewWithZap wraps an existing zap logger, mostly for tests using observers.
func NewWithZap(z *zap.Logger) *Logger {
	return &Logger{sugar: z.Sugar()}
}

func (l *Logger) Debug(msg string, keysAndValues ...any) { l.sugar.Debugw(msg, keysAndValues...) }
func (l *Logger) Info(msg string, keysAndValues ...any)  { l.sugar.Infow(msg, keysAndValues...) }
func (l *Logger) Warn(msg string, keysAndValues ...any)  { l.sugar.Warnw(msg, keysAndValues...) }
func (l *Logger) Error(msg string, keysAndValues ...any) { l.sugar.Errorw(msg, keysAndValues...) }

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}
