// Package log is the module-gated structured logger for the GDLK toolchain.
// Output is off by default so library use stays silent; hosts opt in with
// InitLogger plus EnableModules. Each subsystem logs under its own module
// tag and can be toggled independently of the level.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Module tags used across the toolchain.
const (
	ParserModule   = "parser"
	CompilerModule = "compiler"
	MachineModule  = "machine"
)

// Levels beyond the slog defaults.
const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelCrit  slog.Level = 12
)

var root atomic.Value

func init() {
	root.Store(slog.New(discardHandler{}))
}

// ParseLevel converts a level name into a slog level.
func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToUpper(lvl) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "CRIT", "CRITICAL":
		return LevelCrit, nil
	default:
		return 0, fmt.Errorf("invalid level: %s", lvl)
	}
}

// InitLogger points the root logger at stderr with the given minimum level.
func InitLogger(logLevel string) {
	lvl, err := ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})))
}

// SetDefault swaps the root logger.
func SetDefault(l *slog.Logger) {
	root.Store(l)
}

// Root returns the root logger.
func Root() *slog.Logger {
	return root.Load().(*slog.Logger)
}

var moduleEnabled = map[string]bool{
	ParserModule:   false,
	CompilerModule: false,
	MachineModule:  false,
}

// EnableModules enables logging for a comma-separated list of modules, or
// for every known module when given "all".
func EnableModules(modules string) {
	for _, module := range strings.Split(modules, ",") {
		module = strings.TrimSpace(module)
		if module == "" {
			continue
		}
		if module == "all" {
			for known := range moduleEnabled {
				moduleEnabled[known] = true
			}
			continue
		}
		moduleEnabled[module] = true
	}
}

// DisableModule disables logging for one module.
func DisableModule(module string) {
	moduleEnabled[module] = false
}

func isModuleEnabled(module string) bool {
	return moduleEnabled[module]
}

func write(level slog.Level, module string, msg string, ctx ...any) {
	attrs := append([]any{"module", module}, ctx...)
	Root().Log(context.Background(), level, msg, attrs...)
}

// discardHandler drops every record. It is the initial root handler so that
// importing the library never produces output on its own.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

// Trace logs at trace level if the module is enabled.
func Trace(module string, msg string, ctx ...any) {
	if !isModuleEnabled(module) {
		return
	}
	write(LevelTrace, module, msg, ctx...)
}

// Debug logs at debug level if the module is enabled.
func Debug(module string, msg string, ctx ...any) {
	if !isModuleEnabled(module) {
		return
	}
	write(LevelDebug, module, msg, ctx...)
}

// Info logs at info level. Info and above do not filter on module.
func Info(module string, msg string, ctx ...any) {
	write(LevelInfo, module, msg, ctx...)
}

// Warn logs at warn level.
func Warn(module string, msg string, ctx ...any) {
	write(LevelWarn, module, msg, ctx...)
}

// Error logs at error level.
func Error(module string, msg string, ctx ...any) {
	write(LevelError, module, msg, ctx...)
}

// Crit logs at crit level and exits.
func Crit(module string, msg string, ctx ...any) {
	write(LevelCrit, module, msg, ctx...)
	os.Exit(1)
}
