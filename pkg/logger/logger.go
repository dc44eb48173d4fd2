package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config opciones para el logger.
type Config struct {
	Env   string // development -> consola legible; production -> JSON
	Level string // trace, debug, info, warn, error
	Out   io.Writer
}

// Logger wrapper sobre zerolog para inyección y consistencia.
type Logger struct {
	zl zerolog.Logger
}

// New crea un logger estructurado. En development usa salida legible; en production JSON.
func New(cfg Config) *Logger {
	var w io.Writer = os.Stdout
	if cfg.Out != nil {
		w = cfg.Out
	}
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: w}
	}

	zl := zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()

	// Redirigir el logger global de zerolog para librerías que lo usen
	log.Logger = zl

	return &Logger{zl: zl}
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Trace, Debug, Info, Warn, Error delegados a zerolog.
func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// With crea un sublogger con campos fijos.
func (l *Logger) With() zerolog.Context {
	return l.zl.With()
}

// Zerolog devuelve el logger interno por si se necesita la API directa.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

// Component devuelve un sublogger con el campo component fijo.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.zl.With().Str("component", name).Logger()
}

// AccessWriter io.Writer para el middleware de acceso HTTP: cada línea se emite como evento info.
func (l *Logger) AccessWriter() io.Writer {
	return accessWriter{zl: l.Component("http")}
}

type accessWriter struct {
	zl zerolog.Logger
}

func (w accessWriter) Write(p []byte) (int, error) {
	w.zl.Info().Msg(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// MigrateLogger adapta el logger a la interfaz Logger de golang-migrate.
type MigrateLogger struct {
	zl      zerolog.Logger
	verbose bool
}

// NewMigrateLogger construye el adaptador; verbose activa los mensajes de detalle.
func (l *Logger) NewMigrateLogger(verbose bool) *MigrateLogger {
	return &MigrateLogger{zl: l.Component("migrate"), verbose: verbose}
}

// Printf implementa migrate.Logger.
func (m *MigrateLogger) Printf(format string, v ...interface{}) {
	m.zl.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Verbose implementa migrate.Logger.
func (m *MigrateLogger) Verbose() bool {
	return m.verbose
}
