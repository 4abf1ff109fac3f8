package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vvka-141/ingest/pkg/ingest"
)

// ZapLogger writes one JSON object per message.
// Verbose messages are logged at debug level.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger creates a JSON logger on stderr.
func NewZapLogger(verbose bool) *ZapLogger {
	return NewZapLoggerTo(os.Stderr, verbose)
}

// NewZapLoggerTo creates a JSON logger writing to out.
func NewZapLoggerTo(out io.Writer, verbose bool) *ZapLogger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(zapcore.AddSync(out)),
		level,
	)
	return &ZapLogger{logger: zap.New(core).Named("ingest")}
}

// With returns a logger that adds fields to every message.
func (l *ZapLogger) With(fields ...zap.Field) *ZapLogger {
	return &ZapLogger{logger: l.logger.With(fields...)}
}

func (l *ZapLogger) Verbose(format string, args ...interface{}) {
	l.logger.Debug(sprintf(format, args))
}

func (l *ZapLogger) Info(format string, args ...interface{}) {
	l.logger.Info(sprintf(format, args))
}

func (l *ZapLogger) Error(format string, args ...interface{}) {
	l.logger.Error(sprintf(format, args))
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func sprintf(format string, args []interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

var _ ingest.Logger = (*ZapLogger)(nil)
