package logs

import (
	"io"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"TrenchGame/internal/shared/serverconfig"
)

var (
	logger      *zap.Logger = zap.NewNop()
	atomicLevel             = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init builds the process logger: coloured console output, plus a rotated
// JSON file when cfg.FileDir is set.
func Init(appName string, cfg serverconfig.LogConfig) error {
	atomicLevel.SetLevel(parseLevel(cfg.Level))

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	consoleCfg := encoderCfg
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(consoleCfg)

	fileCfg := encoderCfg
	fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(fileCfg)

	var fileWriter io.Writer = io.Discard
	if cfg.FileDir != "" {
		fileWriter = &lumberjack.Logger{
			Filename:   cfg.FileDir,
			MaxSize:    max(1, cfg.MaxSize),
			MaxBackups: max(0, cfg.MaxBackups),
			MaxAge:     max(0, cfg.MaxAge),
			Compress:   cfg.Compress,
		}
	}

	consoleSyncer := zapcore.Lock(os.Stderr)
	fileSyncer := zapcore.AddSync(fileWriter)

	// Two cores so ANSI colour codes never reach the file.
	core := zapcore.NewCore(consoleEncoder, consoleSyncer, atomicLevel)
	if cfg.FileDir != "" {
		core = zapcore.NewTee(
			core,
			zapcore.NewCore(jsonEncoder, fileSyncer, atomicLevel),
		)
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Dev {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}

	_ = logger.Sync()
	logger = zap.New(core, opts...).Named(appName)
	return nil
}

// SetLevel changes the level of the running logger. Unknown names map to info.
func SetLevel(level string) {
	lvl := parseLevel(level)
	if atomicLevel.Level() == lvl {
		return
	}
	atomicLevel.SetLevel(lvl)
	logger.Info("log level changed", zap.String("level", lvl.String()))
}

func parseLevel(level string) zapcore.Level {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Logger returns the process logger. It is a no-op until Init runs.
func Logger() *zap.Logger {
	return logger
}

func Sync() {
	_ = logger.Sync()
}

func Debug(msg string, fields ...zap.Field) {
	logger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	logger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
}

// Fatal logs and exits the process with status 1.
func Fatal(msg string, fields ...zap.Field) {
	logger.Fatal(msg, fields...)
}
