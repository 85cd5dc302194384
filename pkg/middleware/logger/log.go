package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Dir is where NewLog writes; LOG_DIR overrides it.
func Dir() string {
	if d := os.Getenv("LOG_DIR"); d != "" {
		return d
	}
	return "log"
}

// NewLog tees JSON to a rotated file under Dir and to stdout.
func NewLog(name string) *zap.Logger {
	dir := Dir()
	_ = os.MkdirAll(dir, 0o755)

	cfg := zap.NewProductionEncoderConfig()
	cfg.MessageKey = zapcore.OmitKey

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
	})

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, zap.InfoLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.Lock(os.Stdout), zap.InfoLevel),
	)
	return zap.New(core)
}

func ProvideLogger() *zap.Logger { return NewLog("system.log") }

func ProvideLoggerMiddleware() *Middleware {
	return &Middleware{access: NewLog("http-access.log")}
}

var Module = fx.Options(
	fx.Provide(ProvideLoggerMiddleware),
	fx.Provide(ProvideLogger),
)
