package logger

import (
	"os"
	"strconv"

	"chat-service/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init builds the global zap logger. Logs always go to the rotated file; in
// dev mode they are teed to stdout in console format as well. Callers use
// zap.L() after this returns.
func Init() error {
	fileCore := zapcore.NewCore(encoder(), fileWriter(), level())

	core := fileCore
	if config.Config("APP_ENV") != "production" {
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), zapcore.DebugLevel)
		core = zapcore.NewTee(fileCore, consoleCore)
	}

	zap.ReplaceGlobals(zap.New(core, zap.AddCaller()))
	return nil
}

func fileWriter() zapcore.WriteSyncer {
	maxSize, _ := strconv.Atoi(config.ConfigDefault("LOG_MAX_SIZE", "100"))
	maxBackups, _ := strconv.Atoi(config.ConfigDefault("LOG_MAX_BACKUPS", "5"))
	maxAge, _ := strconv.Atoi(config.ConfigDefault("LOG_MAX_AGE", "30"))

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   config.ConfigDefault("LOG_FILE", "log/chat-service.log"),
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
	})
}

func encoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func level() zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(config.ConfigDefault("LOG_LEVEL", "info"))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}
