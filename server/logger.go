package server

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"collectarena/config"
)

// Log 是全局可用的 SugaredLogger；未初始化时为 no-op，测试无需额外准备
var Log = zap.NewNop().Sugar()

// InitLogger 初始化 zap 日志到本地文件（支持滚动），可选同时输出到控制台
// debug 为 true 时强制 Debug 级别
func InitLogger(cfg config.Log, debug bool) error {
	l, err := newLogger(cfg, debug)
	if err != nil {
		return err
	}
	Log = l
	return nil
}

func newLogger(cfg config.Log, debug bool) (*zap.SugaredLogger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	encoder := zapcore.NewConsoleEncoder(encCfg)

	var cores []zapcore.Core
	if cfg.File != "" {
		// 文件滚动策略：按大小切分，保留若干备份
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(lj), level))
	}
	if cfg.Console {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
	}
	if len(cores) == 0 {
		return zap.NewNop().Sugar(), nil
	}

	// 添加调用者信息（文件:行号）
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar(), nil
}

// SyncLogger 清理和同步缓冲
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
