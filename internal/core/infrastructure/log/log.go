// Package log 提供基于zap的日志实现
// 支持控制台输出、lumberjack 文件轮转以及按 module 字段区分组件
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	logconfig "github.com/weisyn/shardsdk/internal/config/log"
	logInterface "github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// 全局日志实例，未显式设置时为 Nop
	globalLogger logInterface.Logger = NewNop()
	mu           sync.RWMutex
)

// Logger 实现 log.Logger 接口
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

// createFileWriter 创建带轮转的日志文件写入器
func createFileWriter(logPath string, config *logconfig.Config) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    config.GetMaxSize(),
		MaxBackups: config.GetMaxBackups(),
		MaxAge:     config.GetMaxAge(),
		Compress:   config.IsCompressionEnabled(),
	}), nil
}

// New 根据配置创建日志记录器
func New(config *logconfig.Config) (logInterface.Logger, error) {
	if config == nil {
		config = logconfig.New(nil)
	}
	level := zap.NewAtomicLevelAt(config.GetZapLevel())

	var cores []zapcore.Core
	if config.IsConsoleEnabled() {
		cores = append(cores, zapcore.NewCore(config.CreateConsoleEncoder(), zapcore.Lock(os.Stderr), level))
	}
	if path := config.GetFilePath(); path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve log path: %w", err)
		}
		writer, err := createFileWriter(absPath, config)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(config.CreateFileEncoder(), writer, level))
	}

	var zapOptions []zap.Option
	if config.IsCallerEnabled() {
		// 跳过一层封装，调用位置指向业务代码
		zapOptions = append(zapOptions, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	return NewFromZap(zap.New(zapcore.NewTee(cores...), zapOptions...)), nil
}

// NewFromZap 包装已有的 zap.Logger（测试中配合 zaptest/observer 使用）
func NewFromZap(zapLogger *zap.Logger) logInterface.Logger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &Logger{
		zapLogger: zapLogger,
		sugar:     zapLogger.Sugar(),
	}
}

// NewNop 不输出任何内容的日志记录器
func NewNop() logInterface.Logger {
	return NewFromZap(zap.NewNop())
}

// SetLogger 设置全局日志记录器
func SetLogger(logger logInterface.Logger) {
	if logger == nil {
		return
	}
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
}

// GetLogger 获取全局日志记录器
func GetLogger() logInterface.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// NewModuleLogger 创建带 module 字段的 logger；base 为 nil 时使用全局 logger
func NewModuleLogger(base logInterface.Logger, module string) logInterface.Logger {
	if base == nil {
		base = GetLogger()
	}
	return base.With("module", module)
}

// toZapFields 将键值对转换为zap字段，奇数个参数时丢弃最后一个
func toZapFields(args ...interface{}) []zap.Field {
	if len(args)%2 != 0 {
		args = args[:len(args)-1]
	}
	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

// Debug 记录调试级别的日志
func (l *Logger) Debug(msg string) {
	l.sugar.Debug(msg)
}

// Debugf 使用格式化字符串记录调试级别的日志
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info 记录信息级别的日志
func (l *Logger) Info(msg string) {
	l.sugar.Info(msg)
}

// Infof 使用格式化字符串记录信息级别的日志
func (l *Logger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn 记录警告级别的日志
func (l *Logger) Warn(msg string) {
	l.sugar.Warn(msg)
}

// Warnf 使用格式化字符串记录警告级别的日志
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error 记录错误级别的日志
func (l *Logger) Error(msg string) {
	l.sugar.Error(msg)
}

// Errorf 使用格式化字符串记录错误级别的日志
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// With 返回一个带有额外字段的Logger
func (l *Logger) With(args ...interface{}) logInterface.Logger {
	zl := l.zapLogger.With(toZapFields(args...)...)
	return &Logger{
		zapLogger: zl,
		sugar:     zl.Sugar(),
	}
}

// Sync 同步日志缓冲区到输出
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}

// GetZapLogger 获取底层的zap日志记录器
func (l *Logger) GetZapLogger() *zap.Logger {
	return l.zapLogger
}
