// Package log 提供 SDK 日志配置
package log

import (
	"go.uber.org/zap/zapcore"
)

// LogOptions 日志配置选项
type LogOptions struct {
	// === 基础配置 ===
	Level     string `json:"level"`      // 日志级别 (debug, info, warn, error)
	ToConsole bool   `json:"to_console"` // 是否输出到 stderr
	FilePath  string `json:"file_path"`  // 日志文件路径，空表示不写文件

	// === 基础轮转配置 ===
	MaxSize    int  `json:"max_size"`    // 单个日志文件最大大小(MB)
	MaxBackups int  `json:"max_backups"` // 最大备份文件数
	MaxAge     int  `json:"max_age"`     // 日志文件最大保留天数
	Compress   bool `json:"compress"`    // 是否压缩历史日志文件

	// === 调试配置 ===
	EnableCaller bool `json:"enable_caller"` // 是否启用调用者信息
}

// Config 日志配置实现
type Config struct {
	options *LogOptions
}

// New 创建日志配置；user 中的零值字段使用默认值
func New(user *LogOptions) *Config {
	options := createDefaultLogOptions()
	if user != nil {
		applyUserLogOptions(options, user)
	}
	return &Config{options: options}
}

// createDefaultLogOptions 创建默认日志配置
func createDefaultLogOptions() *LogOptions {
	return &LogOptions{
		Level:        defaultLogLevel,
		ToConsole:    defaultToConsole,
		FilePath:     defaultFilePath,
		MaxSize:      defaultMaxSize,
		MaxBackups:   defaultMaxBackups,
		MaxAge:       defaultMaxAge,
		Compress:     defaultCompress,
		EnableCaller: defaultEnableCaller,
	}
}

// applyUserLogOptions 用户配置覆盖默认值
func applyUserLogOptions(options, user *LogOptions) {
	if user.Level != "" {
		options.Level = user.Level
	}
	if user.FilePath != "" {
		options.FilePath = user.FilePath
		options.ToConsole = user.ToConsole
	}
	if user.MaxSize > 0 {
		options.MaxSize = user.MaxSize
	}
	if user.MaxBackups > 0 {
		options.MaxBackups = user.MaxBackups
	}
	if user.MaxAge > 0 {
		options.MaxAge = user.MaxAge
	}
	options.EnableCaller = user.EnableCaller
}

// GetOptions 获取完整的日志配置选项
func (c *Config) GetOptions() *LogOptions {
	return c.options
}

// GetZapLevel 获取zap日志级别，未知级别按 info 处理
func (c *Config) GetZapLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.options.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// IsConsoleEnabled 是否启用控制台输出
func (c *Config) IsConsoleEnabled() bool {
	return c.options.ToConsole
}

// GetFilePath 获取日志文件路径
func (c *Config) GetFilePath() string {
	return c.options.FilePath
}

// GetMaxSize 获取单个文件最大大小(MB)
func (c *Config) GetMaxSize() int {
	return c.options.MaxSize
}

// GetMaxBackups 获取最大备份文件数
func (c *Config) GetMaxBackups() int {
	return c.options.MaxBackups
}

// GetMaxAge 获取最大保留天数
func (c *Config) GetMaxAge() int {
	return c.options.MaxAge
}

// IsCompressionEnabled 是否启用压缩
func (c *Config) IsCompressionEnabled() bool {
	return c.options.Compress
}

// IsCallerEnabled 是否启用调用者信息
func (c *Config) IsCallerEnabled() bool {
	return c.options.EnableCaller
}

// CreateFileEncoder 文件使用 JSON 编码
func (c *Config) CreateFileEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
	})
}

// CreateConsoleEncoder 控制台使用可读格式
func (c *Config) CreateConsoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
	})
}
