package logger

import (
	"sync"

	"github.com/zeromicro/go-zero/core/logx"
)

// Logger 包装了go-zero的logx，提供统一的日志接口
type Logger struct {
	logger logx.Logger
}

// New 创建一个新的Logger实例，跳过包装层的调用栈
func New() *Logger {
	return &Logger{
		logger: logx.WithCallerSkip(2),
	}
}

// Field 创建日志字段
func Field(key string, value any) logx.LogField {
	return logx.Field(key, value)
}

func (l *Logger) Info(v ...any) {
	l.logger.Info(v...)
}

func (l *Logger) Infof(format string, v ...any) {
	l.logger.Infof(format, v...)
}

func (l *Logger) Infow(msg string, fields ...logx.LogField) {
	l.logger.Infow(msg, fields...)
}

func (l *Logger) Error(v ...any) {
	l.logger.Error(v...)
}

func (l *Logger) Errorf(format string, v ...any) {
	l.logger.Errorf(format, v...)
}

func (l *Logger) Errorw(msg string, fields ...logx.LogField) {
	l.logger.Errorw(msg, fields...)
}

func (l *Logger) Debug(v ...any) {
	l.logger.Debug(v...)
}

func (l *Logger) Debugf(format string, v ...any) {
	l.logger.Debugf(format, v...)
}

func (l *Logger) Debugw(msg string, fields ...logx.LogField) {
	l.logger.Debugw(msg, fields...)
}

// WithFields 创建带字段的logger
func (l *Logger) WithFields(fields ...logx.LogField) *Logger {
	return &Logger{
		logger: l.logger.WithFields(fields...),
	}
}

var (
	defaultLogger *Logger
	once          sync.Once
	fallbackOnce  sync.Once
	fallback      *Logger
)

// Config 日志配置
type Config struct {
	ServiceName string `yaml:"service_name"`
	Mode        string `yaml:"mode"`     // console, file, volume
	Level       string `yaml:"level"`    // debug, info, error, severe
	Encoding    string `yaml:"encoding"` // json, plain
}

// DefaultConfig 返回默认配置
func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName: serviceName,
		Mode:        "console",
		Level:       "info",
		Encoding:    "json",
	}
}

// Init 初始化日志系统
func Init(serviceName string) {
	InitWithConfig(DefaultConfig(serviceName))
}

// InitWithConfig 使用自定义配置初始化日志系统，只生效一次
func InitWithConfig(config Config) {
	once.Do(func() {
		if config.Mode == "" {
			config.Mode = "console"
		}
		if config.Level == "" {
			config.Level = "info"
		}
		logx.MustSetup(logx.LogConf{
			ServiceName: config.ServiceName,
			Mode:        config.Mode,
			Level:       config.Level,
			Encoding:    config.Encoding,
		})

		defaultLogger = New()
	})
}

// Close 关闭日志系统
func Close() {
	logx.Close()
}

// std 未调用 Init 时（例如测试中）使用 logx 的默认输出
func std() *Logger {
	if defaultLogger != nil {
		return defaultLogger
	}
	fallbackOnce.Do(func() {
		fallback = New()
	})
	return fallback
}

func Info(v ...any) {
	std().Info(v...)
}

func Infof(format string, v ...any) {
	std().Infof(format, v...)
}

func Infow(msg string, fields ...logx.LogField) {
	std().Infow(msg, fields...)
}

func Error(v ...any) {
	std().Error(v...)
}

func Errorf(format string, v ...any) {
	std().Errorf(format, v...)
}

func Errorw(msg string, fields ...logx.LogField) {
	std().Errorw(msg, fields...)
}

func Debug(v ...any) {
	std().Debug(v...)
}

func Debugf(format string, v ...any) {
	std().Debugf(format, v...)
}

func Debugw(msg string, fields ...logx.LogField) {
	std().Debugw(msg, fields...)
}

func WithFields(fields ...logx.LogField) *Logger {
	return std().WithFields(fields...)
}
