package logger

import (
	"io"
	"os"

	"MedMemory/backend/go/internal/models"

	"github.com/sirupsen/logrus"
)

// Logger 是对 logrus 的封装，以提供更方便的结构化日志记录功能。
// With* 方法返回新的 Logger，不会修改接收者，因此可以在多个 goroutine 中共享。
type Logger struct {
	entry *logrus.Entry
}

// Init 初始化全局的 logrus 配置：JSON 格式，输出到标准输出。
func Init(level logrus.Level) {
	InitWithOutput(level, os.Stdout)
}

// InitWithOutput 与 Init 相同，但输出到指定的 writer。
func InitWithOutput(level logrus.Level, out io.Writer) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logrus.SetOutput(out)
	logrus.SetLevel(level)
}

// New 创建一个新的 Logger 实例，并预设服务名、追踪 ID 与受试者 ID。
func New(serviceName, traceID, subjectID string) *Logger {
	return &Logger{
		entry: logrus.WithFields(logrus.Fields{
			"service_name": serviceName,
			"trace_id":     traceID,
			"subject_id":   subjectID,
		}),
	}
}

func (l *Logger) with(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithRequest 将请求信息添加到日志条目中。
func (l *Logger) WithRequest(req models.RequestInfo) *Logger {
	return l.with("request_info", req)
}

// WithError 将错误信息添加到日志条目中。
func (l *Logger) WithError(err models.ErrorInfo) *Logger {
	return l.with("error", err)
}

// WithPayload 将自定义的业务数据添加到日志条目中。
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return l.with("payload", payload)
}

// WithTrace 替换追踪 ID，用于单条陈述或单个请求。
func (l *Logger) WithTrace(traceID string) *Logger {
	return l.with("trace_id", traceID)
}

// WithSubject 替换受试者 ID。
func (l *Logger) WithSubject(subjectID string) *Logger {
	return l.with("subject_id", subjectID)
}

// Info 记录一条信息级别的日志。
func (l *Logger) Info(message string) {
	l.entry.Info(message)
}

// Warn 记录一条警告级别的日志。
func (l *Logger) Warn(message string) {
	l.entry.Warn(message)
}

// Error 记录一条错误级别的日志。
func (l *Logger) Error(message string) {
	l.entry.Error(message)
}

// Debug 记录一条调试级别的日志。
func (l *Logger) Debug(message string) {
	l.entry.Debug(message)
}

// Fatal 记录一条致命错误级别的日志，并终止程序。
func (l *Logger) Fatal(message string) {
	l.entry.Fatal(message)
}
