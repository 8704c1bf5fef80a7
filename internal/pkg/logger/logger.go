// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var base atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(os.Stdout).With().Timestamp().Logger()
	base.Store(&l)
}

// Init 根据运行环境初始化全局日志器。dev 环境使用可读的控制台格式，其余环境输出 JSON。
func Init(serviceName, env, level string) {
	var w io.Writer = os.Stdout
	if env == "dev" || env == "" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	l := zerolog.New(w).Level(lvl).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
	base.Store(&l)
}

// Ctx 返回携带当前链路 trace_id / span_id 的日志器。
func Ctx(ctx context.Context) *zerolog.Logger {
	l := *base.Load()
	if ctx == nil {
		return &l
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		l = l.With().
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Logger()
	}
	return &l
}

// L 返回不带链路信息的全局日志器，用于启动和关停阶段。
func L() *zerolog.Logger {
	return base.Load()
}
