package middleware

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/handlers"
)

// 文档注释：入口中间件链
// 背景：前端与 API 可能不同源，跨域来源由 CORS_ORIGINS 配置（逗号分隔，缺省 *）；处理器 panic 时返回 500 并记录日志，不中断服务。
// 约束：只放行 GET/POST/OPTIONS 与 content-type 头，与路由注册的方法一致。
func Wrap(next http.Handler, l *slog.Logger) http.Handler {
	h := handlers.CORS(
		handlers.AllowedOrigins(AllowedOrigins(os.Getenv("CORS_ORIGINS"))),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Request-ID"}),
		handlers.ExposedHeaders([]string{"X-Request-ID"}),
	)(next)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{l}),
		handlers.PrintRecoveryStack(false),
	)(h)
}

// AllowedOrigins 解析逗号分隔的来源列表，空值表示任意来源
func AllowedOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

type recoveryLogger struct{ l *slog.Logger }

func (r recoveryLogger) Println(v ...interface{}) {
	r.l.Error("http_panic", "err", v)
}
