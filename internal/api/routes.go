// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"density-api/internal/density"
	"density-api/internal/events"
	"density-api/internal/metrics"
	"density-api/internal/places"
	"density-api/internal/scorecache"
	"density-api/internal/store"

	"github.com/gorilla/mux"
)

// Scorer：评分引擎能力，由 density.Engine 实现
type Scorer interface {
	ScorePlace(ctx context.Context, placeID string) (density.Result, error)
	ScoreBulk(ctx context.Context, ps []density.Place) (map[string]density.Result, error)
}

// Reports：上报与事件写入、统计读取，由 store.Store 实现
type Reports interface {
	InsertReport(ctx context.Context, r store.NewReport) (string, time.Time, error)
	InsertIncident(ctx context.Context, placeID, kind, note string) (string, error)
	GetTotals(ctx context.Context) (*store.Totals, error)
}

// Catalog：地点目录搜索，由 places.Client 实现
type Catalog interface {
	Configured() bool
	Search(ctx context.Context, sp places.SearchParams) ([]places.Place, error)
}

// 文档注释：路由依赖集合
// 约束：Scorer 与 Reports 必填；Cache 可为 nil（禁用）；Events 为 nil 时使用 Noop；Catalog 为 nil 时搜索接口返回 503。
type Deps struct {
	Scorer  Scorer
	Reports Reports
	Catalog Catalog
	Cache   *scorecache.Cache
	Events  events.Publisher
}

type server struct {
	Deps
}

// 文档注释：构建路由
// 背景：apiBase 下挂载业务接口，/metrics 与 /healthz 一并注册，主入口只需包一层中间件。
// 约束：每条路由都带方法匹配，否则 mux 会把方法不符的 405 吞成 404。
func NewRouter(apiBase string, d Deps) *mux.Router {
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	s := &server{Deps: d}
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}).Methods(http.MethodGet)

	api := r.PathPrefix(apiBase).Subrouter()
	api.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	api.HandleFunc("/density", s.handleDensity).Methods(http.MethodGet)
	api.HandleFunc("/density/bulk", s.handleDensityBulk).Methods(http.MethodPost)
	api.HandleFunc("/report", s.handleReport).Methods(http.MethodPost)
	api.HandleFunc("/incident", s.handleIncident).Methods(http.MethodPost)
	api.HandleFunc("/places/search", s.handlePlacesSearch).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
