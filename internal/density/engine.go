package density

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"density-api/internal/logger"
	"density-api/internal/metrics"

	"golang.org/x/sync/errgroup"
)

// 文档注释：评分引擎
// 背景：两个评分入口都是 (当前时间, 上报集合, 地点集合, 参数) 的纯函数外加一次或两次存储读取；不持有跨调用的可变状态，可被并发调用。
// 约束：存储失败一律记录日志并按"无数据"处理，不向调用方传播；仅输入非法时返回错误。不做重试，以限制面向地图界面的延迟。
type Engine struct {
	src    ReportSource
	params Params
	log    *slog.Logger
	now    func() time.Time
}

type Option func(*Engine)

// WithClock：注入时钟，测试与离线重放使用
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

func NewEngine(src ReportSource, p Params, opts ...Option) *Engine {
	e := &Engine{src: src, params: p, log: logger.L(), now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Params() Params { return e.params }

// 文档注释：单地点时间衰减评分
// 背景：读取回看窗口（默认 2 小时）内该地点的全部上报，衰减加权平均后按细阶梯分类。
// 返回：无上报或存储错误时为 {unknown, 0}；仅 placeID 为空时返回 ErrMissingPlaceID。
func (e *Engine) ScorePlace(ctx context.Context, placeID string) (Result, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return Result{Level: Unknown}, ErrMissingPlaceID
	}
	t0 := time.Now()
	metrics.ScoreRequestsTotal.WithLabelValues("single").Inc()
	now := e.now()
	rows, err := e.src.ReportsSince(ctx, []string{placeID}, now.Add(-e.params.LookbackWindow))
	if err != nil {
		e.log.Error("density_single_query_error", "place_id", placeID, "err", err)
		metrics.StoreErrorsTotal.WithLabelValues("single").Inc()
		rows = nil
	}
	res := ScoreReports(placeID, rows, now, e.params)
	metrics.ScoreLevelTotal.WithLabelValues("single", res.Level.String()).Inc()
	metrics.ScoreDurationMs.WithLabelValues("single").Observe(float64(time.Since(t0).Milliseconds()))
	e.log.Debug("density_single_done", "place_id", placeID, "level", res.Level.String(), "sample", res.Sample)
	return res, nil
}

// 文档注释：批量邻域评分
// 背景：近期窗口（30 分钟）与陈旧窗口（120 分钟）两次读取相互独立，并发发起，两者都返回后再合并。
// 约束：任一读取失败只记录日志并视为空集；调用方取消时放弃在途读取，结果按空集降级到 low。
func (e *Engine) ScoreBulk(ctx context.Context, places []Place) (map[string]Result, error) {
	if err := ValidatePlaces(places, e.params.MaxBulkPlaces); err != nil {
		return nil, err
	}
	t0 := time.Now()
	metrics.ScoreRequestsTotal.WithLabelValues("bulk").Inc()
	metrics.BulkPlaces.Observe(float64(len(places)))
	now := e.now()
	ids := uniqueIDs(places)

	var recent, stale []Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := e.src.ReportsSince(gctx, ids, now.Add(-e.params.RecentWindow))
		if err != nil {
			e.log.Error("density_bulk_recent_error", "places", len(ids), "err", err)
			metrics.StoreErrorsTotal.WithLabelValues("bulk_recent").Inc()
			return nil
		}
		recent = rows
		return nil
	})
	g.Go(func() error {
		rows, err := e.src.ReportsSince(gctx, ids, now.Add(-e.params.StaleWindow))
		if err != nil {
			e.log.Error("density_bulk_stale_error", "places", len(ids), "err", err)
			metrics.StoreErrorsTotal.WithLabelValues("bulk_stale").Inc()
			return nil
		}
		stale = rows
		return nil
	})
	_ = g.Wait()

	out := ScoreNeighborhood(places, recent, stale, e.params)
	staleCount := 0
	for _, r := range out {
		metrics.ScoreLevelTotal.WithLabelValues("bulk", r.Level.String()).Inc()
		if r.Stale {
			staleCount++
		}
	}
	metrics.StalePlacesTotal.Add(float64(staleCount))
	metrics.ScoreDurationMs.WithLabelValues("bulk").Observe(float64(time.Since(t0).Milliseconds()))
	e.log.Debug("density_bulk_done", "places", len(places), "recent_rows", len(recent), "stale_rows", len(stale), "stale_places", staleCount)
	return out, nil
}

// 文档注释：批量输入校验
// 背景：非法输入在访问存储之前拒绝；坐标需为有限值且在经纬度合法范围内。
func ValidatePlaces(places []Place, max int) error {
	if len(places) == 0 {
		return ErrNoPlaces
	}
	if max > 0 && len(places) > max {
		return fmt.Errorf("%w: %d > %d", ErrTooManyPlaces, len(places), max)
	}
	for i, p := range places {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("place %d: %w", i, ErrMissingPlaceID)
		}
		if !ValidCoord(p.Lat, p.Lng) {
			return fmt.Errorf("place %q: %w", p.ID, ErrInvalidLocation)
		}
	}
	return nil
}

// ValidCoord：经纬度为有限值且在 [-90,90]/[-180,180] 内
func ValidCoord(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func uniqueIDs(places []Place) []string {
	seen := make(map[string]struct{}, len(places))
	ids := make([]string, 0, len(places))
	for _, p := range places {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}
	return ids
}
