package density

import (
	"context"
	"errors"
	"time"
)

var (
	ErrMissingPlaceID  = errors.New("missing place id")
	ErrNoPlaces        = errors.New("no places")
	ErrTooManyPlaces   = errors.New("too many places")
	ErrInvalidLocation = errors.New("invalid coordinates")
)

// 文档注释：一次密度上报（不可变事实）
// 背景：Level 保留存储中的原始文本，评分时再解析；无法解析的标签不参与加权但计入样本数。
type Report struct {
	PlaceID   string    `db:"place_id"`
	Level     string    `db:"density"`
	CreatedAt time.Time `db:"created_at"`
	Lat       *float64  `db:"lat"`
	Lng       *float64  `db:"lng"`
}

// Place：调用方按请求提供的地点，引擎不持有
type Place struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// 文档注释：评分输出单元
// 约束：Sample 为该地点自身窗口内的原始上报条数（不含邻居、不做衰减）；Stale 仅供日志与指标，不对外序列化。
type Result struct {
	PlaceID string `json:"-"`
	Level   Level  `json:"level"`
	Sample  int    `json:"sample"`
	Stale   bool   `json:"-"`
}

// 文档注释：上报存储的读取能力
// 背景：引擎只依赖按地点集合与时间下界的范围查询，任何满足该契约的持久化后端均可注入。
type ReportSource interface {
	ReportsSince(ctx context.Context, ids []string, cutoff time.Time) ([]Report, error)
}
