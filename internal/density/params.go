package density

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// 文档注释：评分引擎的全部可调参数
// 背景：窗口、半径、衰减与两套阶梯均可由环境变量覆盖，算法中不出现硬编码常量。
// 约束：StaleWindow 需不小于 RecentWindow；DecayFloor 位于 [0,1]。
type Params struct {
	// 单点评分的回看窗口
	LookbackWindow time.Duration
	// 批量评分"当前"信号窗口
	RecentWindow time.Duration
	// 批量评分陈旧覆盖窗口，仅用于区分"完全无数据"与"数据已过期"
	StaleWindow     time.Duration
	NeighborRadiusM float64
	DecayFloor      float64
	DecayWindow     time.Duration
	Fine            FineLadder
	Coarse          CoarseLadder
	MaxBulkPlaces   int
}

func DefaultParams() Params {
	return Params{
		LookbackWindow:  2 * time.Hour,
		RecentWindow:    30 * time.Minute,
		StaleWindow:     120 * time.Minute,
		NeighborRadiusM: 250,
		DecayFloor:      0.4,
		DecayWindow:     120 * time.Minute,
		Fine:            FineLadder{Critical: 3.5, High: 2.5, Med: 1.6},
		Coarse:          CoarseLadder{Cuts: [3]float64{1.5, 2.5, 3.5}},
		MaxBulkPlaces:   500,
	}
}

func (p Params) Validate() error {
	var errs []error
	if p.LookbackWindow <= 0 || p.RecentWindow <= 0 || p.StaleWindow <= 0 || p.DecayWindow <= 0 {
		errs = append(errs, errors.New("windows must be positive"))
	}
	if p.StaleWindow < p.RecentWindow {
		errs = append(errs, errors.New("stale window must not be shorter than recent window"))
	}
	if !(p.NeighborRadiusM >= 0) || math.IsInf(p.NeighborRadiusM, 0) {
		errs = append(errs, errors.New("neighbor radius must be a non-negative finite number"))
	}
	if !(p.DecayFloor >= 0 && p.DecayFloor <= 1) {
		errs = append(errs, errors.New("decay floor must be within [0,1]"))
	}
	if p.MaxBulkPlaces <= 0 {
		errs = append(errs, errors.New("max bulk places must be positive"))
	}
	if err := p.Fine.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := p.Coarse.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// 文档注释：从环境变量读取参数
// 背景：与服务其余配置一致通过环境变量注入；单项解析失败时忽略并保留默认值。
// 返回：整体校验失败时回退到默认参数并返回错误，由调用方记录日志。
func ParamsFromEnv() (Params, error) { return paramsFromLookup(os.Getenv) }

func paramsFromLookup(get func(string) string) (Params, error) {
	p := DefaultParams()
	minutes := func(env string, dst *time.Duration) {
		if s := get(env); s != "" {
			if f, e := strconv.ParseFloat(s, 64); e == nil && f > 0 {
				*dst = time.Duration(f * float64(time.Minute))
			}
		}
	}
	number := func(env string, dst *float64) {
		if s := get(env); s != "" {
			if f, e := strconv.ParseFloat(s, 64); e == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				*dst = f
			}
		}
	}
	minutes("DENSITY_LOOKBACK_MIN", &p.LookbackWindow)
	minutes("DENSITY_RECENT_MIN", &p.RecentWindow)
	minutes("DENSITY_STALE_MIN", &p.StaleWindow)
	minutes("DENSITY_DECAY_WINDOW_MIN", &p.DecayWindow)
	number("DENSITY_NEIGHBOR_M", &p.NeighborRadiusM)
	number("DENSITY_DECAY_FLOOR", &p.DecayFloor)
	if s := get("DENSITY_MAX_BULK"); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n > 0 {
			p.MaxBulkPlaces = n
		}
	}
	if vs, ok := floatList(get("DENSITY_FINE_LADDER"), 3); ok {
		p.Fine = FineLadder{Critical: vs[0], High: vs[1], Med: vs[2]}
	}
	if vs, ok := floatList(get("DENSITY_COARSE_CUTS"), 3); ok {
		p.Coarse = CoarseLadder{Cuts: [3]float64{vs[0], vs[1], vs[2]}}
	}
	if err := p.Validate(); err != nil {
		return DefaultParams(), fmt.Errorf("invalid density params: %w", err)
	}
	return p, nil
}

// floatList：解析逗号分隔的 n 个数值
func floatList(s string, n int) ([]float64, bool) {
	if s == "" {
		return nil, false
	}
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, false
	}
	out := make([]float64, 0, n)
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}
