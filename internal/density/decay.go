package density

import (
	"math"
	"time"
)

// 文档注释：时间衰减系数
// 背景：从 age=0 的 1.0 线性衰减到 window 处的 floor，此后保持 floor；窗口内的上报不会完全失去影响，避免最后一条上报主导导致的抖动。
// 约束：负的 age（时钟偏差）按 0 处理；结果始终位于 [floor, 1]。
func DecayMultiplier(age, window time.Duration, floor float64) float64 {
	if age < 0 {
		age = 0
	}
	m := 1 - float64(age)/float64(window)
	return math.Min(1, math.Max(floor, m))
}

// 文档注释：衰减加权平均
// 背景：分子为 weight·multiplier，分母为 multiplier；无法识别的等级对两者都不贡献。
// 返回：ok=false 表示没有任何可识别的上报。
func DecayedAverage(reports []Report, now time.Time, p Params) (float64, bool) {
	var total, weightSum float64
	for _, r := range reports {
		lvl, ok := ParseLevel(r.Level)
		if !ok {
			continue
		}
		m := DecayMultiplier(now.Sub(r.CreatedAt), p.DecayWindow, p.DecayFloor)
		total += lvl.Weight() * m
		weightSum += m
	}
	if weightSum == 0 {
		return 0, false
	}
	return total / weightSum, true
}

// 文档注释：单点评分（纯函数）
// 背景：reports 为调用方已按回看窗口取回的该地点上报；空集合返回 unknown/0。
// 约束：样本数为原始条数；若全部标签无法识别，平均值按 0 处理并落入 low，与样本数一致反映"有上报但无有效等级"。
func ScoreReports(placeID string, reports []Report, now time.Time, p Params) Result {
	if len(reports) == 0 {
		return Result{PlaceID: placeID, Level: Unknown, Sample: 0}
	}
	avg, _ := DecayedAverage(reports, now, p)
	return Result{PlaceID: placeID, Level: p.Fine.Classify(avg), Sample: len(reports)}
}
