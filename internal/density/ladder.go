package density

import (
	"errors"
	"math"
)

// 文档注释：细粒度阈值阶梯（单点时间衰减评分使用）
// 背景：阈值不对称，偏向 med/low，稀疏数据时避免过度告警。
// 约束：Critical > High > Med；avg 命中第一个不小于的阈值即返回。
type FineLadder struct {
	Critical float64
	High     float64
	Med      float64
}

func (f FineLadder) Classify(avg float64) Level {
	switch {
	case avg >= f.Critical:
		return Critical
	case avg >= f.High:
		return High
	case avg >= f.Med:
		return Med
	}
	return Low
}

func (f FineLadder) Validate() error {
	if !(f.Critical > f.High && f.High > f.Med) {
		return errors.New("fine ladder thresholds must be strictly descending critical > high > med")
	}
	return nil
}

// 文档注释：粗粒度阶梯（批量邻域平滑使用）
// 背景：等价于 round(avg) 并截断到 [1,4]；Cuts 为 low|med、med|high、high|critical 三个分界，
// 默认 1.5/2.5/3.5 即四舍五入（.5 向上）。
type CoarseLadder struct {
	Cuts [3]float64
}

func (c CoarseLadder) Classify(avg float64) Level {
	lvl := Low
	for i, cut := range c.Cuts {
		if avg >= cut {
			lvl = Level(i + 2)
		}
	}
	return lvl
}

func (c CoarseLadder) Validate() error {
	for i, cut := range c.Cuts {
		if math.IsNaN(cut) || math.IsInf(cut, 0) {
			return errors.New("coarse ladder cut must be finite")
		}
		if i > 0 && cut <= c.Cuts[i-1] {
			return errors.New("coarse ladder cuts must be strictly ascending")
		}
	}
	return nil
}
