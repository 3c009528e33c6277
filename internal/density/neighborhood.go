package density

// 文档注释：多数等级（出现次数最多的等级）
// 背景：并列时取最先出现的等级，而不是更严重的等级；顺序即 reports 的传入顺序（存储按 created_at 倒序返回，即最新优先）。
// 约束：无法识别的标签不参与投票；没有任何可识别标签时返回 (Unknown, false)。
func MajorityLevel(reports []Report) (Level, bool) {
	counts := make(map[Level]int, 4)
	var order []Level
	for _, r := range reports {
		lvl, ok := ParseLevel(r.Level)
		if !ok {
			continue
		}
		if counts[lvl] == 0 {
			order = append(order, lvl)
		}
		counts[lvl]++
	}
	best, bestCount := Unknown, 0
	for _, lvl := range order {
		if counts[lvl] > bestCount {
			best, bestCount = lvl, counts[lvl]
		}
	}
	return best, bestCount > 0
}

// 文档注释：邻域平滑批量评分（纯函数）
// 背景：
//  1. recent 按地点分组，取自身多数等级作为"当前分"；
//  2. 对每个地点扫描同批次内所有有当前分的地点，距离 ≤ 半径者计入邻居集合（自身距离为 0，有分时自然包含）；
//  3. 邻居集合非空则取平均并按粗阶梯分类，否则归为 low（默认平静，不在无证据时告警）。
//
// 约束：stale 只用于标记 Result.Stale（2 小时内有上报但 30 分钟内没有），不改变标签；输出从不为 unknown。
func ScoreNeighborhood(places []Place, recent, stale []Report, p Params) map[string]Result {
	byPlace := make(map[string][]Report, len(places))
	for _, r := range recent {
		byPlace[r.PlaceID] = append(byPlace[r.PlaceID], r)
	}
	seenStale := make(map[string]bool)
	for _, r := range stale {
		seenStale[r.PlaceID] = true
	}

	type scored struct {
		lat, lng float64
		score    float64
	}
	current := make([]scored, 0, len(places))
	for _, q := range places {
		if lvl, ok := MajorityLevel(byPlace[q.ID]); ok {
			current = append(current, scored{lat: q.Lat, lng: q.Lng, score: lvl.Weight()})
		}
	}

	out := make(map[string]Result, len(places))
	for _, pl := range places {
		var sum float64
		n := 0
		for _, q := range current {
			if Haversine(pl.Lat, pl.Lng, q.lat, q.lng) <= p.NeighborRadiusM {
				sum += q.score
				n++
			}
		}
		lvl := Low
		if n > 0 {
			lvl = p.Coarse.Classify(sum / float64(n))
		}
		sample := len(byPlace[pl.ID])
		out[pl.ID] = Result{
			PlaceID: pl.ID,
			Level:   lvl,
			Sample:  sample,
			Stale:   sample == 0 && seenStale[pl.ID],
		}
	}
	return out
}
