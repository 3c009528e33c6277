// 包 geo：上报坐标的网格编码
package geo

// 文档注释：轻量 geohash 编码（base32）
// 背景：上报带坐标时写入网格单元列，便于按区域排查与离线统计；精度 7 约 150m，小于邻域半径。
// 约束：仅用于索引与统计，不参与评分；非法坐标返回空串。
const (
	base32        = "0123456789bcdefghjkmnpqrstuvwxyz"
	CellPrecision = 7
)

func Encode(lat, lng float64, precision int) string {
	if precision <= 0 || lat < -90 || lat > 90 || lng < -180 || lng > 180 || lat != lat || lng != lng {
		return ""
	}
	latLo, latHi := -90.0, 90.0
	lngLo, lngHi := -180.0, 180.0
	out := make([]byte, 0, precision)
	bit, ch := 0, 0
	even := true
	for len(out) < precision {
		if even {
			mid := (lngLo + lngHi) / 2
			if lng >= mid {
				ch |= 16 >> bit
				lngLo = mid
			} else {
				lngHi = mid
			}
		} else {
			mid := (latLo + latHi) / 2
			if lat >= mid {
				ch |= 16 >> bit
				latLo = mid
			} else {
				latHi = mid
			}
		}
		even = !even
		if bit < 4 {
			bit++
		} else {
			out = append(out, base32[ch])
			bit, ch = 0, 0
		}
	}
	return string(out)
}

// Cell：按默认精度编码；任一坐标缺失时返回空串
func Cell(lat, lng *float64) string {
	if lat == nil || lng == nil {
		return ""
	}
	return Encode(*lat, *lng, CellPrecision)
}
