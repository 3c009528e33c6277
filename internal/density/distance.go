package density

import "math"

// EarthRadiusM：球面近似的地球半径（米）
const EarthRadiusM = 6371000.0

// 文档注释：球面距离（Haversine），输入十进制度，返回米
// 背景：仅用作邻域平滑半径判定，不追求大地测量精度。
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	s1 := math.Sin(dLat / 2)
	s2 := math.Sin(dLng / 2)
	a := s1*s1 + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*s2*s2
	return 2 * EarthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
