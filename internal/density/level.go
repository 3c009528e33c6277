// 包 density：人流密度评分引擎，把带时间戳的分级上报聚合为每个地点的当前密度标签
package density

import (
	"fmt"
	"strings"
)

// 文档注释：密度等级（有序枚举）
// 背景：既作为分类输出，也作为平均计算时的数值分；low=1 … critical=4。
// 约束：Unknown 仅用于单点评分"无数据"的输出，不参与任何平均。
type Level int

const (
	Unknown Level = iota
	Low
	Med
	High
	Critical
)

var levelNames = [...]string{"unknown", "low", "med", "high", "critical"}

func (l Level) String() string {
	if l < Unknown || l > Critical {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// Valid：是否为可参与评分的四个等级之一
func (l Level) Valid() bool { return l >= Low && l <= Critical }

// Weight：等级对应的数值分；Unknown 与越界值为 0（不贡献分子与分母）
func (l Level) Weight() float64 {
	if !l.Valid() {
		return 0
	}
	return float64(l)
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(strings.ToLower(string(b)))
	if s == "unknown" {
		*l = Unknown
		return nil
	}
	v, ok := ParseLevel(s)
	if !ok {
		return fmt.Errorf("invalid density level %q", string(b))
	}
	*l = v
	return nil
}

// 文档注释：解析存储或请求中的等级文本
// 背景：历史数据中存在 "medium" 写法，与 "med" 视为同一等级；大小写与首尾空白不敏感。
// 返回：无法映射时返回 (Unknown, false)，调用方据此把该条上报排除在加权之外。
func ParseLevel(s string) (Level, bool) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "low":
		return Low, true
	case "med", "medium":
		return Med, true
	case "high":
		return High, true
	case "critical":
		return Critical, true
	}
	return Unknown, false
}

// LevelFromWeight：整数分回到等级，仅 1..4 有效
func LevelFromWeight(w int) (Level, bool) {
	l := Level(w)
	if !l.Valid() {
		return Unknown, false
	}
	return l, true
}
