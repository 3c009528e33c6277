package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"density-api/internal/density"
	"density-api/internal/places"
)

// 文档注释：附近地点搜索 GET /places/search?ll=lat,lng&radius=&categories=
// 背景：代理外部地点目录，密钥不下发到前端；ll 缺失或非法返回 400，未配置 503，上游失败 502。
func (s *server) handlePlacesSearch(w http.ResponseWriter, r *http.Request) {
	if s.Catalog == nil || !s.Catalog.Configured() {
		writeError(w, http.StatusServiceUnavailable, "place catalog not configured")
		return
	}
	q := r.URL.Query()
	lat, lng, ok := parseLL(q.Get("ll"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing or invalid ll")
		return
	}
	radius := q.Get("radius")
	if radius != "" {
		if n, err := strconv.Atoi(radius); err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid radius")
			return
		}
	}
	categories := q.Get("categories")
	if categories == "" {
		categories = places.DefaultCategories
	}
	res, err := s.Catalog.Search(r.Context(), places.SearchParams{Lat: lat, Lng: lng, Radius: radius, Categories: categories})
	if err != nil {
		if errors.Is(err, places.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, "place catalog error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": res})
}

func parseLL(ll string) (float64, float64, bool) {
	parts := strings.Split(ll, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil || !density.ValidCoord(lat, lng) {
		return 0, 0, false
	}
	return lat, lng, true
}
