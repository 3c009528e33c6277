package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"density-api/internal/density"
	"density-api/internal/logger"
)

const maxBodyBytes = 1 << 20

// 文档注释：单地点评分 GET /density?place_id=
// 背景：兼容旧参数名 fsq_id；命中缓存直接返回。后端故障不视为错误，始终返回结构合法的 {level, sample}。
func (s *server) handleDensity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := placeIDParam(r)
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing place_id")
		return
	}
	if res, ok := s.Cache.Get(ctx, id); ok {
		writeJSON(w, http.StatusOK, res)
		return
	}
	res, err := s.Scorer.ScorePlace(ctx, id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if res.Sample > 0 {
		s.Cache.Set(ctx, res)
	}
	writeJSON(w, http.StatusOK, res)
}

func placeIDParam(r *http.Request) string {
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("place_id")); v != "" {
		return v
	}
	return strings.TrimSpace(q.Get("fsq_id"))
}

type bulkPlace struct {
	ID  string   `json:"id"`
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type bulkRequest struct {
	Places []bulkPlace `json:"places"`
}

// 文档注释：批量评分 POST /density/bulk
// 背景：请求体 {places:[{id,lat,lng}]}；空列表返回 {}。输入非法返回 400 且不访问存储；输出从不包含 unknown。
func (s *server) handleDensityBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Places) == 0 {
		writeJSON(w, http.StatusOK, map[string]density.Result{})
		return
	}
	ps := make([]density.Place, 0, len(req.Places))
	for _, p := range req.Places {
		if p.Lat == nil || p.Lng == nil {
			writeError(w, http.StatusBadRequest, "place "+p.ID+": missing coordinates")
			return
		}
		ps = append(ps, density.Place{ID: strings.TrimSpace(p.ID), Lat: *p.Lat, Lng: *p.Lng})
	}
	out, err := s.Scorer.ScoreBulk(r.Context(), ps)
	if err != nil {
		if isInputError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.L().Error("density_bulk_error", "err", err)
		out = map[string]density.Result{}
	}
	writeJSON(w, http.StatusOK, out)
}

func isInputError(err error) bool {
	return errors.Is(err, density.ErrMissingPlaceID) ||
		errors.Is(err, density.ErrNoPlaces) ||
		errors.Is(err, density.ErrTooManyPlaces) ||
		errors.Is(err, density.ErrInvalidLocation)
}
