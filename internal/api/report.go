package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"density-api/internal/density"
	"density-api/internal/events"
	"density-api/internal/logger"
	"density-api/internal/metrics"
	"density-api/internal/store"
)

type reportRequest struct {
	PlaceID  string   `json:"place_id"`
	FsqID    string   `json:"fsq_id"`
	Density  string   `json:"density"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Source   string   `json:"source"`
	UserHash string   `json:"user_hash"`
}

func (r reportRequest) placeID() string {
	if id := strings.TrimSpace(r.PlaceID); id != "" {
		return id
	}
	return strings.TrimSpace(r.FsqID)
}

// 文档注释：提交上报 POST /report
// 背景：写入为强一致要求，入库失败返回 500；成功后失效该地点的评分缓存并发布事件（发布失败只记录日志）。
func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req reportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request")
		return
	}
	id := req.placeID()
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing place_id")
		return
	}
	lvl, ok := density.ParseLevel(req.Density)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid density")
		return
	}
	nr := store.NewReport{PlaceID: id, Level: lvl, Lat: req.Lat, Lng: req.Lng, Source: req.Source, UserHash: req.UserHash}
	rid, createdAt, err := s.Reports.InsertReport(ctx, nr)
	if err != nil {
		if errors.Is(err, store.ErrInvalidReport) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.L().Error("report_insert_error", "place_id", id, "err", err)
		metrics.StoreErrorsTotal.WithLabelValues("insert").Inc()
		writeError(w, http.StatusInternalServerError, "DB insert failed")
		return
	}
	metrics.ReportsTotal.WithLabelValues(lvl.String()).Inc()
	s.Cache.Invalidate(ctx, id)
	ev := events.ReportEvent{ID: rid, PlaceID: id, Level: lvl.String(), Lat: req.Lat, Lng: req.Lng, Source: req.Source, CreatedAt: createdAt}
	if err := s.Events.PublishReport(ctx, ev); err != nil {
		logger.L().Error("report_event_error", "id", rid, "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": rid})
}

type incidentRequest struct {
	PlaceID string `json:"place_id"`
	FsqID   string `json:"fsq_id"`
	Type    string `json:"type"`
	Note    string `json:"note"`
}

// 文档注释：提交现场事件 POST /incident
// 约束：place_id 与 type 必填；事件不参与评分。
func (s *server) handleIncident(w http.ResponseWriter, r *http.Request) {
	var req incidentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false})
		return
	}
	id := strings.TrimSpace(req.PlaceID)
	if id == "" {
		id = strings.TrimSpace(req.FsqID)
	}
	if id == "" || strings.TrimSpace(req.Type) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false})
		return
	}
	iid, err := s.Reports.InsertIncident(r.Context(), id, req.Type, req.Note)
	if err != nil {
		logger.L().Error("incident_insert_error", "place_id", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": iid})
}

// 文档注释：上报统计 GET /stats
func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	t, err := s.Reports.GetTotals(r.Context())
	if err != nil {
		logger.L().Error("stats_error", "err", err)
		t = &store.Totals{}
	}
	writeJSON(w, http.StatusOK, t)
}
