// 包 store: 提供与 PostgreSQL 的数据访问层，包含密度上报的写入、按地点集合与时间的范围查询以及统计
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"density-api/internal/density"
	"density-api/internal/geo"
	"density-api/internal/logger"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrInvalidReport = errors.New("invalid report")

// Store: 数据库访问入口，持有连接池并实现评分引擎所需的 ReportSource
type Store struct {
	db *sqlx.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: sqlx.NewDb(db, "postgres")} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db.DB }

// 文档注释：一条待写入的上报
// 约束：Source 截断到 32 字符并默认 "user"；UserHash 截断到 128 字符，空串写入 NULL。
type NewReport struct {
	PlaceID  string
	Level    density.Level
	Lat      *float64
	Lng      *float64
	Source   string
	UserHash string
}

func (n *NewReport) normalize() error {
	n.PlaceID = strings.TrimSpace(n.PlaceID)
	if n.PlaceID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidReport, density.ErrMissingPlaceID)
	}
	if !n.Level.Valid() {
		return fmt.Errorf("%w: level %s", ErrInvalidReport, n.Level)
	}
	if (n.Lat == nil) != (n.Lng == nil) {
		n.Lat, n.Lng = nil, nil
	}
	if n.Lat != nil && !density.ValidCoord(*n.Lat, *n.Lng) {
		return fmt.Errorf("%w: %w", ErrInvalidReport, density.ErrInvalidLocation)
	}
	n.Source = truncate(strings.TrimSpace(n.Source), 32)
	if n.Source == "" {
		n.Source = "user"
	}
	n.UserHash = truncate(n.UserHash, 128)
	return nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) > max {
		return string(r[:max])
	}
	return s
}

// 文档注释：写入一条上报
// 背景：上报为不可变事实，只插入不更新；带坐标时同时写入 geohash 网格单元。
// 返回：新记录 ID 与写入时间；校验失败返回 ErrInvalidReport，数据库错误原样包装返回。
func (s *Store) InsertReport(ctx context.Context, r NewReport) (string, time.Time, error) {
	if err := r.normalize(); err != nil {
		return "", time.Time{}, err
	}
	id := uuid.NewString()
	var userHash sql.NullString
	if r.UserHash != "" {
		userHash = sql.NullString{String: r.UserHash, Valid: true}
	}
	var cell sql.NullString
	if c := geo.Cell(r.Lat, r.Lng); c != "" {
		cell = sql.NullString{String: c, Valid: true}
	}
	var createdAt time.Time
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO reports(id, place_id, density, lat, lng, cell, source, user_hash)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`,
		id, r.PlaceID, r.Level.String(), r.Lat, r.Lng, cell, r.Source, userHash,
	).Scan(&createdAt)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("insert report: %w", err)
	}
	logger.L().Debug("db_report_insert", "id", id, "place_id", r.PlaceID, "level", r.Level.String(), "cell", cell.String)
	return id, createdAt, nil
}

// 文档注释：按地点集合与时间下界查询上报
// 背景：评分引擎唯一的读取契约；created_at 严格大于 cutoff，按时间倒序返回（最新优先），多数投票的并列按此顺序决出。
// 约束：空集合直接返回，不访问数据库。
func (s *Store) ReportsSince(ctx context.Context, ids []string, cutoff time.Time) ([]density.Report, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []density.Report
	err := s.db.SelectContext(ctx, &rows,
		`SELECT place_id, density, created_at, lat, lng
		 FROM reports
		 WHERE place_id = ANY($1) AND created_at > $2
		 ORDER BY created_at DESC, id`,
		pq.Array(ids), cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	logger.L().Debug("db_reports_since", "ids", len(ids), "cutoff", cutoff, "rows", len(rows))
	return rows, nil
}

// 文档注释：写入一条现场事件（排队、封闭等文字说明）
// 约束：类型必填；备注可空。事件不参与评分。
func (s *Store) InsertIncident(ctx context.Context, placeID, kind, note string) (string, error) {
	placeID = strings.TrimSpace(placeID)
	kind = strings.TrimSpace(kind)
	if placeID == "" || kind == "" {
		return "", fmt.Errorf("%w: place id and type are required", ErrInvalidReport)
	}
	id := uuid.NewString()
	var n sql.NullString
	if note != "" {
		n = sql.NullString{String: truncate(note, 1000), Valid: true}
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO incidents(id, place_id, type, note) VALUES($1, $2, $3, $4)`,
		id, placeID, truncate(kind, 64), n,
	); err != nil {
		return "", fmt.Errorf("insert incident: %w", err)
	}
	return id, nil
}

// 文档注释：删除早于 cutoff 的上报
// 背景：引擎只读取最近窗口，长期保留由运维按需清理；返回删除行数。
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune reports: %w", err)
	}
	n, _ := res.RowsAffected()
	logger.L().Info("db_reports_pruned", "cutoff", cutoff, "rows", n)
	return n, nil
}

// Totals: 上报统计，包含累计与当日条数
type Totals struct {
	Total int64 `db:"total" json:"total"`
	Today int64 `db:"today" json:"today"`
}

func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	err := s.db.GetContext(ctx, &t,
		`SELECT COUNT(1) AS total,
		        COUNT(1) FILTER (WHERE created_at >= date_trunc('day', now())) AS today
		 FROM reports`)
	if err != nil {
		return nil, fmt.Errorf("report totals: %w", err)
	}
	logger.L().Debug("stats_totals", "total", t.Total, "today", t.Today)
	return &t, nil
}
