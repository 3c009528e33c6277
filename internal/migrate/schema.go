package migrate

import (
	"database/sql"

	"density-api/internal/logger"
)

// 背景：首次运行自动创建上报与事件表及索引，保障写入与按地点/时间的范围查询
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建引擎所需的最小结构
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reports (
            id UUID PRIMARY KEY,
            place_id TEXT NOT NULL,
            density TEXT NOT NULL,
            lat DOUBLE PRECISION,
            lng DOUBLE PRECISION,
            cell TEXT,
            source TEXT NOT NULL DEFAULT 'user',
            user_hash TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_reports_place_created ON reports(place_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_cell ON reports(cell) WHERE cell IS NOT NULL`,
		`CREATE TABLE IF NOT EXISTS incidents (
            id UUID PRIMARY KEY,
            place_id TEXT NOT NULL,
            type TEXT NOT NULL,
            note TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_incidents_place_created ON incidents(place_id, created_at DESC)`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
