package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"density-api/internal/density"
	"density-api/internal/geo"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return AttachDB(db), mock
}

func TestReportsSinceQueryContract(t *testing.T) {
	s, mock := newMockStore(t)
	cutoff := time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC)
	newer := cutoff.Add(90 * time.Minute)
	older := cutoff.Add(30 * time.Minute)
	ids := []string{"p1", "p2"}

	mock.ExpectQuery(regexp.QuoteMeta(
		`WHERE place_id = ANY($1) AND created_at > $2
		 ORDER BY created_at DESC, id`)).
		WithArgs(pq.Array(ids), cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"place_id", "density", "created_at", "lat", "lng"}).
			AddRow("p1", "high", newer, 40.1, -73.9).
			AddRow("p2", "low", older, nil, nil))

	rows, err := s.ReportsSince(context.Background(), ids, cutoff)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "p1", rows[0].PlaceID)
	assert.Equal(t, "high", rows[0].Level)
	assert.True(t, rows[0].CreatedAt.Equal(newer))
	require.NotNil(t, rows[0].Lat)
	require.NotNil(t, rows[0].Lng)
	assert.Equal(t, 40.1, *rows[0].Lat)
	assert.Equal(t, -73.9, *rows[0].Lng)

	// 最新优先的顺序原样保留，多数投票并列依赖它
	assert.Equal(t, density.Report{PlaceID: "p2", Level: "low", CreatedAt: older}, rows[1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportsSinceWrapsQueryError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM reports").WillReturnError(boom)

	_, err := s.ReportsSince(context.Background(), []string{"p1"}, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReportWritesCell(t *testing.T) {
	s, mock := newMockStore(t)
	lat, lng := 57.64911, 10.40744
	created := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO reports(id, place_id, density, lat, lng, cell, source, user_hash)`)).
		WithArgs(sqlmock.AnyArg(), "p1", "critical", lat, lng, geo.Encode(lat, lng, geo.CellPrecision), "user", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	id, at, err := s.InsertReport(context.Background(), NewReport{PlaceID: " p1 ", Level: density.Critical, Lat: &lat, Lng: &lng})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.True(t, at.Equal(created))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReportInvalidSkipsDatabase(t *testing.T) {
	s, mock := newMockStore(t)
	_, _, err := s.InsertReport(context.Background(), NewReport{PlaceID: "p1"})
	assert.ErrorIs(t, err, ErrInvalidReport)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneBefore(t *testing.T) {
	s, mock := newMockStore(t)
	cutoff := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM reports WHERE created_at < $1`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.PruneBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTotals(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM reports").
		WillReturnRows(sqlmock.NewRows([]string{"total", "today"}).AddRow(int64(12), int64(5)))

	tt, err := s.GetTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Totals{Total: 12, Today: 5}, tt)
	require.NoError(t, mock.ExpectationsWereMet())
}
