package storage_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradebias/internal/adapters/storage"
	"github.com/alejandrodnm/tradebias/internal/domain"
)

func makeReport(id, source string, at time.Time, consistency float64) domain.Report {
	return domain.Report{
		ID:          id,
		GeneratedAt: at,
		Source:      source,
		Summary:     domain.Summary{Trades: 3, RowsRead: 3},
		BiasTypeRatios: &domain.BiasRatios{
			Overtrader: 70, CalmTrader: 30,
		},
		Behavioral: domain.Behavioral{
			LossAversion:   domain.LossAversion{DispositionRatio: 0.5},
			RevengeTrading: domain.RevengeTrading{MartingaleStats: map[int]float64{0: 100}, TiltIndicatorPct: 50},
		},
		PortfolioMetrics: domain.PortfolioScores{ConsistencyScore: consistency, RiskReactivityScore: 50},
	}
}

func TestSQLiteStorage_SaveAndGetReport(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:", 0)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	r := makeReport("r-1", "ledger.csv", time.Now().UTC().Truncate(time.Second), 80)
	require.NoError(t, db.SaveReport(ctx, r))

	got, err := db.GetReport(ctx, "r-1")
	require.NoError(t, err)

	want, _ := json.Marshal(r)
	have, _ := json.Marshal(got)
	assert.JSONEq(t, string(want), string(have))
}

func TestSQLiteStorage_GetReport_NotFound(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:", 0)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.GetReport(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrReportNotFound)
}

func TestSQLiteStorage_AssignsID(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:", 0)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SaveReport(ctx, makeReport("", "x.csv", time.Now().UTC(), 10)))

	history, err := db.GetHistory(ctx, "x.csv", time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Len(t, history[0].ID, 36)
}

func TestSQLiteStorage_GetHistory(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:", 0)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SaveReport(ctx, makeReport("a-old", "a.csv", now.Add(-2*time.Hour), 10)))
	require.NoError(t, db.SaveReport(ctx, makeReport("a-new", "a.csv", now.Add(-time.Hour), 20)))
	require.NoError(t, db.SaveReport(ctx, makeReport("b-1", "b.csv", now.Add(-90*time.Minute), 30)))

	from, to := now.Add(-3*time.Hour), now

	onlyA, err := db.GetHistory(ctx, "a.csv", from, to)
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	assert.Equal(t, "a-new", onlyA[0].ID, "más reciente primero")
	assert.Equal(t, "a-old", onlyA[1].ID)

	all, err := db.GetHistory(ctx, "", from, to)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b-1", all[1].ID)

	none, err := db.GetHistory(ctx, "", now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStorage_SkipsUnchangedReport(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:", 0)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, db.SaveReport(ctx, makeReport("1", "a.csv", now.Add(-2*time.Minute), 10)))
	// Mismas métricas, otro ID y otra fecha → no se escribe
	require.NoError(t, db.SaveReport(ctx, makeReport("2", "a.csv", now.Add(-time.Minute), 10)))
	// Métricas distintas → se escribe
	require.NoError(t, db.SaveReport(ctx, makeReport("3", "a.csv", now, 11)))

	history, err := db.GetHistory(ctx, "a.csv", now.Add(-time.Hour), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "3", history[0].ID)
	assert.Equal(t, "1", history[1].ID)
}

func TestSQLiteStorage_ReopenPrunesAndWarmsCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	ctx := context.Background()
	now := time.Now().UTC()

	db, err := storage.NewSQLiteStorage(path, 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, db.SaveReport(ctx, makeReport("old", "old.csv", now.Add(-48*time.Hour), 10)))
	require.NoError(t, db.SaveReport(ctx, makeReport("keep", "a.csv", now.Add(-time.Hour), 10)))
	require.NoError(t, db.Close())

	db, err = storage.NewSQLiteStorage(path, 24*time.Hour)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.GetReport(ctx, "old")
	assert.ErrorIs(t, err, storage.ErrReportNotFound)

	// La cache precargada reconoce el último reporte de a.csv
	require.NoError(t, db.SaveReport(ctx, makeReport("dup", "a.csv", now, 10)))
	_, err = db.GetReport(ctx, "dup")
	assert.ErrorIs(t, err, storage.ErrReportNotFound)
}
