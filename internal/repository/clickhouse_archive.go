package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"WxEdge/internal/domain/models"
	domrepo "WxEdge/internal/domain/repository"
	pkgch "WxEdge/pkg/clickhouse"
	applogger "WxEdge/pkg/logger"
)

// CHArchive implements ArchiveStore backed by ClickHouse. Snapshots are
// append-only; settlements use ReplacingMergeTree so corrections supersede
// preliminary reports at merge time.
type CHArchive struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHArchive(ch *pkgch.Client, l *applogger.Logger) *CHArchive {
	return &CHArchive{ch: ch, db: ch.DB(), l: l}
}

var archiveSchema = []string{
	`CREATE TABLE IF NOT EXISTS wxedge.forecast_snapshots (
        snapshot_id   UUID,
        city          LowCardinality(String),
        target_date   Date,
        as_of_hour    Float64,
        mean_f        Float64,
        std_dev_f     Float64,
        observed_f    Nullable(Float64),
        sources       Array(String),
        signal_count  UInt16,
        analyzed_at   DateTime64(3, 'UTC')
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(target_date)
    ORDER BY (city, target_date, analyzed_at)`,

	`CREATE TABLE IF NOT EXISTS wxedge.settlements (
        city        LowCardinality(String),
        date        Date,
        high_f      Float64,
        low_f       Float64,
        source      LowCardinality(String),
        final       UInt8,
        recorded_at DateTime64(3, 'UTC')
    ) ENGINE = ReplacingMergeTree(recorded_at)
    ORDER BY (city, date)`,
}

// Init creates the archive tables if they do not exist.
func (s *CHArchive) Init(ctx context.Context) error {
	if err := s.ch.InitSchema(ctx, archiveSchema); err != nil {
		return fmt.Errorf("init archive schema: %w", err)
	}
	return nil
}

// StoreSnapshot records the forecast state of one tick. Only the refined
// forecast is archived; signals are recomputed on demand and never stored.
func (s *CHArchive) StoreSnapshot(ctx context.Context, a *models.Analysis) error {
	start := time.Now()

	var observed *float64
	var asOf float64
	if a.Observation != nil {
		v := a.Observation.ObservedHighF
		observed = &v
		asOf = a.Observation.AsOfHour
	}

	const q = `
        INSERT INTO wxedge.forecast_snapshots
            (snapshot_id, city, target_date, as_of_hour, mean_f, std_dev_f,
             observed_f, sources, signal_count, analyzed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		a.ID.String(), a.City, a.TargetDate, asOf,
		a.Refined.MeanF, a.Refined.StdDevF,
		observed, a.Refined.Sources, uint16(len(a.Signals)), a.AnalyzedAt.UTC(),
	)
	if err != nil {
		s.l.Error("clickhouse snapshot insert error",
			applogger.String("city", a.City),
			applogger.String("date", a.TargetDate),
			applogger.Error(err),
		)
		return fmt.Errorf("store snapshot: %w", err)
	}
	s.l.Debug("clickhouse snapshot ok",
		applogger.String("city", a.City),
		applogger.String("date", a.TargetDate),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// StoreSettlement records one official daily summary.
func (s *CHArchive) StoreSettlement(ctx context.Context, rec models.SettlementRecord) error {
	const q = `
        INSERT INTO wxedge.settlements
            (city, date, high_f, low_f, source, final, recorded_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	final := uint8(0)
	if rec.Final {
		final = 1
	}
	_, err := s.db.ExecContext(ctx, q,
		rec.City, rec.Date, rec.HighF, rec.LowF, rec.Source, final, rec.RecordedAt.UTC(),
	)
	if err != nil {
		s.l.Error("clickhouse settlement insert error",
			applogger.String("city", rec.City),
			applogger.String("date", rec.Date),
			applogger.Error(err),
		)
		return fmt.Errorf("store settlement: %w", err)
	}
	return nil
}

// ForecastErrors joins each day's final pre-settlement snapshot against the
// settled high. One row per settled day in the window. Settlements are
// deduplicated by newest recorded_at so corrections win regardless of
// merge state.
func (s *CHArchive) ForecastErrors(ctx context.Context, city string, from, to time.Time) ([]domrepo.ForecastError, error) {
	start := time.Now()
	const q = `
        SELECT
            snap.city,
            toString(snap.target_date)          AS date,
            argMax(snap.mean_f, snap.analyzed_at)   AS mean_f,
            argMax(snap.std_dev_f, snap.analyzed_at) AS std_dev_f,
            any(st.high_f)                      AS settled_f,
            argMax(snap.mean_f, snap.analyzed_at) - any(st.high_f) AS error_f,
            argMax(snap.as_of_hour, snap.analyzed_at) AS as_of_hour,
            count()                             AS snapshots
        FROM wxedge.forecast_snapshots AS snap
        INNER JOIN (
            SELECT city, date, argMax(high_f, recorded_at) AS high_f
            FROM wxedge.settlements
            GROUP BY city, date
        ) AS st
            ON st.city = snap.city AND st.date = snap.target_date
        WHERE snap.city = ?
          AND snap.target_date >= toDate(?)
          AND snap.target_date <= toDate(?)
        GROUP BY snap.city, snap.target_date
        ORDER BY snap.target_date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, city, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		s.l.Error("clickhouse forecast_errors query error",
			applogger.String("city", city), applogger.Error(err))
		return nil, fmt.Errorf("forecast errors: %w", err)
	}
	defer rows.Close()

	out := make([]domrepo.ForecastError, 0, 64)
	for rows.Next() {
		var fe domrepo.ForecastError
		var snapshots uint64
		if err := rows.Scan(&fe.City, &fe.Date, &fe.MeanF, &fe.StdDevF,
			&fe.SettledF, &fe.ErrorF, &fe.AsOfHour, &snapshots); err != nil {
			return nil, fmt.Errorf("scan forecast error: %w", err)
		}
		fe.Snapshots = int(snapshots)
		out = append(out, fe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse forecast_errors ok",
		applogger.String("city", city),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHArchive) Health(ctx context.Context) error { return s.ch.Health(ctx) }

func (s *CHArchive) Close() error { return s.ch.Close() }
