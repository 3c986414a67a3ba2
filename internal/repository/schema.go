package repository

// Schema returns the idempotent DDL the service ensures at startup.
func Schema() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS sentry`,
		`CREATE TABLE IF NOT EXISTS sentry.ticks_raw (
			ts DateTime64(3),
			symbol LowCardinality(String),
			price Float64,
			volume Float64,
			source LowCardinality(String),
			event_id String
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMMDD(ts)
		ORDER BY (symbol, ts)
		TTL toDateTime(ts) + INTERVAL 30 DAY`,
		`CREATE TABLE IF NOT EXISTS sentry.candles_1m (
			bucket DateTime,
			symbol LowCardinality(String),
			open Float64,
			high Float64,
			low Float64,
			close Float64,
			vol Float64
		) ENGINE = ReplacingMergeTree()
		ORDER BY (symbol, bucket)`,
		`CREATE MATERIALIZED VIEW IF NOT EXISTS sentry.candles_1m_mv
		TO sentry.candles_1m AS
		SELECT
			toStartOfMinute(ts) AS bucket,
			symbol,
			argMin(price, ts) AS open,
			max(price) AS high,
			min(price) AS low,
			argMax(price, ts) AS close,
			sum(volume) AS vol
		FROM sentry.ticks_raw
		GROUP BY bucket, symbol`,
		`CREATE TABLE IF NOT EXISTS sentry.risk_assessments (
			ts DateTime64(3),
			asset LowCardinality(String),
			confidence Float64,
			severity LowCardinality(String),
			explanation String,
			similar_events String,
			contributions String,
			errors String
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(ts)
		ORDER BY (asset, ts)`,
		`CREATE TABLE IF NOT EXISTS sentry.interventions (
			issued_at DateTime64(3),
			asset LowCardinality(String),
			action LowCardinality(String),
			reasoning String,
			historical_precedent String,
			confidence Float64,
			severity LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY (asset, issued_at)`,
		`CREATE TABLE IF NOT EXISTS sentry.precedents (
			id String,
			name String,
			date DateTime,
			asset LowCardinality(String),
			pattern LowCardinality(String),
			v0 Float64, v1 Float64, v2 Float64, v3 Float64, v4 Float64,
			summary String,
			outcome String
		) ENGINE = ReplacingMergeTree()
		ORDER BY id`,
	}
}
