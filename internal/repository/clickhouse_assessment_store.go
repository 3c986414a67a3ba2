package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	pkgch "MarketSentry/pkg/clickhouse"
)

// CHAssessmentStore persists fused assessments and interventions in
// ClickHouse. Structured sub-objects are stored as JSON strings; the query
// surface only filters on the indexed columns.
type CHAssessmentStore struct {
	db *sql.DB
}

func NewCHAssessmentStore(ch *pkgch.Client) domrepo.AssessmentStore {
	return &CHAssessmentStore{db: ch.DB()}
}

func (s *CHAssessmentStore) StoreRisk(ctx context.Context, r *models.RiskScore) error {
	similar, err := json.Marshal(r.SimilarEvents)
	if err != nil {
		return fmt.Errorf("marshal similar events: %w", err)
	}
	contrib, err := json.Marshal(r.Contributions)
	if err != nil {
		return fmt.Errorf("marshal contributions: %w", err)
	}
	errsJSON, err := json.Marshal(r.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}

	const q = `INSERT INTO sentry.risk_assessments
		(ts, asset, confidence, severity, explanation, similar_events, contributions, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q,
		r.Timestamp, r.Asset, r.Confidence, r.Severity, r.Explanation,
		string(similar), string(contrib), string(errsJSON),
	); err != nil {
		return fmt.Errorf("store risk: %w", err)
	}
	return nil
}

func (s *CHAssessmentStore) StoreIntervention(ctx context.Context, iv *models.Intervention) error {
	const q = `INSERT INTO sentry.interventions
		(issued_at, asset, action, reasoning, historical_precedent, confidence, severity)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q,
		iv.IssuedAt, iv.Asset, iv.Action, iv.Reasoning, iv.HistoricalPrecedent,
		iv.Risk.Confidence, iv.Risk.Severity,
	); err != nil {
		return fmt.Errorf("store intervention: %w", err)
	}
	return nil
}

func (s *CHAssessmentStore) RecentInterventions(ctx context.Context, asset string, limit int) ([]models.Intervention, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT issued_at, asset, action, reasoning, historical_precedent, confidence, severity
		FROM sentry.interventions
		WHERE asset = ? OR ? = ''
		ORDER BY issued_at DESC
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, asset, asset, limit)
	if err != nil {
		return nil, fmt.Errorf("recent interventions: %w", err)
	}
	defer rows.Close()

	var out []models.Intervention
	for rows.Next() {
		var iv models.Intervention
		var issued time.Time
		if err := rows.Scan(&issued, &iv.Asset, &iv.Action, &iv.Reasoning,
			&iv.HistoricalPrecedent, &iv.Risk.Confidence, &iv.Risk.Severity); err != nil {
			return nil, fmt.Errorf("scan intervention: %w", err)
		}
		iv.IssuedAt = issued
		iv.Risk.Asset = iv.Asset
		out = append(out, iv)
	}
	return out, rows.Err()
}
