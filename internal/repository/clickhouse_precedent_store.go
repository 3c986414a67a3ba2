package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	"MarketSentry/internal/knowledge"
	pkgch "MarketSentry/pkg/clickhouse"
)

// CHPrecedentStore persists case-study precedents in ClickHouse. Similarity
// ranking happens in memory: the precedent set is small (documented episodes,
// not raw history), so a full scan is cheaper than teaching ClickHouse about
// cosine distance.
type CHPrecedentStore struct {
	db *sql.DB
}

func NewCHPrecedentStore(ch *pkgch.Client) domrepo.PrecedentStore {
	return &CHPrecedentStore{db: ch.DB()}
}

func (s *CHPrecedentStore) Ensure(ctx context.Context, ps []models.Precedent) error {
	// ReplacingMergeTree keyed by id makes re-insertion idempotent
	const q = `INSERT INTO sentry.precedents
		(id, name, date, asset, pattern, v0, v1, v2, v3, v4, summary, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, p := range ps {
		if _, err := s.db.ExecContext(ctx, q,
			p.ID, p.Name, p.Date, p.Asset, p.Pattern,
			p.Vector[0], p.Vector[1], p.Vector[2], p.Vector[3], p.Vector[4],
			p.Summary, p.Outcome,
		); err != nil {
			return fmt.Errorf("ensure precedent %s: %w", p.ID, err)
		}
	}
	return nil
}

func (s *CHPrecedentStore) FindSimilar(ctx context.Context, fp models.Fingerprint, limit int) ([]models.Precedent, []float64, error) {
	ps, err := s.all(ctx)
	if err != nil {
		return nil, nil, err
	}

	type scored struct {
		p   models.Precedent
		sim float64
	}
	ranked := make([]scored, 0, len(ps))
	for _, p := range ps {
		ranked = append(ranked, scored{p: p, sim: knowledge.Cosine(fp.Vector, p.Vector)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].sim > ranked[j].sim })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]models.Precedent, len(ranked))
	sims := make([]float64, len(ranked))
	for i, r := range ranked {
		out[i] = r.p
		sims[i] = r.sim
	}
	return out, sims, nil
}

func (s *CHPrecedentStore) ByAsset(ctx context.Context, asset string, limit int) ([]models.Precedent, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT id, name, date, asset, pattern, v0, v1, v2, v3, v4, summary, outcome
		FROM sentry.precedents FINAL
		WHERE asset = ?
		ORDER BY date DESC
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, asset, limit)
	if err != nil {
		return nil, fmt.Errorf("precedents by asset: %w", err)
	}
	defer rows.Close()
	return scanPrecedents(rows)
}

func (s *CHPrecedentStore) all(ctx context.Context) ([]models.Precedent, error) {
	const q = `SELECT id, name, date, asset, pattern, v0, v1, v2, v3, v4, summary, outcome
		FROM sentry.precedents FINAL`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load precedents: %w", err)
	}
	defer rows.Close()
	return scanPrecedents(rows)
}

func scanPrecedents(rows *sql.Rows) ([]models.Precedent, error) {
	var out []models.Precedent
	for rows.Next() {
		var p models.Precedent
		if err := rows.Scan(&p.ID, &p.Name, &p.Date, &p.Asset, &p.Pattern,
			&p.Vector[0], &p.Vector[1], &p.Vector[2], &p.Vector[3], &p.Vector[4],
			&p.Summary, &p.Outcome); err != nil {
			return nil, fmt.Errorf("scan precedent: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
