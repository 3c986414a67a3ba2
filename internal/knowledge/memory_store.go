package knowledge

import (
	"context"
	"sort"
	"sync"

	"MarketSentry/internal/domain/models"
)

// MemoryStore is an in-process PrecedentStore used by the demo path and by
// tests. The live path uses the ClickHouse-backed store.
type MemoryStore struct {
	mu sync.RWMutex
	ps []models.Precedent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Ensure inserts precedents that are not present yet, keyed by ID.
func (m *MemoryStore) Ensure(ctx context.Context, ps []models.Precedent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{}, len(m.ps))
	for _, p := range m.ps {
		seen[p.ID] = struct{}{}
	}
	for _, p := range ps {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		m.ps = append(m.ps, p)
		seen[p.ID] = struct{}{}
	}
	return nil
}

// FindSimilar ranks stored precedents by cosine similarity to the fingerprint.
func (m *MemoryStore) FindSimilar(ctx context.Context, fp models.Fingerprint, limit int) ([]models.Precedent, []float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		p   models.Precedent
		sim float64
	}
	ranked := make([]scored, 0, len(m.ps))
	for _, p := range m.ps {
		ranked = append(ranked, scored{p: p, sim: Cosine(fp.Vector, p.Vector)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].sim > ranked[j].sim })

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	ps := make([]models.Precedent, len(ranked))
	sims := make([]float64, len(ranked))
	for i, r := range ranked {
		ps[i] = r.p
		sims[i] = r.sim
	}
	return ps, sims, nil
}

// ByAsset returns stored precedents for one asset, newest first.
func (m *MemoryStore) ByAsset(ctx context.Context, asset string, limit int) ([]models.Precedent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Precedent
	for _, p := range m.ps {
		if p.Asset == asset {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
