package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	domsvc "MarketSentry/internal/domain/service"
	"MarketSentry/internal/knowledge"
	applogger "MarketSentry/pkg/logger"
)

// Decider applies the intervention gate to a fused assessment.
type Decider interface {
	Decide(risk models.RiskScore) (*models.Intervention, bool)
}

// InterventionSink receives gated interventions for delivery.
type InterventionSink interface {
	Submit(ctx context.Context, iv *models.Intervention) error
}

// MonitorConfig carries the detection loop settings.
type MonitorConfig struct {
	Assets         []string
	Interval       time.Duration
	Window         time.Duration
	AgentTimeout   time.Duration
	PrecedentLimit int
}

// Monitor drives the detection cycle: build context, run agents in parallel,
// match precedents, fuse, persist, and gate interventions.
type Monitor struct {
	cfg        MonitorConfig
	builder    *ContextBuilder
	agents     []domsvc.Agent
	engine     domsvc.FusionEngine
	decider    Decider
	precedents domrepo.PrecedentStore
	store      domrepo.AssessmentStore
	sink       InterventionSink
	metrics    domrepo.Metrics
	logger     *applogger.Logger
}

func NewMonitor(
	cfg MonitorConfig,
	builder *ContextBuilder,
	agents []domsvc.Agent,
	engine domsvc.FusionEngine,
	decider Decider,
	precedents domrepo.PrecedentStore,
	store domrepo.AssessmentStore,
	sink InterventionSink,
	metrics domrepo.Metrics,
	lgr *applogger.Logger,
) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Hour
	}
	if cfg.AgentTimeout <= 0 {
		cfg.AgentTimeout = 10 * time.Second
	}
	if cfg.PrecedentLimit <= 0 {
		cfg.PrecedentLimit = 5
	}
	return &Monitor{
		cfg:        cfg,
		builder:    builder,
		agents:     agents,
		engine:     engine,
		decider:    decider,
		precedents: precedents,
		store:      store,
		sink:       sink,
		metrics:    metrics,
		logger:     lgr,
	}
}

// Run executes the detection cycle for every configured asset on the
// configured interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, asset := range m.cfg.Assets {
				if _, _, err := m.Assess(ctx, asset, m.cfg.Window); err != nil {
					m.logger.Error("assessment cycle failed",
						applogger.String("asset", asset),
						applogger.Error(err))
				}
			}
		}
	}
}

// Assess runs one full detection cycle for an asset. Agent failures degrade
// the result (recorded in RiskScore.Errors), they never abort it.
func (m *Monitor) Assess(ctx context.Context, asset string, window time.Duration) (models.RiskScore, *models.Intervention, error) {
	mc, connErrs := m.builder.Build(ctx, asset, window)

	signals, agentErrs := m.runAgents(ctx, m.agents, mc)
	for k, v := range connErrs {
		agentErrs["connector:"+k] = v
	}

	fp := knowledge.BuildFingerprint(mc)
	var precedents []models.Precedent
	var sims []float64
	if m.precedents != nil {
		var err error
		precedents, sims, err = m.precedents.FindSimilar(ctx, fp, m.cfg.PrecedentLimit)
		if err != nil {
			agentErrs["precedents"] = err.Error()
		}
	}

	risk, err := m.engine.Synthesize(ctx, signals, precedents, sims)
	if err != nil {
		return models.RiskScore{}, nil, err
	}
	risk.Asset = asset
	if len(agentErrs) > 0 {
		risk.Errors = agentErrs
	}

	m.metrics.RecordRisk(asset, risk.Confidence)
	if m.store != nil {
		if err := m.store.StoreRisk(ctx, &risk); err != nil {
			m.logger.Warn("store risk failed", applogger.Error(err))
		}
	}

	var intervention *models.Intervention
	if iv, ok := m.decider.Decide(risk); ok {
		intervention = iv
		m.metrics.RecordIntervention(asset)
		m.logger.Warn("intervention gate crossed",
			applogger.String("asset", asset),
			applogger.Float64("confidence", risk.Confidence),
			applogger.String("severity", risk.Severity))
		if m.sink != nil {
			if err := m.sink.Submit(ctx, iv); err != nil {
				m.logger.Error("intervention delivery failed", applogger.Error(err))
			}
		}
	}

	return risk, intervention, nil
}

// Signals builds a fresh context and runs the named agent over it, or all
// agents when name is "all" or empty.
func (m *Monitor) Signals(ctx context.Context, asset, name string, window time.Duration) ([]models.Signal, map[string]string, error) {
	if window <= 0 {
		window = m.cfg.Window
	}
	mc, connErrs := m.builder.Build(ctx, asset, window)

	agents := m.agents
	if name != "" && name != "all" {
		agents = nil
		for _, ag := range m.agents {
			if ag.Name() == name {
				agents = append(agents, ag)
			}
		}
		if len(agents) == 0 {
			return nil, nil, fmt.Errorf("unknown agent: %s", name)
		}
	}

	signals, errs := m.runAgents(ctx, agents, mc)
	for k, v := range connErrs {
		errs["connector:"+k] = v
	}
	return signals, errs, nil
}

// runAgents executes every agent in parallel with a per-agent timeout.
// Signals failing an agent's own Validate are dropped and recorded.
func (m *Monitor) runAgents(ctx context.Context, agents []domsvc.Agent, mc *models.MarketContext) ([]models.Signal, map[string]string) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		signals []models.Signal
		errs    = make(map[string]string)
	)

	for _, ag := range agents {
		wg.Add(1)
		go func(ag domsvc.Agent) {
			defer wg.Done()

			actx, cancel := context.WithTimeout(ctx, m.cfg.AgentTimeout)
			defer cancel()

			start := time.Now()
			sig, err := ag.Analyze(actx, mc)
			m.metrics.RecordAgentLatency(ag.Name(), time.Since(start).Seconds())

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[ag.Name()] = err.Error()
				m.metrics.RecordError("agent_" + ag.Name())
				return
			}
			if !ag.Validate(sig) {
				errs[ag.Name()] = "signal failed validation"
				m.metrics.RecordError("agent_validate_" + ag.Name())
				return
			}
			signals = append(signals, sig)
		}(ag)
	}
	wg.Wait()

	return signals, errs
}
