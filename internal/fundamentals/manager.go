package fundamentals

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Manager coordinates providers, the daily cache and the scorer.
type Manager struct {
	cfg       Config
	scorer    *Scorer
	cache     *Cache
	providers []Provider
	log       zerolog.Logger
	now       func() time.Time
}

// NewManager builds a manager. Providers are consulted in order; later ones only fill gaps.
func NewManager(cfg Config, cache *Cache, log zerolog.Logger, providers ...Provider) (*Manager, error) {
	scorer, err := NewScorer(cfg)
	if err != nil {
		return nil, err
	}
	return &Manager{
		cfg:       cfg,
		scorer:    scorer,
		cache:     cache,
		providers: providers,
		log:       log.With().Str("component", "fundamentals").Logger(),
		now:       time.Now,
	}, nil
}

// Enabled reports whether the gate is active.
func (m *Manager) Enabled() bool { return m.cfg.Enabled }

// CachePath returns today's cache file, or "" without a cache.
func (m *Manager) CachePath() string {
	if m.cache == nil {
		return ""
	}
	return m.cache.Path(m.now())
}

// Metrics returns metrics for symbols, from today's cache when fresh and complete, otherwise from providers.
func (m *Manager) Metrics(ctx context.Context, symbols []string, force bool) (map[string]Metrics, error) {
	if !m.cfg.Enabled {
		return map[string]Metrics{}, nil
	}
	if !force && m.cache != nil && m.cache.Fresh(m.cfg.Refresh, m.now()) {
		cached, err := m.cache.Load(m.now())
		switch {
		case err == nil:
			out := make(map[string]Metrics, len(symbols))
			for _, sym := range symbols {
				if mt, ok := cached[sym]; ok {
					out[sym] = mt
				}
			}
			if len(out) == len(symbols) {
				return out, nil
			}
		case !errors.Is(err, ErrCacheMiss):
			m.log.Warn().Err(err).Msg("fundamentals cache unreadable, refetching")
		}
	}
	return m.fetch(ctx, symbols)
}

func (m *Manager) fetch(ctx context.Context, symbols []string) (map[string]Metrics, error) {
	out := make(map[string]Metrics, len(symbols))
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		var mt Metrics
		for i, p := range m.providers {
			if i > 0 && mt.Complete() && mt.Turnover != nil {
				break
			}
			got, err := p.Fetch(ctx, sym)
			if err != nil {
				m.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", sym).Msg("fundamentals fetch failed")
				continue
			}
			mt = mt.Merge(got)
		}
		out[sym] = mt
	}
	return out, nil
}

// Refresh fetches fresh metrics, writes today's cache and prunes old snapshots.
func (m *Manager) Refresh(ctx context.Context, symbols []string) (map[string]Metrics, error) {
	data, err := m.fetch(ctx, symbols)
	if err != nil {
		return data, err
	}
	if m.cache == nil {
		return data, nil
	}
	path, err := m.cache.Save(m.now(), data)
	if err != nil {
		return data, err
	}
	m.log.Info().Str("path", path).Int("symbols", len(data)).Msg("fundamentals cache written")
	keep := m.cfg.KeepDays
	if keep <= 0 {
		keep = 7
	}
	if n, err := m.cache.ClearOld(keep, m.now()); err != nil {
		m.log.Warn().Err(err).Msg("fundamentals cache prune failed")
	} else if n > 0 {
		m.log.Debug().Int("removed", n).Msg("old fundamentals snapshots removed")
	}
	return data, nil
}

// Snapshot assembles a complete scoring pass for symbols before any gate is consulted.
func (m *Manager) Snapshot(ctx context.Context, symbols []string, force bool) (*Snapshot, error) {
	data, err := m.Metrics(ctx, symbols, force)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(m.scorer, data), nil
}
