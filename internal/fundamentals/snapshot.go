package fundamentals

import "sort"

// Snapshot is one fully assembled scoring pass: metrics per symbol plus peer caps grouped by market.
// It is read-only after construction and safe for concurrent Check calls.
type Snapshot struct {
	scorer  *Scorer
	metrics map[string]Metrics
	peers   map[string][]float64
	results map[string]Result
}

// NewSnapshot groups market caps by market and scores every symbol up front.
func NewSnapshot(scorer *Scorer, metrics map[string]Metrics) *Snapshot {
	s := &Snapshot{
		scorer:  scorer,
		metrics: make(map[string]Metrics, len(metrics)),
		peers:   make(map[string][]float64),
		results: make(map[string]Result, len(metrics)),
	}
	for sym, m := range metrics {
		s.metrics[sym] = m
		if m.MarketCap == nil {
			continue
		}
		market := MarketFromSymbol(sym)
		s.peers[market] = append(s.peers[market], *m.MarketCap)
	}
	for sym, m := range s.metrics {
		market := MarketFromSymbol(sym)
		s.results[sym] = scorer.ScoreAndGate(sym, m, market, s.peers[market])
	}
	return s
}

// Check returns the gate result for symbol. Unknown symbols are scored with every field missing.
func (s *Snapshot) Check(symbol string) Result {
	if r, ok := s.results[symbol]; ok {
		return r
	}
	market := MarketFromSymbol(symbol)
	return s.scorer.ScoreAndGate(symbol, Metrics{}, market, s.peers[market])
}

// Results returns every scored symbol, sorted by symbol.
func (s *Snapshot) Results() []Result {
	out := make([]Result, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Whitelist returns the symbols that passed, in input order, plus every result.
func (s *Snapshot) Whitelist(symbols []string) ([]string, map[string]Result) {
	var passed []string
	results := make(map[string]Result, len(symbols))
	for _, sym := range symbols {
		r := s.Check(sym)
		results[sym] = r
		if r.Passed {
			passed = append(passed, sym)
		}
	}
	return passed, results
}
