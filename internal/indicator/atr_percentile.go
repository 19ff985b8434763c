package indicator

// ATRPercentile ranks the current ATR against a rolling lookback to classify the volatility regime.
type ATRPercentile struct {
	atrPeriod, lookback int
	minPct, maxPct      float64
}

// NewATRPercentile builds the filter from params atr_period (14), lookback (100),
// min_percentile (0.2) and max_percentile (0.85).
func NewATRPercentile(p Params) (Indicator, error) {
	period, err := p.Int("atr_period", 14)
	if err != nil {
		return nil, err
	}
	lookback, err := p.Int("lookback", 100)
	if err != nil {
		return nil, err
	}
	minPct, err := p.Float("min_percentile", 0.2)
	if err != nil {
		return nil, err
	}
	maxPct, err := p.Float("max_percentile", 0.85)
	if err != nil {
		return nil, err
	}
	if err := positive("atr_period", period); err != nil {
		return nil, err
	}
	if err := positive("lookback", lookback); err != nil {
		return nil, err
	}
	return &ATRPercentile{atrPeriod: period, lookback: lookback, minPct: minPct, maxPct: maxPct}, nil
}

// OutputColumns lists the ATR percentile columns. ATR_regime is -1 low, 0 normal, 1 high.
func (a *ATRPercentile) OutputColumns() []string {
	return []string{"ATR", "ATR_pct", "ATR_percentile", "ATR_regime", "ATR_accept"}
}

// Compute derives ATR and its rolling percentile rank (0-100).
func (a *ATRPercentile) Compute(in *Frame) (Columns, error) {
	high, _ := in.Column(ColHigh)
	low, _ := in.Column(ColLow)
	closes, _ := in.Column(ColClose)
	n := len(closes)
	values := atr(high, low, closes, a.atrPeriod)

	pct := undefinedSeries(n)
	rank := undefinedSeries(n)
	regime := undefinedSeries(n)
	accept := undefinedSeries(n)
	for i := 0; i < n; i++ {
		if IsUndefined(values[i]) {
			continue
		}
		if closes[i] != 0 {
			pct[i] = values[i] / closes[i] * 100
		}
		from := i - a.lookback + 1
		if from < 0 {
			from = 0
		}
		below, total := 0, 0
		for j := from; j <= i; j++ {
			if IsUndefined(values[j]) {
				continue
			}
			total++
			if values[j] < values[i] {
				below++
			}
		}
		if total == 0 {
			continue
		}
		rank[i] = float64(below) / float64(total) * 100
		switch {
		case rank[i] < 20:
			regime[i] = -1
		case rank[i] > 80:
			regime[i] = 1
		default:
			regime[i] = 0
		}
		accept[i] = boolValue(rank[i] >= a.minPct*100 && rank[i] <= a.maxPct*100)
	}
	return Columns{
		"ATR":            values,
		"ATR_pct":        pct,
		"ATR_percentile": rank,
		"ATR_regime":     regime,
		"ATR_accept":     accept,
	}, nil
}

// Normalizer maps the percentile rank onto the unit interval.
func (a *ATRPercentile) Normalizer(column string) (NormalizeFunc, bool) {
	switch column {
	case "ATR_percentile":
		return func(row map[string]float64) float64 {
			v := row["ATR_percentile"]
			if IsUndefined(v) {
				return Undefined
			}
			return clamp(v/100, 0, 1)
		}, true
	case "ATR_accept":
		return signedFlag(column, 1), true
	}
	return nil, false
}
