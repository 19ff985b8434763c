package indicator

func init() {
	RegisterBuiltins(Default)
}

// RegisterBuiltins installs the standard indicator set into r.
func RegisterBuiltins(r *Registry) {
	r.MustRegister("tsi", NewTSI)
	r.MustRegister("ewo", NewEWO)
	r.MustRegister("ma", NewMA)
	r.MustRegister("rsi", NewRSI)
	r.MustRegister("hma", NewHMA)
	r.MustRegister("adx", NewADX)
	r.MustRegister("supertrend", NewSuperTrend)
	r.MustRegister("qqe", NewQQE)
	r.MustRegister("atr_percentile", NewATRPercentile)
}
