package rules

// Decider answers one side's question for a row.
type Decider interface {
	Decide(row Row) bool
	String() string
}

// TreeDecider evaluates a parsed rule tree.
type TreeDecider struct {
	Node Node
}

func (d TreeDecider) Decide(row Row) bool { return Evaluate(d.Node, row) }

func (d TreeDecider) String() string {
	if d.Node == nil {
		return "rule()"
	}
	return "rule" + d.Node.String()
}

// TemplateDecider evaluates a named template for a fixed side.
type TemplateDecider struct {
	name string
	side Side
	fn   TemplateFunc
}

// NewTemplateDecider resolves name up front so unknown templates fail at build time.
func NewTemplateDecider(name string, side Side) (*TemplateDecider, error) {
	fn, err := LookupTemplate(name)
	if err != nil {
		return nil, err
	}
	return &TemplateDecider{name: name, side: side, fn: fn}, nil
}

func (d *TemplateDecider) Decide(row Row) bool { return d.fn(d.side, row) }

func (d *TemplateDecider) String() string { return "template(" + d.name + ")" }

// WeightedDecider compares a shared weighted score against a side's threshold.
type WeightedDecider struct {
	W    *Weighted
	Side Side
}

func (d WeightedDecider) Decide(row Row) bool { return d.W.Decide(d.Side, row) }

func (d WeightedDecider) String() string { return "weighted(" + string(d.Side) + ")" }
