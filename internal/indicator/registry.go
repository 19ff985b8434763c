// Package indicator hosts the named catalogue of technical indicator computations.
package indicator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pj950/ffftttt/internal/metrics"
	"github.com/pj950/ffftttt/internal/signal"
)

var (
	// ErrUnknownIndicator is returned when a configured name has no registered factory.
	ErrUnknownIndicator = errors.New("unknown indicator")
	// ErrDuplicateIndicator is returned when a name is registered twice.
	ErrDuplicateIndicator = errors.New("indicator already registered")
	// ErrInvalidParams is returned by factories rejecting their parameters.
	ErrInvalidParams = errors.New("invalid indicator params")
)

// Indicator is a configured computation unit.
type Indicator interface {
	// Compute derives new columns from the frame accumulated so far. It must not modify the frame.
	Compute(in *Frame) (Columns, error)
	// OutputColumns lists every column Compute produces.
	OutputColumns() []string
}

// NormalizeFunc maps one row onto the signed unit interval for weighted fusion.
type NormalizeFunc func(row map[string]float64) float64

// Normalizer is implemented by indicators whose columns can feed weighted fusion.
type Normalizer interface {
	Normalizer(column string) (NormalizeFunc, bool)
}

// Factory builds an indicator from its parameters.
type Factory func(params Params) (Indicator, error)

// Spec is one configured indicator: a registered name plus parameters.
type Spec struct {
	Name   string `yaml:"name"`
	Params Params `yaml:"params"`
}

// Registry maps indicator names to factories. Populate it during start-up; it is read-only afterwards.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	log       zerolog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory), log: zerolog.Nop()}
}

// Default holds the built-in indicators.
var Default = NewRegistry()

// SetLogger attaches a logger used to report recovered indicator failures.
func (r *Registry) SetLogger(log zerolog.Logger) {
	r.mu.Lock()
	r.log = log
	r.mu.Unlock()
}

// Register associates name with factory. Registering an existing name is rejected.
func (r *Registry) Register(name string, factory Factory) error {
	name = normalizeName(name)
	if name == "" || factory == nil {
		return fmt.Errorf("register indicator: empty name or nil factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateIndicator, name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister is Register for init-time wiring; it panics on error.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Names lists registered indicators in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Create instantiates a registered indicator.
func (r *Registry) Create(name string, params Params) (Indicator, error) {
	r.mu.RLock()
	factory, ok := r.factories[normalizeName(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnknownIndicator, name, strings.Join(r.Names(), ", "))
	}
	ind, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("indicator %s: %w", name, err)
	}
	return ind, nil
}

// Validate instantiates every spec without computing anything; use it to fail fast at start-up.
func (r *Registry) Validate(specs []Spec) error {
	for _, spec := range specs {
		if _, err := r.Create(spec.Name, spec.Params); err != nil {
			return err
		}
	}
	return nil
}

// CalculateAll computes every configured indicator in order, merging columns into one frame.
// Later indicators see columns produced by earlier ones.
func (r *Registry) CalculateAll(bars []signal.Bar, specs []Spec) (*Frame, error) {
	frame := NewFrame(bars)
	for _, spec := range specs {
		ind, err := r.Create(spec.Name, spec.Params)
		if err != nil {
			return nil, err
		}
		cols := r.computeSafely(spec.Name, ind, frame)
		if err := frame.Merge(cols); err != nil {
			return nil, fmt.Errorf("indicator %s: %w", spec.Name, err)
		}
	}
	return frame, nil
}

// Normalizers resolves the normalization function for each requested column.
// Raw bar columns and columns with no owning normalizer are clamped to [-1, 1].
func (r *Registry) Normalizers(specs []Spec, columns []string) (map[string]NormalizeFunc, error) {
	owners := make(map[string]Indicator)
	for _, spec := range specs {
		ind, err := r.Create(spec.Name, spec.Params)
		if err != nil {
			return nil, err
		}
		for _, col := range ind.OutputColumns() {
			owners[col] = ind
		}
	}
	out := make(map[string]NormalizeFunc, len(columns))
	for _, col := range columns {
		if owner, ok := owners[col]; ok {
			if n, ok := owner.(Normalizer); ok {
				if fn, ok := n.Normalizer(col); ok {
					out[col] = fn
					continue
				}
			}
		}
		out[col] = clampColumn(col)
	}
	return out, nil
}

func (r *Registry) computeSafely(name string, ind Indicator, frame *Frame) (cols Columns) {
	fail := func(reason any) Columns {
		r.mu.RLock()
		log := r.log
		r.mu.RUnlock()
		log.Warn().Str("indicator", name).Interface("reason", reason).Msg("indicator failed, columns set undefined")
		metrics.IndicatorFailures.WithLabelValues(name).Inc()
		out := make(Columns)
		for _, col := range ind.OutputColumns() {
			out[col] = undefinedSeries(frame.Len())
		}
		return out
	}
	defer func() {
		if rec := recover(); rec != nil {
			cols = fail(rec)
		}
	}()

	computed, err := ind.Compute(frame)
	if err != nil {
		return fail(err.Error())
	}
	for _, col := range ind.OutputColumns() {
		if values, ok := computed[col]; !ok || len(values) != frame.Len() {
			return fail(fmt.Sprintf("column %s missing or misaligned", col))
		}
	}
	return computed
}

func clampColumn(col string) NormalizeFunc {
	return func(row map[string]float64) float64 {
		v, ok := row[col]
		if !ok || IsUndefined(v) {
			return Undefined
		}
		return clamp(v, -1, 1)
	}
}

func normalizeName(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Params carries indicator parameters as decoded from configuration.
type Params map[string]any

// Int returns an integer parameter or def when absent.
func (p Params) Int(key string, def int) (int, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %s=%v is not an integer", ErrInvalidParams, key, v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParams, key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrInvalidParams, key, raw)
	}
}

// Float returns a float parameter or def when absent.
func (p Params) Float(key string, def float64) (float64, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParams, key, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrInvalidParams, key, raw)
	}
}

func positive(key string, v int) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidParams, key, v)
	}
	return nil
}
