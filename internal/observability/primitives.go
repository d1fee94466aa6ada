package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// family is a named set of float series keyed by their rendered label set.
// Counters and gauges, labelled or not, are thin views over it.
type family struct {
	name   string
	help   string
	kind   string
	labels []string

	mu     sync.RWMutex
	series map[string]float64
}

func newFamily(kind, name, help string, labels []string) *family {
	return &family{name: name, help: help, kind: kind, labels: labels, series: map[string]float64{}}
}

func (f *family) update(fn func(float64) float64, values []string) {
	if f == nil {
		return
	}
	key := labelString(f.labels, values)
	f.mu.Lock()
	f.series[key] = fn(f.series[key])
	f.mu.Unlock()
}

func (f *family) get(values []string) float64 {
	if f == nil {
		return 0
	}
	key := labelString(f.labels, values)
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.series[key]
}

func (f *family) WritePrometheus(w io.Writer) error {
	if f == nil {
		return nil
	}
	if err := writeHeader(w, f.name, f.help, f.kind); err != nil {
		return err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.labels) == 0 && len(f.series) == 0 {
		_, err := fmt.Fprintf(w, "%s %f\n", f.name, 0.0)
		return err
	}
	for _, key := range sortedKeys(f.series) {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", f.name, key, f.series[key]); err != nil {
			return err
		}
	}
	return nil
}

func plus(d float64) func(float64) float64 { return func(v float64) float64 { return v + d } }
func to(d float64) func(float64) float64   { return func(float64) float64 { return d } }

type CounterVec struct{ f *family }

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{f: newFamily("counter", name, help, labels)}
}

func (c *CounterVec) Inc(values ...string) { c.Add(1, values...) }

func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil || v < 0 {
		return
	}
	c.f.update(plus(v), values)
}

// Value returns the current count for one label combination.
func (c *CounterVec) Value(values ...string) float64 {
	if c == nil {
		return 0
	}
	return c.f.get(values)
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.f.WritePrometheus(w)
}

type Counter struct{ vec *CounterVec }

func NewCounter(name, help string) *Counter {
	return &Counter{vec: NewCounterVec(name, help, nil)}
}

func (c *Counter) Inc() {
	if c != nil {
		c.vec.Inc()
	}
}

func (c *Counter) Add(v float64) {
	if c != nil {
		c.vec.Add(v)
	}
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	return c.vec.Value()
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.vec.WritePrometheus(w)
}

type GaugeVec struct{ f *family }

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{f: newFamily("gauge", name, help, labels)}
}

func (g *GaugeVec) Set(v float64, values ...string) {
	if g != nil {
		g.f.update(to(v), values)
	}
}

func (g *GaugeVec) Add(v float64, values ...string) {
	if g != nil {
		g.f.update(plus(v), values)
	}
}

func (g *GaugeVec) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.f.WritePrometheus(w)
}

type Gauge struct{ vec *GaugeVec }

func NewGauge(name, help string) *Gauge {
	return &Gauge{vec: NewGaugeVec(name, help, nil)}
}

func (g *Gauge) Set(v float64) {
	if g != nil {
		g.vec.Set(v)
	}
}

func (g *Gauge) Inc() {
	if g != nil {
		g.vec.Add(1)
	}
}

func (g *Gauge) Dec() {
	if g != nil {
		g.vec.Add(-1)
	}
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.vec.WritePrometheus(w)
}

var defaultBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

type HistogramVec struct {
	name    string
	help    string
	labels  []string
	buckets []float64

	mu     sync.RWMutex
	series map[string]*histogram
}

// histogram keeps per-bucket counts; cumulation happens at write time.
type histogram struct {
	perBucket []uint64
	sum       float64
	count     uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)
	return &HistogramVec{name: name, help: help, labels: labels, buckets: sorted, series: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	key := labelString(h.labels, values)
	idx := sort.SearchFloat64s(h.buckets, v)

	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.series[key]
	if !ok {
		s = &histogram{perBucket: make([]uint64, len(h.buckets)+1)}
		h.series[key] = s
	}
	s.perBucket[idx]++
	s.sum += v
	s.count++
}

// Count returns how many observations one label combination has seen.
func (h *HistogramVec) Count(values ...string) uint64 {
	if h == nil {
		return 0
	}
	key := labelString(h.labels, values)
	h.mu.RLock()
	defer h.mu.RUnlock()
	if s, ok := h.series[key]; ok {
		return s.count
	}
	return 0
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if err := writeHeader(w, h.name, h.help, "histogram"); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, key := range sortedKeys(h.series) {
		s := h.series[key]
		var cum uint64
		for i, b := range h.buckets {
			cum += s.perBucket[i]
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(key, fmt.Sprintf("%g", b)), cum); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(key, "+Inf"), s.count); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %f\n%s_count%s %d\n", h.name, key, s.sum, h.name, key, s.count); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(w io.Writer, name, help, kind string) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
	return err
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// labelString renders `{a="x",b="y"}`. Missing values render as "unknown".
func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		parts[i] = name + `="` + labelEscaper.Replace(val) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func withLe(labels string, le string) string {
	pair := `le="` + labelEscaper.Replace(le) + `"`
	if labels == "" || labels == "{}" || !strings.HasSuffix(labels, "}") {
		return "{" + pair + "}"
	}
	return strings.TrimSuffix(labels, "}") + "," + pair + "}"
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	return len(status) == 3 && status[0] == '5'
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
