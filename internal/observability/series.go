package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// series is a labelled counter or gauge rendered in the Prometheus text
// format. An unlabelled metric is a series with no label names.
type series struct {
	name       string
	help       string
	kind       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func newCounter(name, help string, labels ...string) *series {
	return &series{name: name, help: help, kind: "counter", labelNames: labels, values: map[string]float64{}}
}

func newGauge(name, help string, labels ...string) *series {
	return &series{name: name, help: help, kind: "gauge", labelNames: labels, values: map[string]float64{}}
}

func (s *series) Add(v float64, labels ...string) {
	if s == nil {
		return
	}
	key := labelString(s.labelNames, labels)
	s.mu.Lock()
	s.values[key] += v
	s.mu.Unlock()
}

func (s *series) Inc(labels ...string) { s.Add(1, labels...) }

func (s *series) Dec(labels ...string) { s.Add(-1, labels...) }

func (s *series) Set(v float64, labels ...string) {
	if s == nil {
		return
	}
	key := labelString(s.labelNames, labels)
	s.mu.Lock()
	s.values[key] = v
	s.mu.Unlock()
}

func (s *series) Value(labels ...string) float64 {
	if s == nil {
		return 0
	}
	key := labelString(s.labelNames, labels)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

func (s *series) WritePrometheus(w io.Writer) error {
	if s == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", s.name, s.help, s.name, s.kind); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range sortedLabelKeys(s.values) {
		if _, err := fmt.Fprintf(w, "%s%s %g\n", s.name, key, s.values[key]); err != nil {
			return err
		}
	}
	return nil
}

type histogramVec struct {
	name       string
	help       string
	labelNames []string
	buckets    []float64
	mu         sync.Mutex
	values     map[string]*histogram
}

type histogram struct {
	counts []uint64
	sum    float64
	total  uint64
}

func newHistogram(name, help string, buckets []float64, labels ...string) *histogramVec {
	return &histogramVec{name: name, help: help, labelNames: labels, buckets: buckets, values: map[string]*histogram{}}
}

func (h *histogramVec) Observe(v float64, labels ...string) {
	if h == nil {
		return
	}
	key := labelString(h.labelNames, labels)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist, ok := h.values[key]
	if !ok {
		hist = &histogram{counts: make([]uint64, len(h.buckets))}
		h.values[key] = hist
	}
	hist.sum += v
	hist.total++
	for i, b := range h.buckets {
		if v <= b {
			hist.counts[i]++
		}
	}
}

func (h *histogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, key := range sortedLabelKeys(h.values) {
		hist := h.values[key]
		for i, b := range h.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(key, fmt.Sprintf("%g", b)), hist.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n%s_sum%s %g\n%s_count%s %d\n",
			h.name, withLe(key, "+Inf"), hist.total,
			h.name, key, hist.sum,
			h.name, key, hist.total,
		); err != nil {
			return err
		}
	}
	return nil
}

func sortedLabelKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) && values[i] != "" {
			val = values[i]
		}
		parts[i] = name + `="` + escapeLabel(val) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(v string) string { return labelEscaper.Replace(v) }

func withLe(labels string, le string) string {
	if labels == "" {
		return `{le="` + le + `"}`
	}
	return strings.TrimSuffix(labels, "}") + `,le="` + le + `"}`
}
