// ABOUTME: Prometheus metrics for intent matching, plan generation, and command execution
// ABOUTME: Cache counters are read from the matcher at scrape time; outcomes are recorded as they happen

package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mauromedda/nlsh/internal/intent"
)

const namespace = "nlsh"

// MatcherSource is the read side of an intent matcher.
type MatcherSource interface {
	Stats() intent.CacheStats
	Len() int
}

// matcherCollector exports matcher cache state on every scrape.
type matcherCollector struct {
	src      MatcherSource
	hits     *prometheus.Desc
	misses   *prometheus.Desc
	entries  *prometheus.Desc
	capacity *prometheus.Desc
	intents  *prometheus.Desc
}

func newMatcherCollector(src MatcherSource) *matcherCollector {
	return &matcherCollector{
		src: src,
		hits: prometheus.NewDesc(prometheus.BuildFQName(namespace, "intent_cache", "hits_total"),
			"Match calls answered from the result cache", nil, nil),
		misses: prometheus.NewDesc(prometheus.BuildFQName(namespace, "intent_cache", "misses_total"),
			"Match calls that had to score the registered intents", nil, nil),
		entries: prometheus.NewDesc(prometheus.BuildFQName(namespace, "intent_cache", "entries"),
			"Inputs currently held in the result cache", nil, nil),
		capacity: prometheus.NewDesc(prometheus.BuildFQName(namespace, "intent_cache", "capacity"),
			"Maximum number of cached inputs", nil, nil),
		intents: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "intents_registered"),
			"Intents known to the matcher", nil, nil),
	}
}

func (c *matcherCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.entries
	ch <- c.capacity
	ch <- c.intents
}

func (c *matcherCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.Size))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity))
	ch <- prometheus.MustNewConstMetric(c.intents, prometheus.GaugeValue, float64(c.src.Len()))
}

// Metrics owns a private registry; nothing is registered globally.
type Metrics struct {
	registry        *prometheus.Registry
	plansTotal      *prometheus.CounterVec
	commandsTotal   *prometheus.CounterVec
	commandDuration prometheus.Histogram
	llmRequests     *prometheus.CounterVec
}

// New registers the matcher collector and outcome counters. src may be nil.
func New(src MatcherSource) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		plansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Planned inputs by result kind and plan origin",
		}, []string{"kind", "origin"}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Executed commands by status",
		}, []string{"status"}),
		commandDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Wall time of executed commands",
			Buckets:   prometheus.DefBuckets,
		}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "LLM calls by purpose and status",
		}, []string{"purpose", "status"}),
	}
	m.registry.MustRegister(m.plansTotal, m.commandsTotal, m.commandDuration, m.llmRequests)
	if src != nil {
		m.registry.MustRegister(newMatcherCollector(src))
	}
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordPlan counts one planned input. origin is empty for chat results.
func (m *Metrics) RecordPlan(kind, origin string) {
	if m == nil {
		return
	}
	if origin == "" {
		origin = "none"
	}
	m.plansTotal.WithLabelValues(kind, origin).Inc()
}

// RecordCommand counts one execution attempt and its duration.
// status is one of "ok", "exit_nonzero", "blocked", "error".
func (m *Metrics) RecordCommand(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(status).Inc()
	if d > 0 {
		m.commandDuration.Observe(d.Seconds())
	}
}

// RecordLLM counts one LLM call. purpose is "enhance" or "chat".
func (m *Metrics) RecordLLM(purpose string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.llmRequests.WithLabelValues(purpose, status).Inc()
}

// Snapshot flattens the current values of all single-sample metrics into a
// name→value map; histogram samples report their count.
func (m *Metrics) Snapshot() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			name := f.GetName()
			if labels := metric.GetLabel(); len(labels) > 0 {
				pairs := make([]string, len(labels))
				for i, lp := range labels {
					pairs[i] = lp.GetName() + "=" + lp.GetValue()
				}
				name += "{" + strings.Join(pairs, ",") + "}"
			}
			switch {
			case metric.GetCounter() != nil:
				out[name] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				out[name] = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				out[name+"_count"] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}
