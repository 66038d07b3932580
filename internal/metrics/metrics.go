// Package metrics exposes compile and lookup counters through a private
// Prometheus registry.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/morrowland-code/morrowland77777/internal/corpus"
)

const namespace = "archetypes"

type Metrics struct {
	registry *prometheus.Registry

	linesProcessed   prometheus.Counter
	recordsCompiled  prometheus.Counter
	suspiciousLines  prometheus.Counter
	duplicateKeys    *prometheus.CounterVec
	synthesizedNames prometheus.Counter
	codesMissing     prometheus.Gauge
	codesExtra       prometheus.Gauge
	fallbackUsed     prometheus.Gauge
	compileDuration  prometheus.Histogram

	lookups *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		linesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compile",
			Name:      "lines_total",
			Help:      "Corpus lines read by the segmenter",
		}),
		recordsCompiled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compile",
			Name:      "records_total",
			Help:      "Archetype records flushed by the segmenter",
		}),
		suspiciousLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compile",
			Name:      "suspicious_lines_total",
			Help:      "Lines that look like a trait header but fail recognition",
		}),
		duplicateKeys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compile",
			Name:      "duplicate_keys_total",
			Help:      "Keys replaced by a later record (last write wins)",
		}, []string{"table"}),
		synthesizedNames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compile",
			Name:      "synthesized_names_total",
			Help:      "Records that got a placeholder name because no archetype line followed the header",
		}),
		codesMissing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "missing_codes",
			Help:      "Canonical codes absent from the compiled corpus",
		}),
		codesExtra: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "extra_codes",
			Help:      "Discovered codes outside the canonical domain",
		}),
		fallbackUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "compile",
			Name:      "fallback_used",
			Help:      "1 when the hard-coded fallback entry was installed",
		}),
		compileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "compile",
			Name:      "duration_seconds",
			Help:      "Wall time of one compile pass",
			Buckets:   prometheus.DefBuckets,
		}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lookup",
			Name:      "requests_total",
			Help:      "Lookups by resolution (full, partial, miss)",
		}, []string{"resolution"}),
	}

	m.registry.MustRegister(
		m.linesProcessed,
		m.recordsCompiled,
		m.suspiciousLines,
		m.duplicateKeys,
		m.synthesizedNames,
		m.codesMissing,
		m.codesExtra,
		m.fallbackUsed,
		m.compileDuration,
		m.lookups,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCompile records one compile pass and its audit.
func (m *Metrics) ObserveCompile(stats corpus.Stats, report corpus.AuditReport, seconds float64) {
	m.linesProcessed.Add(float64(stats.Lines))
	m.recordsCompiled.Add(float64(stats.Records))
	m.suspiciousLines.Add(float64(stats.Suspicious))
	m.duplicateKeys.WithLabelValues("code").Add(float64(stats.DuplicateCodes))
	m.duplicateKeys.WithLabelValues("name").Add(float64(stats.DuplicateNames))
	m.synthesizedNames.Add(float64(stats.SynthesizedNames))
	m.codesMissing.Set(float64(report.MissingCount()))
	m.codesExtra.Set(float64(report.ExtraCount()))
	if stats.UsedFallback {
		m.fallbackUsed.Set(1)
	} else {
		m.fallbackUsed.Set(0)
	}
	m.compileDuration.Observe(seconds)
}

func (m *Metrics) ObserveLookup(res corpus.Resolution) {
	m.lookups.WithLabelValues(string(res)).Inc()
}

// LookupCounts returns the lookup counters keyed by resolution.
func (m *Metrics) LookupCounts() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	counts := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != namespace+"_lookup_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "resolution" {
					counts[label.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	return counts, nil
}

// WriteTextfile writes every metric in the Prometheus text format, for the
// node exporter textfile collector after batch runs.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
