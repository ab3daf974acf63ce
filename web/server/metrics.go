package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// segmentMetrics bundles the Prometheus metrics for segment extraction
type segmentMetrics struct {
	gatherer prometheus.Gatherer

	Extractions      *prometheus.CounterVec
	WindowLength     prometheus.Histogram
	MissionWaypoints prometheus.Gauge
}

// newSegmentMetrics registers the metrics against reg, defaulting to the
// global registry when nil
func newSegmentMetrics(reg prometheus.Registerer) (*segmentMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	extractions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "segment_extractions_total",
		Help: "Total number of mission command segment extractions, labeled by result.",
	}, []string{"result"}), "segment_extractions_total")
	if err != nil {
		return nil, err
	}

	windowLength, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "segment_window_length",
		Help:    "Requested mission command segment window lengths.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}), "segment_window_length")
	if err != nil {
		return nil, err
	}

	missionWaypoints, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mission_waypoints",
		Help: "Number of waypoints in the loaded mission command.",
	}), "mission_waypoints")
	if err != nil {
		return nil, err
	}

	return &segmentMetrics{
		gatherer:         gatherer,
		Extractions:      extractions,
		WindowLength:     windowLength,
		MissionWaypoints: missionWaypoints,
	}, nil
}

// Handler exposes the registered metrics over HTTP
func (m *segmentMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
