package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter serves registered metrics on Path.
type PrometheusExporter struct {
	Path     string // e.g., "/metrics"
	Listen   string // e.g., ":2550"
	Gatherer prometheus.Gatherer
}

// Start blocks serving the metrics endpoint.
func (e *PrometheusExporter) Start() error {
	gatherer := e.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle(e.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return http.ListenAndServe(e.Listen, mux)
}

// MetricExporter turns the gateway's conversion counters into metrics.
type MetricExporter struct {
	desc    map[string]*prometheus.Desc
	gateway *Gateway
}

func NewMetricExporter(id string, gateway *Gateway) *MetricExporter {
	constLabels := prometheus.Labels{"instance_id": id}
	metricDesc := map[string]*prometheus.Desc{
		"conversions":   prometheus.NewDesc("insim_text_conversions_total", "Completed text conversions", []string{"op"}, constLabels),
		"errors":        prometheus.NewDesc("insim_text_errors_total", "Rejected text conversions", []string{"op"}, constLabels),
		"fallbacks":     prometheus.NewDesc("insim_text_fallbacks_total", "Code page switches inserted by the encoder", nil, constLabels),
		"unmapped":      prometheus.NewDesc("insim_text_unmapped_total", "Characters no code page could represent", nil, constLabels),
		"truncations":   prometheus.NewDesc("insim_text_truncations_total", "Encodes cut short by the field size", nil, constLabels),
		"server_status": prometheus.NewDesc("server_status", "General OK status of the server", []string{"service"}, constLabels),
	}

	return &MetricExporter{
		desc:    metricDesc,
		gateway: gateway,
	}
}

// Describe sends all metric descriptions to the Prometheus channel.
func (e *MetricExporter) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range e.desc {
		ch <- desc
	}
}

// Collect reads the counters at scrape time.
func (e *MetricExporter) Collect(ch chan<- prometheus.Metric) {
	e.collectConversions(ch)
	e.collectCodecEvents(ch)
	e.collectServerStatus(ch)
}

func (e *MetricExporter) collectConversions(ch chan<- prometheus.Metric) {
	s := e.gateway.Stats

	ch <- prometheus.MustNewConstMetric(e.desc["conversions"], prometheus.CounterValue, float64(s.Encodes.Load()), TextJobOp.Encode)
	ch <- prometheus.MustNewConstMetric(e.desc["conversions"], prometheus.CounterValue, float64(s.Decodes.Load()), TextJobOp.Decode)
	ch <- prometheus.MustNewConstMetric(e.desc["conversions"], prometheus.CounterValue, float64(s.Splits.Load()), TextJobOp.Split)

	ch <- prometheus.MustNewConstMetric(e.desc["errors"], prometheus.CounterValue, float64(s.EncodeErrors.Load()), TextJobOp.Encode)
	ch <- prometheus.MustNewConstMetric(e.desc["errors"], prometheus.CounterValue, float64(s.DecodeErrors.Load()), TextJobOp.Decode)
	ch <- prometheus.MustNewConstMetric(e.desc["errors"], prometheus.CounterValue, float64(s.SplitErrors.Load()), TextJobOp.Split)
}

func (e *MetricExporter) collectCodecEvents(ch chan<- prometheus.Metric) {
	s := e.gateway.Stats

	ch <- prometheus.MustNewConstMetric(e.desc["fallbacks"], prometheus.CounterValue, float64(s.Fallbacks.Load()))
	ch <- prometheus.MustNewConstMetric(e.desc["unmapped"], prometheus.CounterValue, float64(s.Unmapped.Load()))
	ch <- prometheus.MustNewConstMetric(e.desc["truncations"], prometheus.CounterValue, float64(s.Truncations.Load()))
}

// collectServerStatus reports 1 for a healthy service. The AMQP worker is
// only reported when it is configured.
func (e *MetricExporter) collectServerStatus(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(e.desc["server_status"], prometheus.GaugeValue, 1, "web")

	if e.gateway.AMPQClient != nil {
		status := 0.0
		if e.gateway.AMPQClient.Ready() {
			status = 1
		}
		ch <- prometheus.MustNewConstMetric(e.desc["server_status"], prometheus.GaugeValue, status, "amqp")
	}
}
