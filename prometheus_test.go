package main

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricExporter(t *testing.T) {
	gateway := newTestGateway()
	_, err := gateway.EncodeText(EncodeRequest{Text: "ЖЖ😀", Size: 4})
	require.NoError(t, err)
	_, err = gateway.DecodeText(DecodeRequest{Hex: "zz"})
	require.Error(t, err)

	exporter := NewMetricExporter("test", gateway)

	// conversions and errors per op, three codec counters, web status
	assert.Equal(t, 10, testutil.CollectAndCount(exporter))
	assert.Equal(t, 3, testutil.CollectAndCount(exporter, "insim_text_conversions_total"))

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(exporter))

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			label := ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "op" || lp.GetName() == "service" {
					label = "/" + lp.GetValue()
				}
			}
			if c := m.GetCounter(); c != nil {
				values[mf.GetName()+label] = c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				values[mf.GetName()+label] = g.GetValue()
			}
		}
	}

	assert.Equal(t, 1.0, values["insim_text_conversions_total/encode"])
	assert.Equal(t, 0.0, values["insim_text_conversions_total/decode"])
	assert.Equal(t, 1.0, values["insim_text_errors_total/decode"])
	assert.Equal(t, 1.0, values["insim_text_fallbacks_total"])
	assert.Equal(t, 1.0, values["insim_text_truncations_total"])
	assert.Equal(t, 0.0, values["insim_text_unmapped_total"])
	assert.Equal(t, 1.0, values["server_status/web"])
}
