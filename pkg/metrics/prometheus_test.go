package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderGauges(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordDensity(0.125)
	r.RecordRegime(0)
	r.RecordExtreme("SHY", true)
	r.RecordBar("QQQ")
	r.RecordBar("QQQ")
	r.RecordTrade("TLT", "buy")

	assert.Equal(t, 0.125, testutil.ToFloat64(r.stressDensity))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.regimeFlag))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.extremeFlags.WithLabelValues("SHY")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.barsTotal.WithLabelValues("QQQ")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.tradesTotal.WithLabelValues("TLT", "buy")))
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewWithRegistry(prometheus.NewRegistry())
		NewWithRegistry(prometheus.NewRegistry())
	})
}
