package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ScansTotal counts processed tag scans by outcome: recorded,
// not_registered, day_not_configured, not_scheduled, duplicate, error.
var ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "presensi_scans_total",
	Help: "Tag scans processed, labeled by outcome.",
}, []string{"outcome"})

// Observers tracks currently connected live-stream observers.
var Observers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "presensi_observers",
	Help: "Currently connected attendance stream observers.",
})
