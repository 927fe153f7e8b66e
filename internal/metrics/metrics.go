// Package metrics exports reconcile results for the node_exporter textfile
// collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Snapshot is the state observed by one command run.
type Snapshot struct {
	Host        string
	Command     string
	DesiredRepo int
	DesiredAUR  int
	MissingRepo int
	MissingAUR  int
	Orphaned    int
	At          time.Time
}

// Registry builds a fresh registry holding snap's gauges.
func Registry(snap Snapshot) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"host": snap.Host}

	desired := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   "pkgctl",
			Subsystem:   "packages",
			Name:        "desired",
			Help:        "Packages selected from the manifest for this host.",
			ConstLabels: labels,
		},
		[]string{"source"},
	)
	missing := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   "pkgctl",
			Subsystem:   "packages",
			Name:        "missing",
			Help:        "Desired packages not explicitly installed.",
			ConstLabels: labels,
		},
		[]string{"source"},
	)
	orphaned := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "pkgctl",
		Subsystem:   "packages",
		Name:        "orphaned",
		Help:        "Orphaned packages absent from the manifest.",
		ConstLabels: labels,
	})
	lastRun := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   "pkgctl",
			Name:        "last_run_timestamp_seconds",
			Help:        "Unix time of the last pkgctl run.",
			ConstLabels: labels,
		},
		[]string{"command"},
	)

	for _, c := range []prometheus.Collector{desired, missing, orphaned, lastRun} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	desired.WithLabelValues("repo").Set(float64(snap.DesiredRepo))
	desired.WithLabelValues("aur").Set(float64(snap.DesiredAUR))
	missing.WithLabelValues("repo").Set(float64(snap.MissingRepo))
	missing.WithLabelValues("aur").Set(float64(snap.MissingAUR))
	orphaned.Set(float64(snap.Orphaned))
	lastRun.WithLabelValues(snap.Command).Set(float64(snap.At.Unix()))
	return reg, nil
}

// WriteTextfile atomically replaces path with snap in text exposition format.
func WriteTextfile(path string, snap Snapshot) error {
	reg, err := Registry(snap)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics textfile (%s): %w", path, err)
	}
	return nil
}
