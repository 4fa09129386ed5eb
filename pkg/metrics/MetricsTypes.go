package metrics

import "github.com/prometheus/client_golang/prometheus"


//=========================================== Metrics Types


/*
	ReplicationMetrics is the per-partition metrics surface for snapshot installation:
	a gauge tracking in-flight installs and a histogram of commit durations. duration is typed
	as the narrower prometheus.Observer, the interface WithLabelValues on a HistogramVec
	actually returns, rather than prometheus.Histogram
*/

type ReplicationMetrics struct {
	partition string
	inFlight prometheus.Gauge
	duration prometheus.Observer
	diskAvailable prometheus.Gauge
}

var (
	inFlightVec = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snapshot_replication_in_flight",
			Help: "number of snapshot installs currently in flight on this partition",
		},
		[]string{ "partition" },
	)

	durationVec = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "snapshot_replication_duration_ms",
			Help: "elapsed time, in milliseconds, of a snapshot install from first chunk to commit",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12),
		},
		[]string{ "partition" },
	)

	diskAvailableVec = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snapshot_store_disk_available_bytes",
			Help: "available disk space, in bytes, on the filesystem backing the snapshot store",
		},
		[]string{ "partition" },
	)
)

func init() {
	prometheus.MustRegister(inFlightVec, durationVec, diskAvailableVec)
}
