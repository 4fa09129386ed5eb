package metrics

import "github.com/raftkit/snapshot/pkg/stats"


//=========================================== Replication Metrics


/*
	NewReplicationMetrics binds the process-wide metric vectors to a single partition label,
	so every partition's controller gets its own counters without re-registering collectors
*/

func NewReplicationMetrics(partition string) *ReplicationMetrics {
	return &ReplicationMetrics{
		partition: partition,
		inFlight: inFlightVec.WithLabelValues(partition),
		duration: durationVec.WithLabelValues(partition),
		diskAvailable: diskAvailableVec.WithLabelValues(partition),
	}
}

func (m *ReplicationMetrics) IncrementInFlight() {
	m.inFlight.Inc()
}

func (m *ReplicationMetrics) DecrementInFlight() {
	m.inFlight.Dec()
}

func (m *ReplicationMetrics) ObserveDurationMillis(elapsedMillis float64) {
	m.duration.Observe(elapsedMillis)
}

func (m *ReplicationMetrics) SetDiskAvailableBytes(bytes float64) {
	m.diskAvailable.Set(bytes)
}

/*
	RefreshDiskStats samples the filesystem backing the snapshot store's root directory and
	publishes it to the disk-available gauge. Called on a timer owned by whoever drives this
	partition's Controller, not on every install, since disk stats change slowly relative to
	chunk traffic
*/

func (m *ReplicationMetrics) RefreshDiskStats(storeRoot string) error {
	current, statErr := stats.CalculateCurrentStats(storeRoot)
	if statErr != nil { return statErr }

	m.SetDiskAvailableBytes(float64(current.AvailableDiskSpaceInBytes))
	return nil
}
