package metrics

import (
	"time"

	"clip-relay/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current watch folder statistics
type Stats struct {
	PendingClips     int
	PendingSnapshots int
	ProcessedEntries int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	WatchFolderPending.WithLabelValues("clip").Set(float64(stats.PendingClips))
	WatchFolderPending.WithLabelValues("snapshot").Set(float64(stats.PendingSnapshots))
	ProcessedRecordEntries.Set(float64(stats.ProcessedEntries))

	logging.Debug("Metrics collected: pending clips=%d, pending snapshots=%d, processed=%d",
		stats.PendingClips, stats.PendingSnapshots, stats.ProcessedEntries)
}
