package pool

import (
	"sync"
	"time"
)

// Monitor thresholds and window sizing. The monitor is a pure observer: it
// samples the stats snapshot on its own timer and never mutates pool state.
const (
	monitorWindow      = 100
	highUtilizationPct = 80.0
	slowAcquisitionMs  = 1000.0
	highErrorRatePct   = 5.0
)

// Sample is one point-in-time stats snapshot retained by the monitor.
type Sample struct {
	TakenAt time.Time `json:"taken_at"`
	Stats   Stats     `json:"stats"`
}

// Report aggregates the monitor's rolling window into utilization insights
// and threshold-driven recommendations.
type Report struct {
	Samples              int      `json:"samples"`
	AvgUtilizationPct    float64  `json:"avg_utilization_percent"`
	PeakUtilizationPct   float64  `json:"peak_utilization_percent"`
	AvgAcquisitionTimeMs float64  `json:"avg_acquisition_time_ms"`
	ErrorRatePct         float64  `json:"error_rate_percent"`
	Recommendations      []string `json:"recommendations"`
}

// Monitor retains a bounded rolling window of stats samples for a single
// pool.
type Monitor struct {
	pool *Pool

	mu      sync.Mutex
	samples []Sample
}

func newMonitor(p *Pool) *Monitor {
	return &Monitor{
		pool:    p,
		samples: make([]Sample, 0, monitorWindow),
	}
}

// loop samples the pool on a fixed interval until the pool is destroyed.
func (m *Monitor) loop(interval time.Duration, done <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.Sample()
		}
	}
}

// Sample takes one stats snapshot and folds it into the rolling window,
// evicting the oldest sample once the window is full.
func (m *Monitor) Sample() {
	sample := Sample{TakenAt: time.Now(), Stats: m.pool.Stats()}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, sample)
	if len(m.samples) > monitorWindow {
		m.samples = m.samples[1:]
	}
}

// Window returns a copy of the current sample window, oldest first.
func (m *Monitor) Window() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	window := make([]Sample, len(m.samples))
	copy(window, m.samples)
	return window
}

// Report computes aggregate insights over the current window. With no samples
// yet it returns an empty report.
func (m *Monitor) Report() Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := Report{
		Samples:         len(m.samples),
		Recommendations: []string{},
	}
	if len(m.samples) == 0 {
		return report
	}

	var utilSum, acquireSum float64
	for _, s := range m.samples {
		utilSum += s.Stats.UtilizationPct
		acquireSum += s.Stats.AcquisitionTimeMs
		if s.Stats.UtilizationPct > report.PeakUtilizationPct {
			report.PeakUtilizationPct = s.Stats.UtilizationPct
		}
	}
	report.AvgUtilizationPct = utilSum / float64(len(m.samples))
	report.AvgAcquisitionTimeMs = acquireSum / float64(len(m.samples))
	report.ErrorRatePct = m.samples[len(m.samples)-1].Stats.ErrorRatePct

	if report.AvgUtilizationPct > highUtilizationPct {
		report.Recommendations = append(report.Recommendations,
			"pool utilization consistently high: consider raising MaxConnections")
	}
	if report.AvgAcquisitionTimeMs > slowAcquisitionMs {
		report.Recommendations = append(report.Recommendations,
			"resource acquisition is slow: callers queue too long, consider raising MaxConnections")
	}
	if report.ErrorRatePct > highErrorRatePct {
		report.Recommendations = append(report.Recommendations,
			"error rate is elevated: check backend health and factory configuration")
	}
	return report
}
