package core

import (
	"sync"
	"time"
)

const AVG_COUNT uint8 = 30

// ImportMetrics keeps a rolling average of the last AVG_COUNT import durations.
type ImportMetrics struct {
	mutex      sync.Mutex
	avgCounter uint8
	samples    [AVG_COUNT]time.Duration
	filled     uint8
	imports    uint64
	failures   uint64
}

func NewImportMetrics() *ImportMetrics {
	return &ImportMetrics{}
}

// Record adds one import outcome.
func (m *ImportMetrics) Record(elapsed time.Duration, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.imports++
	if err != nil {
		m.failures++
		return
	}
	m.samples[m.avgCounter] = elapsed
	m.avgCounter = (m.avgCounter + 1) % AVG_COUNT
	if m.filled < AVG_COUNT {
		m.filled++
	}
}

// Average is the mean duration of the recent successful imports.
func (m *ImportMetrics) Average() time.Duration {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.filled == 0 {
		return 0
	}
	var total time.Duration
	for i := uint8(0); i < m.filled; i++ {
		total += m.samples[i]
	}
	return total / time.Duration(m.filled)
}

// Counts returns the number of imports attempted and how many failed.
func (m *ImportMetrics) Counts() (imports uint64, failures uint64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.imports, m.failures
}
