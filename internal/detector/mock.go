package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results frame by frame.
type MockDetector struct {
	mu      sync.Mutex
	regions []Region
	queue   [][]Region
	err     error
	calls   int
	last    Params
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetRegions sets the regions returned by every Detect call once the queue
// is drained.
func (m *MockDetector) SetRegions(regions ...Region) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regions = regions
}

// Enqueue schedules results for the next Detect calls, one slice per call.
// A nil entry means nothing was found on that call.
func (m *MockDetector) Enqueue(results ...[]Region) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, results...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastParams returns the params passed to the most recent Detect call.
func (m *MockDetector) LastParams() Params {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Detect returns the next queued result, the fixed regions, or the error.
func (m *MockDetector) Detect(img *gocv.Mat, p Params) ([]Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.last = p

	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.regions, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
