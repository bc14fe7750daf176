package tracking

import (
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/headnod/internal/detector"
)

// MockEngine is a test FlowEngine. Select lays out a grid of points in the
// mask's foreground; Track moves every valid point by a scripted offset.
type MockEngine struct {
	mu sync.Mutex

	// Count is the number of points Select tries to produce.
	Count int
	// Motion returns the offset applied on the n-th Track call (from 1).
	Motion func(n int) (dx, dy float64)
	// Lose returns how many valid points are dropped on the n-th Track call.
	Lose func(n int) int
	// Err returns the tracking error reported for point i on the n-th Track
	// call. Nil reports zero.
	Err func(n, i int) float32

	selects int
	tracks  int
}

// NewMockEngine creates a MockEngine producing count points.
func NewMockEngine(count int) *MockEngine {
	return &MockEngine{Count: count}
}

// Select fills dst with up to min(Count, p.MaxCount) grid points.
func (m *MockEngine) Select(img *gocv.Mat, mask *detector.Mask, p SelectParams, dst *FeatureSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.selects++
	dst.Reset()

	n := m.Count
	if p.MaxCount < n {
		n = p.MaxCount
	}
	if mask == nil || !mask.HasForeground() || n <= 0 {
		return nil
	}

	fg := mask.Foreground()
	side := int(math.Ceil(math.Sqrt(float64(n))))
	stepX := float64(fg.Dx()) / float64(side+1)
	stepY := float64(fg.Dy()) / float64(side+1)

	for i := 0; i < n; i++ {
		row, col := i/side, i%side
		dst.Append(Point{
			X: float64(fg.Min.X) + stepX*float64(col+1),
			Y: float64(fg.Min.Y) + stepY*float64(row+1),
		}, true, 0)
	}
	return nil
}

// Track shifts the valid points of src and drops the scripted number.
func (m *MockEngine) Track(prev, curr *gocv.Mat, src, dst *FeatureSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tracks++
	dst.CopyFrom(src)

	var dx, dy float64
	if m.Motion != nil {
		dx, dy = m.Motion(m.tracks)
	}
	lose := 0
	if m.Lose != nil {
		lose = m.Lose(m.tracks)
	}

	for i := range dst.Points {
		if !dst.Status[i] {
			continue
		}
		if lose > 0 {
			dst.Status[i] = false
			lose--
			continue
		}
		dst.Points[i].X += dx
		dst.Points[i].Y += dy
		dst.Errors[i] = 0
		if m.Err != nil {
			dst.Errors[i] = m.Err(m.tracks, i)
		}
	}
	return nil
}

// SelectCalls returns how many times Select has run.
func (m *MockEngine) SelectCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selects
}

// TrackCalls returns how many times Track has run.
func (m *MockEngine) TrackCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracks
}
