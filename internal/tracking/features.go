// Package tracking follows corner features across frames with sparse
// optical flow and reports their centroid.
package tracking

// Point is a sub-pixel image position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FeatureSet holds tracked points with a per-point status and error.
// The three slices always have the same length.
type FeatureSet struct {
	Points []Point
	Status []bool
	Errors []float32
}

// NewFeatureSet creates an empty set with room for capacity points.
func NewFeatureSet(capacity int) *FeatureSet {
	return &FeatureSet{
		Points: make([]Point, 0, capacity),
		Status: make([]bool, 0, capacity),
		Errors: make([]float32, 0, capacity),
	}
}

// Len returns the number of points, valid or not.
func (s *FeatureSet) Len() int {
	return len(s.Points)
}

// Reset empties the set while keeping its storage.
func (s *FeatureSet) Reset() {
	s.Points = s.Points[:0]
	s.Status = s.Status[:0]
	s.Errors = s.Errors[:0]
}

// Append adds one point.
func (s *FeatureSet) Append(p Point, ok bool, err float32) {
	s.Points = append(s.Points, p)
	s.Status = append(s.Status, ok)
	s.Errors = append(s.Errors, err)
}

// Valid reports whether point i was tracked with an error at or below
// maxErr.
func (s *FeatureSet) Valid(i int, maxErr float32) bool {
	return s.Status[i] && s.Errors[i] <= maxErr
}

// ValidCount returns how many points are valid.
func (s *FeatureSet) ValidCount(maxErr float32) int {
	n := 0
	for i := range s.Points {
		if s.Valid(i, maxErr) {
			n++
		}
	}
	return n
}

// AppendValid appends the valid points to dst and returns it.
func (s *FeatureSet) AppendValid(dst []Point, maxErr float32) []Point {
	for i, p := range s.Points {
		if s.Valid(i, maxErr) {
			dst = append(dst, p)
		}
	}
	return dst
}

// CopyFrom replaces the contents of s with those of src.
func (s *FeatureSet) CopyFrom(src *FeatureSet) {
	s.Points = append(s.Points[:0], src.Points...)
	s.Status = append(s.Status[:0], src.Status...)
	s.Errors = append(s.Errors[:0], src.Errors...)
}
