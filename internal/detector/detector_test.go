package detector

import (
	"errors"
	"image"
	"testing"

	"gocv.io/x/gocv"
)

func mustRegion(t *testing.T, x, y, w, h int) Region {
	t.Helper()
	r, err := NewRegion(x, y, w, h)
	if err != nil {
		t.Fatalf("NewRegion(%d, %d, %d, %d): %v", x, y, w, h, err)
	}
	return r
}

func TestNewRegion(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wantErr bool
	}{
		{"positive size", 10, 20, false},
		{"zero width", 0, 20, true},
		{"zero height", 10, 0, true},
		{"negative width", -5, 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegion(1, 2, tt.w, tt.h)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRegion) {
					t.Errorf("expected ErrInvalidRegion, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRegion_Geometry(t *testing.T) {
	r := mustRegion(t, 100, 50, 120, 80)

	if got := r.Max(); got != image.Pt(220, 130) {
		t.Errorf("Max() = %v, want (220,130)", got)
	}
	cx, cy := r.Center()
	if cx != 160 || cy != 90 {
		t.Errorf("Center() = (%v, %v), want (160, 90)", cx, cy)
	}
	if r.ShorterSide() != 80 {
		t.Errorf("ShorterSide() = %d, want 80", r.ShorterSide())
	}

	inset, ok := r.Inset(10)
	if !ok {
		t.Fatal("expected non-empty inset")
	}
	if inset != image.Rect(110, 60, 210, 120) {
		t.Errorf("Inset(10) = %v", inset)
	}

	if _, ok := r.Inset(40); ok {
		t.Error("expected inset of half the shorter side to be empty")
	}

	back, err := RegionFromRect(r.Rect())
	if err != nil || back != r {
		t.Errorf("RegionFromRect(Rect()) = %v, %v", back, err)
	}
}

func TestNewBounds(t *testing.T) {
	t.Run("landscape frame uses height", func(t *testing.T) {
		b, err := NewBounds(640, 480, DefaultConfig())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if b.Face.MinSize != 120 || b.Face.MaxSize != 480 {
			t.Errorf("face bounds = [%d, %d], want [120, 480]", b.Face.MinSize, b.Face.MaxSize)
		}
		if b.Eyes.MinSize != 60 || b.Eyes.MaxSize != 240 {
			t.Errorf("eye bounds = [%d, %d], want [60, 240]", b.Eyes.MinSize, b.Eyes.MaxSize)
		}
		if b.Mouth.MinSize != 30 || b.Mouth.MaxSize != 384 {
			t.Errorf("mouth bounds = [%d, %d], want [30, 384]", b.Mouth.MinSize, b.Mouth.MaxSize)
		}
		if b.Face.ScaleFactor != 1.2 || b.Face.MinNeighbors != 3 {
			t.Errorf("unexpected detection params: %+v", b.Face)
		}
	})

	t.Run("portrait frame uses width", func(t *testing.T) {
		b, err := NewBounds(480, 640, DefaultConfig())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Face.MinSize != 120 {
			t.Errorf("face min = %d, want 120", b.Face.MinSize)
		}
	})

	t.Run("rejects empty frame", func(t *testing.T) {
		_, err := NewBounds(0, 480, DefaultConfig())
		if !errors.Is(err, ErrInvalidFrameSize) {
			t.Errorf("expected ErrInvalidFrameSize, got %v", err)
		}
	})
}

func TestAcceptEye(t *testing.T) {
	face := mustRegion(t, 100, 100, 200, 200)

	tests := []struct {
		name string
		minY int
		want bool
	}{
		{"near top of face", 100 + 20, true},    // +0.1w
		{"at middle of face", 100 + 100, false}, // +0.5w
		{"exactly at band edge", 100 + 60, false},
		{"just above band edge", 100 + 59, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eye := mustRegion(t, 150, tt.minY, 30, 20)
			if got := AcceptEye(face, eye); got != tt.want {
				t.Errorf("AcceptEye(minY=%d) = %v, want %v", tt.minY, got, tt.want)
			}
		})
	}
}

func TestAcceptMouth(t *testing.T) {
	face := mustRegion(t, 100, 100, 120, 120)

	tests := []struct {
		name   string
		cx, cy int
		want   bool
	}{
		{"centered on face", 160, 160, true},
		{"left tenth of face", 112, 180, false},
		{"bottom edge inclusive", 160, 220, true},
		{"below face", 160, 230, false},
		{"upper half", 160, 140, false},
		{"right third edge inclusive", 180, 200, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mouth := mustRegion(t, tt.cx-10, tt.cy-5, 20, 10)
			if got := AcceptMouth(face, mouth); got != tt.want {
				t.Errorf("AcceptMouth(center=(%d,%d)) = %v, want %v", tt.cx, tt.cy, got, tt.want)
			}
		})
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns nothing by default", func(t *testing.T) {
		mock := NewMockDetector()

		regions, err := mock.Detect(nil, Params{})

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(regions) != 0 {
			t.Errorf("expected no regions, got %v", regions)
		}
	})

	t.Run("queued results are returned before fixed regions", func(t *testing.T) {
		mock := NewMockDetector()
		face := mustRegion(t, 0, 0, 10, 10)
		mock.SetRegions(face)
		mock.Enqueue(nil, []Region{face, face})

		first, _ := mock.Detect(nil, Params{})
		second, _ := mock.Detect(nil, Params{})
		third, _ := mock.Detect(nil, Params{MinSize: 7})

		if len(first) != 0 || len(second) != 2 || len(third) != 1 {
			t.Errorf("unexpected results: %d, %d, %d", len(first), len(second), len(third))
		}
		if mock.Calls() != 3 {
			t.Errorf("expected 3 calls, got %d", mock.Calls())
		}
		if mock.LastParams().MinSize != 7 {
			t.Errorf("expected last params to be recorded")
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		regions, err := mock.Detect(nil, Params{})

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if regions != nil {
			t.Errorf("expected nil regions when error is set, got %v", regions)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*CascadeDetector)(nil)
	})
}

func TestCascadeDetector_MissingModel(t *testing.T) {
	_, err := NewCascadeDetector("/nonexistent/haarcascade_frontalface_alt.xml")
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestRegionDetector(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	face := mustRegion(t, 200, 100, 240, 240)
	eyeHigh := mustRegion(t, 250, 120, 50, 30)
	eyeLow := mustRegion(t, 250, 250, 50, 30)
	mouth := mustRegion(t, 300, 260, 40, 20)

	newDetector := func(t *testing.T) (*RegionDetector, *MockDetector, *MockDetector, *MockDetector) {
		t.Helper()
		faces, eyes, mouths := NewMockDetector(), NewMockDetector(), NewMockDetector()
		rd, err := NewRegionDetector(faces, eyes, mouths, 640, 480, DefaultConfig())
		if err != nil {
			t.Fatalf("NewRegionDetector: %v", err)
		}
		t.Cleanup(func() { rd.Close() })
		return rd, faces, eyes, mouths
	}

	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC1)
	defer img.Close()

	t.Run("requires face detector", func(t *testing.T) {
		_, err := NewRegionDetector(nil, nil, nil, 640, 480, DefaultConfig())
		if !errors.Is(err, ErrNoFaceDetector) {
			t.Errorf("expected ErrNoFaceDetector, got %v", err)
		}
	})

	t.Run("uses first face and gates sub-regions", func(t *testing.T) {
		rd, faces, eyes, mouths := newDetector(t)
		other := mustRegion(t, 0, 0, 150, 150)
		faces.SetRegions(face, other)
		eyes.SetRegions(eyeHigh, eyeLow)
		mouths.SetRegions(mouth)

		det, err := rd.Detect(&img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !det.HasFace() || *det.Face != face {
			t.Fatalf("expected first face candidate, got %v", det.Face)
		}
		if len(det.Eyes) != 1 || det.Eyes[0] != eyeHigh {
			t.Errorf("expected only the upper eye, got %v", det.Eyes)
		}
		if len(det.Mouth) != 1 {
			t.Errorf("expected mouth to be accepted, got %v", det.Mouth)
		}
		if eyes.LastParams().MaxSize != 240 {
			t.Errorf("eye detector max size = %d, want 240", eyes.LastParams().MaxSize)
		}
	})

	t.Run("regenerates mask from face", func(t *testing.T) {
		rd, faces, _, _ := newDetector(t)
		faces.SetRegions(face)

		if _, err := rd.Detect(&img); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// padding is 15% of 480
		want := image.Rect(272, 172, 368, 268)
		if got := rd.Mask().Foreground(); got != want {
			t.Errorf("mask foreground = %v, want %v", got, want)
		}
		if n := gocv.CountNonZero(*rd.Mask().Mat()); n != want.Dx()*want.Dy() {
			t.Errorf("mask has %d foreground pixels, want %d", n, want.Dx()*want.Dy())
		}
	})

	t.Run("no face leaves mask untouched", func(t *testing.T) {
		rd, faces, eyes, _ := newDetector(t)
		faces.Enqueue([]Region{face}, nil)

		rd.Detect(&img)
		before := rd.Mask().Foreground()

		det, err := rd.Detect(&img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if det.HasFace() {
			t.Error("expected no face")
		}
		if rd.Mask().Foreground() != before {
			t.Error("mask changed on a no-face frame")
		}
		if eyes.Calls() != 1 {
			t.Errorf("eye detector should only run with a face, ran %d times", eyes.Calls())
		}
	})

	t.Run("face detector error is wrapped", func(t *testing.T) {
		rd, faces, _, _ := newDetector(t)
		boom := errors.New("boom")
		faces.SetError(boom)

		_, err := rd.Detect(&img)
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})

	t.Run("small face yields empty mask", func(t *testing.T) {
		rd, faces, _, _ := newDetector(t)
		faces.SetRegions(mustRegion(t, 10, 10, 120, 120))

		if _, err := rd.Detect(&img); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rd.Mask().HasForeground() {
			t.Error("expected no foreground when padding swallows the face")
		}
	})
}

func TestMask(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	m := NewMask(100, 80)
	defer m.Close()

	if m.HasForeground() {
		t.Error("new mask should be empty")
	}

	m.Update(mustRegion(t, 20, 10, 60, 50), 5)

	if !m.Contains(25, 15) {
		t.Error("expected inner corner to be foreground")
	}
	if m.Contains(24.9, 15) || m.Contains(75, 30) {
		t.Error("expected padding to be background")
	}

	m.Reset()
	if m.HasForeground() || gocv.CountNonZero(*m.Mat()) != 0 {
		t.Error("Reset should clear the mask")
	}
}
