package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestNewCamera(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantFPS   int
		wantWidth int
	}{
		{
			name:      "zero options take defaults",
			opts:      Options{},
			wantFPS:   DefaultFPS,
			wantWidth: DefaultWidth,
		},
		{
			name:      "device 1 at 320 wide",
			opts:      Options{DeviceID: 1, Width: 320, Height: 240},
			wantFPS:   DefaultFPS,
			wantWidth: 320,
		},
		{
			name:      "explicit fps",
			opts:      Options{FPS: 30},
			wantFPS:   30,
			wantWidth: DefaultWidth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.opts)

			if cam == nil {
				t.Fatal("NewCamera returned nil")
			}
			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
			if w, _ := cam.Size(); w != tt.wantWidth {
				t.Errorf("Size() width = %d, want %d", w, tt.wantWidth)
			}
			if cam.IsOpen() {
				t.Error("camera should not be running initially")
			}
		})
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(DefaultOptions())

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{
			name:    "set to 10",
			fps:     10,
			wantFPS: 10,
		},
		{
			name:    "set to 1",
			fps:     1,
			wantFPS: 1,
		},
		{
			name:    "set to 0 should keep previous",
			fps:     0,
			wantFPS: 1,
		},
		{
			name:    "set to negative should keep previous",
			fps:     -5,
			wantFPS: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)

			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
		})
	}
}

func TestCamera_Read_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultOptions())

	dst := gocv.NewMat()
	defer dst.Close()

	if err := cam.Read(&dst); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("Read() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestCamera_Close_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultOptions())

	if err := cam.Close(); err != nil {
		t.Errorf("Close() on not opened camera should return nil, got: %v", err)
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(DefaultOptions())

	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	if !cam.IsOpen() {
		t.Error("IsOpen() should return true after Open()")
	}

	dst := gocv.NewMat()
	defer dst.Close()

	if err := cam.Read(&dst); err != nil {
		t.Errorf("Read() failed: %v", err)
	} else if w, h := cam.Size(); dst.Cols() != w || dst.Rows() != h {
		t.Logf("frame is %dx%d, camera reports %dx%d", dst.Cols(), dst.Rows(), w, h)
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}
