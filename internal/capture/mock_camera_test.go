package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	dst := gocv.NewMat()
	defer dst.Close()

	if err := cam.Read(&dst); !errors.Is(err, ErrCameraNotOpen) {
		t.Fatalf("Read() before Open error = %v, want ErrCameraNotOpen", err)
	}

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		if err := cam.Read(&dst); err != nil {
			t.Fatalf("Read() %d error = %v", i, err)
		}
		if dst.Cols() != 640 || dst.Rows() != 480 {
			t.Errorf("frame %d is %dx%d", i, dst.Cols(), dst.Rows())
		}
	}

	// Third read should fail (no loop)
	if err := cam.Read(&dst); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Read() after last frame error = %v, want ErrNoFrame", err)
	}
	if got := cam.Reads(); got != 2 {
		t.Errorf("Reads() = %d, want 2", got)
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	for i := 0; i < 5; i++ {
		if err := cam.Read(&dst); err != nil {
			t.Fatalf("Read() iteration %d error = %v", i, err)
		}
	}
}

func TestMockCamera_SizeAndFPS(t *testing.T) {
	frame := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC1)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	if w, h := cam.Size(); w != 320 || h != 240 {
		t.Errorf("Size() = %dx%d, want 320x240", w, h)
	}

	if got := cam.FPS(); got != DefaultFPS {
		t.Errorf("FPS() = %d, want %d", got, DefaultFPS)
	}
	cam.SetFPS(ActiveFPS)
	cam.SetFPS(0)
	cam.SetFPS(IdleFPS)

	changes := cam.FPSChanges()
	if len(changes) != 2 || changes[0] != ActiveFPS || changes[1] != IdleFPS {
		t.Errorf("FPSChanges() = %v, want [%d %d]", changes, ActiveFPS, IdleFPS)
	}

	empty := NewMockCamera(nil, false)
	if w, h := empty.Size(); w != DefaultWidth || h != DefaultHeight {
		t.Errorf("empty Size() = %dx%d, want defaults", w, h)
	}
}
