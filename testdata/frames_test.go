package testdata

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestOffsets_Shake(t *testing.T) {
	offsets := Shake()
	require.Len(t, offsets, 30)

	assert.Equal(t, image.Pt(0, 0), offsets[0])
	assert.Equal(t, image.Pt(40, 0), offsets[8], "frame 9 is the first turn")
	assert.Equal(t, image.Pt(0, 0), offsets[16], "frame 17 is the second turn")
	assert.Equal(t, image.Pt(45, 0), offsets[25], "frame 26 is the third turn")
	assert.Equal(t, image.Pt(25, 0), offsets[29])

	for _, off := range offsets {
		assert.Zero(t, off.Y)
	}
}

func TestOffsets_Nod(t *testing.T) {
	shake, nod := Shake(), Nod()
	for i := range shake {
		assert.Equal(t, image.Pt(shake[i].Y, shake[i].X), nod[i])
	}
}

func TestSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	patch := Texture(64, 1)
	defer patch.Close()
	assert.Equal(t, 64, patch.Rows())

	again := Texture(64, 1)
	defer again.Close()
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(patch, again, &diff)
	assert.Zero(t, gocv.CountNonZero(diff), "same seed, same texture")

	frames, err := Sequence(320, 240, patch, image.Pt(100, 80), Shake())
	require.NoError(t, err)
	defer CloseAll(frames)

	require.Len(t, frames, 30)
	assert.Equal(t, 3, frames[0].Channels())
	assert.Equal(t, 320, frames[0].Cols())
	assert.Equal(t, 240, frames[0].Rows())

	_, err = Sequence(320, 240, patch, image.Pt(300, 80), Shake())
	assert.Error(t, err)
}
