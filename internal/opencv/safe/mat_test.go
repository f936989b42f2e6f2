package safe

import (
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type recordingTracker struct {
	mu        sync.Mutex
	allocated map[uint64]int64
	released  []uint64
}

func (r *recordingTracker) TrackAllocation(id uint64, size int64, tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.allocated == nil {
		r.allocated = make(map[uint64]int64)
	}
	r.allocated[id] = size
}

func (r *recordingTracker) TrackDeallocation(id uint64, tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, id)
}

func TestMat_CloseIsIdempotent(t *testing.T) {
	tracker := &recordingTracker{}
	mat, err := NewMatWithTracker(4, 6, gocv.MatTypeCV8UC3, tracker, "frame")
	require.NoError(t, err)

	assert.Equal(t, int64(4*6*3), tracker.allocated[mat.ID()])
	assert.True(t, mat.IsValid())

	mat.Close()
	mat.Close()

	assert.False(t, mat.IsValid())
	assert.True(t, mat.Empty())
	assert.Equal(t, 0, mat.Rows())
	assert.Equal(t, []uint64{mat.ID()}, tracker.released)
}

func TestMat_InvalidDimensions(t *testing.T) {
	_, err := NewMat(0, 10, gocv.MatTypeCV8UC1)
	assert.Error(t, err)

	_, err = NewMat(10, MaxDimension+1, gocv.MatTypeCV8UC1)
	assert.Error(t, err)
}

func TestMat_CopyRegionTo(t *testing.T) {
	white := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 4, 4, gocv.MatTypeCV8UC3)
	src, err := Adopt(white, nil, "white")
	require.NoError(t, err)
	defer src.Close()

	black := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 4, 4, gocv.MatTypeCV8UC3)
	dst, err := Adopt(black, nil, "black")
	require.NoError(t, err)
	defer dst.Close()

	require.NoError(t, src.CopyRegionTo(dst, image.Rect(0, 0, 2, 4)))

	assert.Equal(t, uint8(255), dst.GetMat().GetUCharAt3(3, 1, 0))
	assert.Equal(t, uint8(0), dst.GetMat().GetUCharAt3(3, 2, 0))

	other, err := NewMat(2, 2, gocv.MatTypeCV8UC3)
	require.NoError(t, err)
	defer other.Close()
	assert.Error(t, src.CopyRegionTo(other, image.Rect(0, 0, 1, 1)))
}

func TestValidatePair(t *testing.T) {
	a, err := NewMat(2, 2, gocv.MatTypeCV8UC3)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewMat(2, 3, gocv.MatTypeCV8UC3)
	require.NoError(t, err)
	defer b.Close()

	assert.NoError(t, ValidatePair(a, a, "self"))
	assert.Error(t, ValidatePair(a, b, "mismatch"))
	assert.Error(t, ValidatePair(nil, a, "nil"))
}

func TestByteSize(t *testing.T) {
	assert.Equal(t, int64(12), ByteSize(2, 2, gocv.MatTypeCV8UC3))
	assert.Equal(t, int64(64), ByteSize(2, 2, gocv.MatTypeCV32FC4))
}
