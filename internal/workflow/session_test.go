package workflow

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/plate-detect/internal/detection"
	"github.com/ironsheep/plate-detect/internal/imaging"
)

func TestSession_OpenProcessCrop(t *testing.T) {
	r, _ := newRunner(t)
	input := writeScene(t, t.TempDir(), "car.png", plateRect)

	s, err := r.Open(input)
	require.NoError(t, err)
	assert.Equal(t, input, s.InputPath)
	assert.Nil(t, s.Result)

	require.NoError(t, r.Process(s))
	require.NotNil(t, s.Annotated)
	assert.Equal(t, 1, s.Result.Count())

	cropped, err := r.Crop(s)
	require.NoError(t, err)
	require.NotNil(t, s.Selected)
	assert.Equal(t, s.Selected.Box.Width, cropped.Bounds().Dx())
	assert.Equal(t, s.Selected.Box.Height, cropped.Bounds().Dy())
	assert.InDelta(t, 150, cropped.Bounds().Dx(), 3)
}

func TestSession_CropComesFromOriginal(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 60, 40))
	fake := &fakeDetector{boxes: []detection.Box{{X: 10, Y: 10, Width: 20, Height: 10}}}
	r, _ := newRunner(t,
		WithLoader(loaderFunc(func(string) (image.Image, error) { return img, nil })),
		WithDetector(fake),
	)

	s, err := r.Open("mem.png")
	require.NoError(t, err)
	require.NoError(t, r.Process(s))

	// The preview has the outline; the crop must not.
	assert.NotEqual(t, img.NRGBAAt(10, 10), s.Annotated.NRGBAAt(10, 10))
	cropped, err := r.Crop(s)
	require.NoError(t, err)
	assert.Equal(t, img.NRGBAAt(10, 10), cropped.NRGBAAt(0, 0))
	assert.Equal(t, image.Rect(0, 0, 20, 10), cropped.Bounds())
}

func TestSession_CropProcessesOnDemand(t *testing.T) {
	r, _ := newRunner(t)
	input := writeScene(t, t.TempDir(), "car.png", plateRect)

	s, err := r.Open(input)
	require.NoError(t, err)

	cropped, err := r.Crop(s)
	require.NoError(t, err)
	assert.NotNil(t, s.Result)
	assert.NotNil(t, s.Annotated)
	assert.NotNil(t, cropped)
}

func TestSession_CropWith(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	fake := &fakeDetector{boxes: []detection.Box{
		{X: 0, Y: 0, Width: 20, Height: 10},
		{X: 50, Y: 20, Width: 80, Height: 40},
		{X: 150, Y: 60, Width: 30, Height: 20},
	}}
	r, _ := newRunner(t,
		WithLoader(loaderFunc(func(string) (image.Image, error) { return img, nil })),
		WithDetector(fake),
	)
	s, err := r.Open("mem.png")
	require.NoError(t, err)

	tests := []struct {
		policy detection.SelectionPolicy
		scale  float64
		want   image.Rectangle
		index  int
	}{
		{detection.SelectLargest, 0, image.Rect(0, 0, 80, 40), 1},
		{detection.SelectFirst, 2, image.Rect(0, 0, 40, 20), 0},
		{detection.SelectLast, 0.5, image.Rect(0, 0, 15, 10), 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			cropped, err := r.CropWith(s, tt.policy, tt.scale)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cropped.Bounds())
			assert.Equal(t, tt.index, s.Selected.Index)
		})
	}
	assert.Equal(t, 1, fake.calls, "detection runs once per session")
}

func TestSession_NoPlate(t *testing.T) {
	r, _ := newRunner(t)
	input := writeScene(t, t.TempDir(), "blank.png")

	s, err := r.Open(input)
	require.NoError(t, err)

	err = r.Process(s)
	assert.ErrorIs(t, err, detection.ErrNoPlateDetected)
	require.NotNil(t, s.Result)
	assert.False(t, s.Result.Found())
	assert.Nil(t, s.Annotated)

	_, err = r.Crop(s)
	assert.ErrorIs(t, err, detection.ErrNoPlateDetected)
	assert.Nil(t, s.Selected)
}

func TestSession_ProcessResetsState(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 60, 40))
	fake := &fakeDetector{boxes: []detection.Box{{X: 1, Y: 1, Width: 10, Height: 10}}}
	r, _ := newRunner(t,
		WithLoader(loaderFunc(func(string) (image.Image, error) { return img, nil })),
		WithDetector(fake),
	)
	s, err := r.Open("mem.png")
	require.NoError(t, err)
	_, err = r.Crop(s)
	require.NoError(t, err)
	require.NotNil(t, s.Selected)

	fake.boxes = nil
	assert.ErrorIs(t, r.Process(s), detection.ErrNoPlateDetected)
	assert.Nil(t, s.Selected)
	assert.Nil(t, s.Annotated)
}

func TestSession_OpenMissing(t *testing.T) {
	r, _ := newRunner(t)
	_, err := r.Open(filepath.Join(t.TempDir(), "nope.png"))
	var decodeErr *imaging.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestSession_SaveCrop(t *testing.T) {
	r, _ := newRunner(t)
	input := writeScene(t, t.TempDir(), "car.png", plateRect)

	s, err := r.Open(input)
	require.NoError(t, err)
	cropped, err := r.Crop(s)
	require.NoError(t, err)

	dir := t.TempDir()
	out, err := r.SaveCrop(s, cropped, filepath.Join(dir, "plates", "plate.jpg"))
	require.NoError(t, err)
	assert.FileExists(t, out)

	out, err = r.SaveCrop(s, cropped, filepath.Join(dir, "plate.crop"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "plate.png"), out)

	back, err := imaging.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, cropped.Bounds(), back.Bounds())
}
