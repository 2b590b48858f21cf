package alpr

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"plate-rectification/internal/core"
	"plate-rectification/internal/pipeline"
)

type stubDetector struct {
	detections []Detection
	err        error
}

func (d stubDetector) Detect(context.Context, gocv.Mat) ([]Detection, error) {
	return d.detections, d.err
}

type stubSegmenter struct {
	widths []int
}

func (s *stubSegmenter) Segment(_ context.Context, plate gocv.Mat) ([]Character, error) {
	s.widths = append(s.widths, plate.Cols())
	return []Character{
		{Box: image.Rect(60, 0, 70, 10), Label: "3"},
		{Box: image.Rect(10, 0, 20, 10), Label: "A"},
		{Box: image.Rect(35, 0, 45, 10), Label: "B"},
	}, nil
}

// stubProcessor rectifies crops wider than minWidth and reports no plate
// boundary otherwise.
type stubProcessor struct {
	minWidth int
}

func (p stubProcessor) Process(crop gocv.Mat) (*pipeline.Result, error) {
	if crop.Empty() {
		return &pipeline.Result{Stage: pipeline.StageFailed, Reason: core.ReasonInvalidInput, Image: gocv.NewMat()},
			core.ErrInvalidInput
	}
	if crop.Cols() < p.minWidth {
		return &pipeline.Result{Stage: pipeline.StageSearchingQuad, Reason: core.ReasonNoPlateBoundaryFound, Image: gocv.NewMat()}, nil
	}
	return &pipeline.Result{Stage: pipeline.StageDone, Image: gocv.NewMatWithSize(400, 794, gocv.MatTypeCV8UC3)}, nil
}

func TestPaddedBoxClamps(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 50)
	assert.Equal(t, image.Rect(0, 0, 60, 40), PaddedBox(image.Rect(5, 10, 50, 30), 10, bounds))
	assert.Equal(t, image.Rect(15, 15, 40, 25), PaddedBox(image.Rect(5, 5, 50, 35), -10, bounds))
	assert.True(t, PaddedBox(image.Rect(5, 5, 15, 15), -10, bounds).Empty())
}

func TestCropWithPadding(t *testing.T) {
	frame := gocv.NewMatWithSize(50, 100, gocv.MatTypeCV8UC3)
	defer frame.Close()

	crop, err := CropWithPadding(frame, image.Rect(90, 40, 120, 60), 5)
	require.NoError(t, err)
	defer crop.Close()
	assert.Equal(t, 15, crop.Cols())
	assert.Equal(t, 15, crop.Rows())

	_, err = CropWithPadding(frame, image.Rect(200, 200, 220, 220), 0)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestAssemblePlate(t *testing.T) {
	chars := []Character{
		{Box: image.Rect(30, 0, 40, 10), Label: "C"},
		{Box: image.Rect(0, 0, 10, 10), Label: "A"},
		{Box: image.Rect(30, 5, 40, 15), Label: "D"},
		{Box: image.Rect(15, 0, 25, 10), Label: "B"},
	}
	assert.Equal(t, "ABCD", AssemblePlate(chars))
	assert.Equal(t, "C", chars[0].Label)
	assert.Equal(t, "", AssemblePlate(nil))
}

func TestReaderFallsBackToCrop(t *testing.T) {
	frame := gocv.NewMatWithSize(200, 400, gocv.MatTypeCV8UC3)
	defer frame.Close()

	seg := &stubSegmenter{}
	r := &Reader{
		Detector: stubDetector{detections: []Detection{
			{Box: image.Rect(100, 50, 200, 100), Confidence: 0.9, Class: "plate"},
			{Box: image.Rect(10, 10, 60, 40), Confidence: 0.2, Class: "plate"},
		}},
		Segmenter:     seg,
		Rectifier:     stubProcessor{minWidth: 100},
		PaddingLevels: []int{-10, 0, 10},
		MinConfidence: 0.5,
	}

	reads, err := r.Read(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, reads, 3)

	assert.False(t, reads[0].Rectified)
	assert.Equal(t, core.ReasonNoPlateBoundaryFound, reads[0].Reason)
	assert.Equal(t, -10, reads[0].Padding)
	assert.True(t, reads[1].Rectified)
	assert.True(t, reads[2].Rectified)
	for _, read := range reads {
		assert.Equal(t, "AB3", read.Text)
		assert.Equal(t, 3, read.Characters)
	}
	assert.Equal(t, []int{80, 794, 794}, seg.widths)
}

func TestReaderPropagatesDetectorError(t *testing.T) {
	frame := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8UC3)
	defer frame.Close()

	boom := errors.New("model offline")
	r := &Reader{Detector: stubDetector{err: boom}, Segmenter: &stubSegmenter{}, Rectifier: stubProcessor{}}
	_, err := r.Read(context.Background(), frame)
	assert.ErrorIs(t, err, boom)
}

func TestReaderStopsOnCancel(t *testing.T) {
	frame := gocv.NewMatWithSize(200, 400, gocv.MatTypeCV8UC3)
	defer frame.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Reader{
		Detector:  stubDetector{detections: []Detection{{Box: image.Rect(100, 50, 200, 100), Confidence: 1}}},
		Segmenter: &stubSegmenter{},
		Rectifier: stubProcessor{},
	}
	reads, err := r.Read(ctx, frame)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reads)
}
