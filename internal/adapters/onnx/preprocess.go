package onnx

import (
	"poise/internal/domain/perception"
	"poise/pkg/errors"
)

// frameToTensor converts an RGB24 frame into a normalized NCHW float32
// tensor of the model's input resolution, using nearest-neighbor
// resampling. Vision models here are coarse enough that interpolation
// quality does not matter.
func frameToTensor(frame perception.VideoFrame, size int) ([]float32, error) {
	if frame.Empty() {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty video frame")
	}
	if len(frame.Data) < frame.Width*frame.Height*3 {
		return nil, errors.Wrapf(errors.ErrInvalidInput,
			"frame data too short: %d bytes for %dx%d", len(frame.Data), frame.Width, frame.Height)
	}

	tensor := make([]float32, 3*size*size)
	plane := size * size
	for y := 0; y < size; y++ {
		srcY := y * frame.Height / size
		for x := 0; x < size; x++ {
			srcX := x * frame.Width / size
			src := (srcY*frame.Width + srcX) * 3
			dst := y*size + x
			tensor[dst] = float32(frame.Data[src]) / 255.0
			tensor[plane+dst] = float32(frame.Data[src+1]) / 255.0
			tensor[2*plane+dst] = float32(frame.Data[src+2]) / 255.0
		}
	}
	return tensor, nil
}
