package superpoint

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

// OutputTensor is the part of an onnxruntime output tensor needed to copy it to the host.
// *ort.Tensor[float32] satisfies it.
type OutputTensor interface {
	GetShape() ort.Shape
	GetData() []float32
}

var _ OutputTensor = (*ort.Tensor[float32])(nil)

// FromONNX copies a model output tensor into a Go-managed gorgonia tensor.
//
// The data is copied, so the result stays valid after the onnxruntime tensor is destroyed
// or its session runs again.
//
// Arguments:
//   - out: The "semi" output of a SuperPoint session.
//
// Returns:
//   - *tensor.Dense: A float32 tensor with the same shape.
//   - error: *ShapeError for an empty or dynamic shape, *ScoreConversionError when the data
//     length does not match the shape.
func FromONNX(out OutputTensor) (*tensor.Dense, error) {
	shape := out.GetShape()
	dims := make([]int, len(shape))
	for i, d := range shape {
		if d <= 0 {
			return nil, &ShapeError{Shape: toInts(shape), Reason: "dimensions must be positive"}
		}
		dims[i] = int(d)
	}
	if len(dims) == 0 {
		return nil, &ShapeError{Shape: dims, Reason: "tensor has no dimensions"}
	}

	data := out.GetData()
	if int64(len(data)) != shape.FlattenedSize() {
		return nil, &ScoreConversionError{
			Reason: fmt.Sprintf("output holds %d values, shape %v needs %d", len(data), dims, shape.FlattenedSize()),
		}
	}

	backing := make([]float32, len(data))
	copy(backing, data)
	return tensor.New(tensor.WithShape(dims...), tensor.WithBacking(backing)), nil
}

// hostScores returns the tensor's values as a contiguous row-major float32 slice in host
// memory. Views and transposed tensors are materialised first.
func hostScores(t tensor.Tensor) ([]float32, error) {
	if !t.IsNativelyAccessible() {
		return nil, &ScoreConversionError{Reason: "tensor memory is not accessible from the host"}
	}
	if t.Dtype() != tensor.Float32 {
		return nil, &ScoreConversionError{Reason: fmt.Sprintf("expected float32 scores, got %v", t.Dtype())}
	}

	t = tensor.Materialize(t)
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, &ScoreConversionError{Reason: fmt.Sprintf("unexpected backing data %T", t.Data())}
	}
	if want := t.Shape().TotalSize(); len(data) != want {
		return nil, &ScoreConversionError{
			Reason: fmt.Sprintf("tensor holds %d values, shape %v needs %d", len(data), t.Shape(), want),
		}
	}
	return data, nil
}

func toInts(shape ort.Shape) []int {
	dims := make([]int, len(shape))
	for i, d := range shape {
		dims[i] = int(d)
	}
	return dims
}
