package pairs

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// LabelMap is an integer segmentation map: either a single [H,W] plane or
// a stack of planes shaped [N,H,W]. Data is stored row-major in the order
// of Shape.
type LabelMap struct {
	Data  []int32
	Shape []int
}

// LabelMapFromRows builds a single-plane label map from per-row slices.
// All rows must have the same width.
func LabelMapFromRows(rows [][]int32) (*LabelMap, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty label map", ErrInvalidLabelShape)
	}
	h, w := len(rows), len(rows[0])
	data := make([]int32, 0, h*w)
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", ErrInvalidLabelShape, y, len(row), w)
		}
		data = append(data, row...)
	}
	return &LabelMap{Data: data, Shape: []int{h, w}}, nil
}

// rank returns the number of dimensions.
func (m *LabelMap) rank() int { return len(m.Shape) }

// dims returns (planes, height, width), with planes == 1 for rank 2.
func (m *LabelMap) dims() (planes, h, w int) {
	if m.rank() == 2 {
		return 1, m.Shape[0], m.Shape[1]
	}
	return m.Shape[0], m.Shape[1], m.Shape[2]
}

// validate checks the rank and that Data matches Shape.
func (m *LabelMap) validate() error {
	if m.rank() != 2 && m.rank() != 3 {
		return fmt.Errorf("%w: rank %d, want 2 or 3", ErrInvalidLabelShape, m.rank())
	}
	n := 1
	for _, d := range m.Shape {
		if d <= 0 {
			return fmt.Errorf("%w: non-positive dimension in %v", ErrInvalidLabelShape, m.Shape)
		}
		n *= d
	}
	if n != len(m.Data) {
		return fmt.Errorf("%w: shape %v does not match %d values", ErrInvalidLabelShape, m.Shape, len(m.Data))
	}
	return nil
}

// ResizeLabels resizes a label map to size x size using nearest-neighbor
// interpolation, so the output never contains label values absent from the
// input. Stacks are resized plane by plane, preserving plane order. Any
// rank other than 2 or 3 fails with ErrInvalidLabelShape.
func ResizeLabels(m *LabelMap, size int) (*LabelMap, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	planes, srcH, srcW := m.dims()

	out := make([]int32, planes*size*size)
	for p := 0; p < planes; p++ {
		src := m.Data[p*srcH*srcW : (p+1)*srcH*srcW]
		dst := out[p*size*size : (p+1)*size*size]
		for y := 0; y < size; y++ {
			srcY := y * srcH / size
			for x := 0; x < size; x++ {
				srcX := x * srcW / size
				dst[y*size+x] = src[srcY*srcW+srcX]
			}
		}
	}

	shape := []int{size, size}
	if m.rank() == 3 {
		shape = []int{planes, size, size}
	}
	return &LabelMap{Data: out, Shape: shape}, nil
}

// FlipH mirrors the label map in place along the horizontal axis, each
// plane independently.
func (m *LabelMap) FlipH() {
	planes, h, w := m.dims()
	for p := 0; p < planes; p++ {
		plane := m.Data[p*h*w : (p+1)*h*w]
		for y := 0; y < h; y++ {
			row := plane[y*w : (y+1)*w]
			for x := 0; x < w/2; x++ {
				row[x], row[w-1-x] = row[w-1-x], row[x]
			}
		}
	}
}

// ToTensor converts the label map to an int32 gomlx tensor with the same
// shape.
func (m *LabelMap) ToTensor() *tensors.Tensor {
	_, h, w := m.dims()
	if m.rank() == 2 {
		rows := make([][]int32, h)
		for y := 0; y < h; y++ {
			rows[y] = m.Data[y*w : (y+1)*w]
		}
		return tensors.FromAnyValue(rows)
	}
	planes, _, _ := m.dims()
	stack := make([][][]int32, planes)
	for p := 0; p < planes; p++ {
		rows := make([][]int32, h)
		for y := 0; y < h; y++ {
			base := p*h*w + y*w
			rows[y] = m.Data[base : base+w]
		}
		stack[p] = rows
	}
	return tensors.FromAnyValue(stack)
}
