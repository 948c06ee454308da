package pairs

import (
	"errors"
	"testing"
)

func TestResizeLabels_SinglePlane(t *testing.T) {
	m := &LabelMap{
		Data: []int32{
			0, 0, 1, 1,
			0, 0, 1, 1,
			2, 2, 1, 1,
			2, 2, 1, 1,
		},
		Shape: []int{4, 4},
	}
	out, err := ResizeLabels(m, 8)
	if err != nil {
		t.Fatalf("ResizeLabels failed: %v", err)
	}
	if out.Shape[0] != 8 || out.Shape[1] != 8 {
		t.Fatalf("output shape %v, want [8 8]", out.Shape)
	}
	// Nearest-neighbor only: no values outside the input set.
	allowed := map[int32]bool{0: true, 1: true, 2: true}
	for _, v := range out.Data {
		if !allowed[v] {
			t.Fatalf("resize introduced label %d not present in input", v)
		}
	}
	// Corners map to corners under nearest-neighbor.
	if out.Data[0] != 0 {
		t.Fatalf("top-left = %d, want 0", out.Data[0])
	}
	if out.Data[7*8] != 2 {
		t.Fatalf("bottom-left = %d, want 2", out.Data[7*8])
	}
	if out.Data[7*8+7] != 1 {
		t.Fatalf("bottom-right = %d, want 1", out.Data[7*8+7])
	}
}

func TestResizeLabels_Downscale(t *testing.T) {
	m := &LabelMap{Data: make([]int32, 16*16), Shape: []int{16, 16}}
	for i := range m.Data {
		m.Data[i] = int32(i % 3)
	}
	out, err := ResizeLabels(m, 4)
	if err != nil {
		t.Fatalf("ResizeLabels failed: %v", err)
	}
	if len(out.Data) != 16 {
		t.Fatalf("expected 16 values, got %d", len(out.Data))
	}
	for _, v := range out.Data {
		if v < 0 || v > 2 {
			t.Fatalf("downscale introduced label %d", v)
		}
	}
}

func TestResizeLabels_PlaneStack(t *testing.T) {
	// Two constant planes; resizing must keep them separate and ordered.
	m := &LabelMap{Data: make([]int32, 2*3*3), Shape: []int{2, 3, 3}}
	for i := 0; i < 9; i++ {
		m.Data[i] = 5
		m.Data[9+i] = 9
	}
	out, err := ResizeLabels(m, 6)
	if err != nil {
		t.Fatalf("ResizeLabels failed: %v", err)
	}
	if len(out.Shape) != 3 || out.Shape[0] != 2 || out.Shape[1] != 6 || out.Shape[2] != 6 {
		t.Fatalf("output shape %v, want [2 6 6]", out.Shape)
	}
	for i := 0; i < 36; i++ {
		if out.Data[i] != 5 {
			t.Fatalf("plane 0 value %d at %d, want 5", out.Data[i], i)
		}
		if out.Data[36+i] != 9 {
			t.Fatalf("plane 1 value %d at %d, want 9", out.Data[36+i], i)
		}
	}
}

func TestResizeLabels_BadRank(t *testing.T) {
	for _, shape := range [][]int{{4}, {2, 2, 2, 2}, {}} {
		n := 1
		for _, d := range shape {
			n *= d
		}
		m := &LabelMap{Data: make([]int32, n), Shape: shape}
		_, err := ResizeLabels(m, 4)
		if !errors.Is(err, ErrInvalidLabelShape) {
			t.Fatalf("shape %v: expected ErrInvalidLabelShape, got %v", shape, err)
		}
	}
}

func TestResizeLabels_ShapeDataMismatch(t *testing.T) {
	m := &LabelMap{Data: make([]int32, 5), Shape: []int{2, 2}}
	if _, err := ResizeLabels(m, 4); !errors.Is(err, ErrInvalidLabelShape) {
		t.Fatalf("expected ErrInvalidLabelShape, got %v", err)
	}
}

func TestLabelMap_FlipH(t *testing.T) {
	m := &LabelMap{
		Data:  []int32{1, 2, 3, 4, 5, 6},
		Shape: []int{2, 3},
	}
	m.FlipH()
	want := []int32{3, 2, 1, 6, 5, 4}
	for i, v := range want {
		if m.Data[i] != v {
			t.Fatalf("after FlipH data = %v, want %v", m.Data, want)
		}
	}
	// Flipping twice restores the original.
	m.FlipH()
	orig := []int32{1, 2, 3, 4, 5, 6}
	for i, v := range orig {
		if m.Data[i] != v {
			t.Fatalf("double FlipH data = %v, want %v", m.Data, orig)
		}
	}
}

func TestLabelMapFromRows(t *testing.T) {
	m, err := LabelMapFromRows([][]int32{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("LabelMapFromRows failed: %v", err)
	}
	if m.Shape[0] != 2 || m.Shape[1] != 2 {
		t.Fatalf("shape %v, want [2 2]", m.Shape)
	}

	if _, err := LabelMapFromRows(nil); !errors.Is(err, ErrInvalidLabelShape) {
		t.Fatalf("expected ErrInvalidLabelShape for empty rows, got %v", err)
	}
	if _, err := LabelMapFromRows([][]int32{{1, 2}, {3}}); !errors.Is(err, ErrInvalidLabelShape) {
		t.Fatalf("expected ErrInvalidLabelShape for ragged rows, got %v", err)
	}
}

func TestLabelMap_ToTensorShapes(t *testing.T) {
	plane := &LabelMap{Data: make([]int32, 6), Shape: []int{2, 3}}
	tns := plane.ToTensor()
	dims := tns.Shape().Dimensions
	if len(dims) != 2 || dims[0] != 2 || dims[1] != 3 {
		t.Fatalf("plane tensor dims %v, want [2 3]", dims)
	}

	stack := &LabelMap{Data: make([]int32, 12), Shape: []int{2, 2, 3}}
	tns = stack.ToTensor()
	dims = tns.Shape().Dimensions
	if len(dims) != 3 || dims[0] != 2 || dims[1] != 2 || dims[2] != 3 {
		t.Fatalf("stack tensor dims %v, want [2 2 3]", dims)
	}
}
