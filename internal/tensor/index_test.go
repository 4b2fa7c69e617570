package tensor

import "testing"

func arangeDense(t *testing.T, n int, shape Shape) *Dense {
	t.Helper()
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	return mustFromSlice(t, data, shape)
}

func TestIndexResultShape(t *testing.T) {
	shape := Shape{2, 3, 4}
	tests := []struct {
		spec IndexSpec
		want Shape
	}{
		{IndexSpec{At(0)}, Shape{3, 4}},
		{IndexSpec{At(0), At(1)}, Shape{4}},
		{IndexSpec{Range(0, 2)}, Shape{2, 3, 4}},
		{IndexSpec{At(1), RangeStep(0, 3, 2)}, Shape{2, 4}},
		{IndexSpec{Pick(1, 0, 1)}, Shape{3, 3, 4}},
		{IndexSpec{}, Shape{2, 3, 4}},
	}
	for _, tt := range tests {
		got, err := tt.spec.ResultShape(shape)
		if err != nil {
			t.Errorf("ResultShape(%v) failed: %v", tt.spec, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ResultShape(%v) = %v, want %v", tt.spec, got, tt.want)
		}
	}
}

func TestIndexResultShapeErrors(t *testing.T) {
	shape := Shape{2, 3}
	bad := []IndexSpec{
		{At(0), At(0), At(0)},     // longer than rank
		{At(2)},                   // out of range
		{At(-3)},                  // out of range after normalization
		{Range(0, 4)},             // stop beyond size
		{RangeStep(0, 2, 0)},      // non-positive step
		{Pick(0), Pick(1)},        // two integer-array dims
		{Pick(5)},                 // pick out of range
	}
	for _, spec := range bad {
		if _, err := spec.ResultShape(shape); err == nil {
			t.Errorf("ResultShape(%v) should fail", spec)
		}
	}
}

func TestDenseIndexAt(t *testing.T) {
	d := arangeDense(t, 24, Shape{2, 3, 4})

	out, err := d.Index(IndexSpec{At(1), Range(0, 2)})
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if !out.Shape().Equal(Shape{2, 4}) {
		t.Errorf("shape = %v, want [2 4]", out.Shape())
	}
	assertFloat32s(t, out.(*Dense), []float32{12, 13, 14, 15, 16, 17, 18, 19})

	neg, err := d.Index(IndexSpec{At(-1)})
	if err != nil {
		t.Fatalf("Index(At(-1)) failed: %v", err)
	}
	if !neg.Shape().Equal(Shape{3, 4}) {
		t.Errorf("At(-1) shape = %v, want [3 4]", neg.Shape())
	}
	assertFloat32s(t, neg.(*Dense), []float32{12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23})
}

func TestDenseIndexPick(t *testing.T) {
	d := arangeDense(t, 12, Shape{3, 4})

	out, err := d.Index(IndexSpec{Pick(2, 0)})
	if err != nil {
		t.Fatalf("Index(Pick) failed: %v", err)
	}
	if !out.Shape().Equal(Shape{2, 4}) {
		t.Errorf("Pick shape = %v, want [2 4]", out.Shape())
	}
	assertFloat32s(t, out.(*Dense), []float32{8, 9, 10, 11, 0, 1, 2, 3})
}

func TestDenseIndexStep(t *testing.T) {
	d := arangeDense(t, 12, Shape{4, 3})

	out, err := d.Index(IndexSpec{RangeStep(0, 4, 2)})
	if err != nil {
		t.Fatalf("Index(RangeStep) failed: %v", err)
	}
	if !out.Shape().Equal(Shape{2, 3}) {
		t.Errorf("RangeStep shape = %v, want [2 3]", out.Shape())
	}
	assertFloat32s(t, out.(*Dense), []float32{0, 1, 2, 6, 7, 8})
}

func TestDenseIndexEmptySelection(t *testing.T) {
	d := arangeDense(t, 12, Shape{4, 3})

	out, err := d.Index(IndexSpec{Range(2, 2)})
	if err != nil {
		t.Fatalf("Index(empty range) failed: %v", err)
	}
	if !out.Shape().Equal(Shape{0, 3}) {
		t.Errorf("empty range shape = %v, want [0 3]", out.Shape())
	}
}

func TestDenseIndexWholeTensor(t *testing.T) {
	d := arangeDense(t, 6, Shape{2, 3})
	out, err := d.Index(IndexSpec{})
	if err != nil {
		t.Fatalf("Index(empty spec) failed: %v", err)
	}
	assertFloat32s(t, out.(*Dense), []float32{0, 1, 2, 3, 4, 5})
}
