package store

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// LoadFromValue broadcasts a literal configuration value, a scalar or a
// nested list, to the variable's resolved shape and stores the result.
// Broadcasting aligns the literal's shape against the trailing axes of the
// variable shape; incompatible shapes fail with ErrBroadcast.
func (s *Store) LoadFromValue(name string, value cty.Value) error {
	shape, err := s.registry.ResolveShape(name, s.sizes)
	if err != nil {
		return err
	}

	litShape, litData, err := flattenLiteral(value)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrBroadcast, name, err)
	}

	data, err := broadcast(litShape, litData, shape)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrBroadcast, name, err)
	}

	e, ok := s.entries[name]
	if !ok {
		s.entries[name] = &entry{shape: shape, data: data}
		return nil
	}
	copy(e.data, data)
	return nil
}

// flattenLiteral lowers a cty scalar or nested list into a shape and a flat
// row-major float slice. Nesting must be rectangular.
func flattenLiteral(v cty.Value) ([]int, []float64, error) {
	if v.IsNull() {
		return nil, nil, fmt.Errorf("value is null")
	}

	if !v.CanIterateElements() {
		n, err := convert.Convert(v, cty.Number)
		if err != nil {
			return nil, nil, fmt.Errorf("not a number: %v", err)
		}
		f, _ := n.AsBigFloat().Float64()
		return nil, []float64{f}, nil
	}

	var (
		childShape []int
		data       []float64
		count      int
	)
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		cs, cd, err := flattenLiteral(ev)
		if err != nil {
			return nil, nil, err
		}
		if count == 0 {
			childShape = cs
		} else if !shapeEqual(childShape, cs) {
			return nil, nil, fmt.Errorf("ragged nested list")
		}
		data = append(data, cd...)
		count++
	}
	if count == 0 {
		return nil, nil, fmt.Errorf("empty list")
	}
	return append([]int{count}, childShape...), data, nil
}

// broadcast expands row-major data of shape src to shape dst. Shapes are
// right-aligned; each aligned pair must be equal or the source length must
// be 1, and missing leading source axes repeat the source block.
func broadcast(src []int, data []float64, dst []int) ([]float64, error) {
	if len(src) > len(dst) {
		return nil, fmt.Errorf("literal has %d axes, variable has %d", len(src), len(dst))
	}

	// Pad the source shape with leading 1s to the destination rank.
	padded := make([]int, len(dst))
	for i := range padded {
		padded[i] = 1
	}
	copy(padded[len(dst)-len(src):], src)

	for i := range dst {
		if padded[i] != 1 && padded[i] != dst[i] {
			return nil, fmt.Errorf("axis %d: literal length %d does not divide into %d", i, padded[i], dst[i])
		}
	}

	out := make([]float64, product(dst))
	// Strides of the padded source, with stride 0 on broadcast axes.
	strides := make([]int, len(dst))
	stride := 1
	for i := len(dst) - 1; i >= 0; i-- {
		if padded[i] == 1 {
			strides[i] = 0
		} else {
			strides[i] = stride
			stride *= padded[i]
		}
	}

	idx := make([]int, len(dst))
	for i := range out {
		srcIdx := 0
		for d := range idx {
			srcIdx += idx[d] * strides[d]
		}
		out[i] = data[srcIdx]

		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < dst[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out, nil
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
