package config

import (
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// String returns the string value at the path.
func (t *Tree) String(path string) (string, error) {
	v, err := t.convertedValue(path, cty.String)
	if err != nil {
		return "", err
	}
	return v.AsString(), nil
}

// Int returns the integer value at the path.
func (t *Tree) Int(path string) (int, error) {
	v, err := t.convertedValue(path, cty.Number)
	if err != nil {
		return 0, err
	}
	var out int
	if err := gocty.FromCtyValue(v, &out); err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrBadValue, path, err)
	}
	return out, nil
}

// Float returns the float value at the path.
func (t *Tree) Float(path string) (float64, error) {
	v, err := t.convertedValue(path, cty.Number)
	if err != nil {
		return 0, err
	}
	var out float64
	if err := gocty.FromCtyValue(v, &out); err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrBadValue, path, err)
	}
	return out, nil
}

// Bool returns the boolean value at the path.
func (t *Tree) Bool(path string) (bool, error) {
	v, err := t.convertedValue(path, cty.Bool)
	if err != nil {
		return false, err
	}
	return v.True(), nil
}

// Duration parses the string value at the path as a Go duration.
func (t *Tree) Duration(path string) (time.Duration, error) {
	s, err := t.String(path)
	if err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrBadValue, path, err)
	}
	return d, nil
}

// Time parses the string value at the path as an RFC 3339 timestamp.
func (t *Tree) Time(path string) (time.Time, error) {
	s, err := t.String(path)
	if err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrBadValue, path, err)
	}
	return ts, nil
}

// StringList returns the list of strings at the path.
func (t *Tree) StringList(path string) ([]string, error) {
	v, err := t.Value(path)
	if err != nil {
		return nil, err
	}
	if v.IsNull() || !v.CanIterateElements() {
		return nil, fmt.Errorf("%w: %q is not a list", ErrBadValue, path)
	}
	var out []string
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		sv, err := convert.Convert(ev, cty.String)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadValue, path, err)
		}
		out = append(out, sv.AsString())
	}
	return out, nil
}

// FloatList returns the flat list of numbers at the path.
func (t *Tree) FloatList(path string) ([]float64, error) {
	v, err := t.Value(path)
	if err != nil {
		return nil, err
	}
	if v.IsNull() || !v.CanIterateElements() {
		return nil, fmt.Errorf("%w: %q is not a list", ErrBadValue, path)
	}
	var out []float64
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		nv, err := convert.Convert(ev, cty.Number)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadValue, path, err)
		}
		f, _ := nv.AsBigFloat().Float64()
		out = append(out, f)
	}
	return out, nil
}

// StringOr returns the value at the path, or fallback when undefined.
func (t *Tree) StringOr(path, fallback string) (string, error) {
	if !t.Has(path) {
		return fallback, nil
	}
	return t.String(path)
}

// FloatOr returns the value at the path, or fallback when undefined.
func (t *Tree) FloatOr(path string, fallback float64) (float64, error) {
	if !t.Has(path) {
		return fallback, nil
	}
	return t.Float(path)
}

// BoolOr returns the value at the path, or fallback when undefined.
func (t *Tree) BoolOr(path string, fallback bool) (bool, error) {
	if !t.Has(path) {
		return fallback, nil
	}
	return t.Bool(path)
}

// IntOr returns the value at the path, or fallback when undefined.
func (t *Tree) IntOr(path string, fallback int) (int, error) {
	if !t.Has(path) {
		return fallback, nil
	}
	return t.Int(path)
}

func (t *Tree) convertedValue(path string, want cty.Type) (cty.Value, error) {
	v, err := t.Value(path)
	if err != nil {
		return cty.NilVal, err
	}
	if v.IsNull() {
		return cty.NilVal, fmt.Errorf("%w: %q is null", ErrBadValue, path)
	}
	cv, err := convert.Convert(v, want)
	if err != nil {
		return cty.NilVal, fmt.Errorf("%w: %q: %v", ErrBadValue, path, err)
	}
	return cv, nil
}
