package config

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/zclconf/go-cty/cty"
)

// WriteMerged serializes the merged and defaulted tree as a single JSON
// document, recording the exact configuration a run was driven by.
func (t *Tree) WriteMerged(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t.toGo()); err != nil {
		return fmt.Errorf("write merged configuration: %w", err)
	}
	return nil
}

func (t *Tree) toGo() any {
	if t.root.leaf {
		return ctyToGo(t.root.value)
	}
	out := make(map[string]any, len(t.root.children))
	for _, key := range t.root.order {
		out[key] = (&Tree{root: t.root.children[key]}).toGo()
	}
	return out
}

// ctyToGo lowers a cty value into plain Go values for JSON encoding.
func ctyToGo(v cty.Value) any {
	switch {
	case v.IsNull():
		return nil
	case v.Type() == cty.String:
		return v.AsString()
	case v.Type() == cty.Bool:
		return v.True()
	case v.Type() == cty.Number:
		f, acc := v.AsBigFloat().Float64()
		_ = acc
		if i, racc := v.AsBigFloat().Int64(); racc == big.Exact {
			return i
		}
		return f
	case v.CanIterateElements():
		if v.Type().IsObjectType() || v.Type().IsMapType() {
			out := make(map[string]any)
			for it := v.ElementIterator(); it.Next(); {
				k, ev := it.Element()
				out[k.AsString()] = ctyToGo(ev)
			}
			return out
		}
		var out []any
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, ctyToGo(ev))
		}
		return out
	default:
		return v.GoString()
	}
}
