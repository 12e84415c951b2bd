package config

import "github.com/zclconf/go-cty/cty"

// Merge combines configuration trees from separate documents into one. The
// merge is additive: the result contains the union of all defined keys, and
// a key defined in more than one document fails with ErrDuplicateKey naming
// the key and both source files.
func Merge(trees ...*Tree) (*Tree, error) {
	merged := NewTree()
	for _, t := range trees {
		var mergeErr error
		t.Walk(func(path string, value cty.Value, file string) {
			if mergeErr != nil {
				return
			}
			mergeErr = merged.SetLeaf(path, value, file)
		})
		if mergeErr != nil {
			return nil, mergeErr
		}
	}
	return merged, nil
}
