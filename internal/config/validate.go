package config

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Fragment is one component's contribution to the composed configuration
// schema. The core contributes one fragment; every registered model
// contributes another, keyed by its model name. Validation runs the
// fragments in sequence and collects every error rather than stopping at
// the first.
type Fragment struct {
	// Key is the top-level configuration key the fragment owns.
	Key string

	// Required marks the key as mandatory in the merged tree.
	Required bool

	// Defaults maps key paths (relative to Key) to the values completed
	// into the tree when the user omits them.
	Defaults map[string]cty.Value

	// Validate checks the subtree under Key after defaults have been
	// applied. A nil Validate accepts anything.
	Validate func(sub *Tree) error
}

// Validate checks the merged tree against the composed schema: every
// top-level key must be owned by exactly one fragment, required fragments
// must be present, fragment defaults are completed into the tree, and each
// fragment's validation runs on its own subtree. All violations are
// collected into a single joined error wrapping ErrSchemaViolation.
func Validate(tree *Tree, fragments []Fragment) error {
	owned := make(map[string]Fragment, len(fragments))
	for _, f := range fragments {
		if _, dup := owned[f.Key]; dup {
			return fmt.Errorf("%w: two schema fragments claim top-level key %q", ErrSchemaViolation, f.Key)
		}
		owned[f.Key] = f
	}

	var errs []error

	for _, key := range tree.Keys("") {
		if _, ok := owned[key]; !ok {
			errs = append(errs, fmt.Errorf("%w: unknown top-level key %q (not core and not a registered model)",
				ErrSchemaViolation, key))
		}
	}

	for _, f := range fragments {
		if f.Required && !tree.HasSubtree(f.Key) {
			errs = append(errs, fmt.Errorf("%w: required top-level key %q is missing", ErrSchemaViolation, f.Key))
			continue
		}
		if !tree.HasSubtree(f.Key) {
			continue
		}

		for path, value := range f.Defaults {
			tree.setDefault(f.Key+"."+path, value)
		}
		if f.Validate != nil {
			if err := f.Validate(tree.Sub(f.Key)); err != nil {
				errs = append(errs, fmt.Errorf("%w: key %q: %w", ErrSchemaViolation, f.Key, err))
			}
		}
	}

	return errors.Join(errs...)
}

// RequireDefined is a fragment helper that reports every listed path missing
// from the subtree.
func RequireDefined(sub *Tree, paths ...string) error {
	var errs []error
	for _, path := range paths {
		if !sub.Has(path) {
			errs = append(errs, fmt.Errorf("required key %q is not defined", path))
		}
	}
	return errors.Join(errs...)
}

// FloatInRange is a fragment helper that checks a defined numeric key
// against an inclusive range. Undefined keys pass (defaults run first).
func FloatInRange(sub *Tree, path string, min, max float64) error {
	if !sub.Has(path) {
		return nil
	}
	v, err := sub.Float(path)
	if err != nil {
		return err
	}
	if v < min || v > max {
		return fmt.Errorf("key %q: value %g outside valid range [%g, %g]", path, v, min, max)
	}
	return nil
}
