// Package hclconf loads HCL configuration documents and translates them into
// the format-agnostic config.Tree model. It is the only package aware of the
// concrete document syntax.
package hclconf

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/config"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/ctxlog"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/fsutil"
)

// Extension is the recognized configuration file extension.
const Extension = ".hcl"

// Loader parses HCL documents into configuration trees.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader returns a ready Loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load discovers every .hcl file under the given file-or-directory paths,
// parses each into its own configuration tree, and returns the trees in
// deterministic (sorted-path) order. Merging is left to the caller so that
// duplicate-key errors can name both source files.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]*config.Tree, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(paths, Extension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s configuration files found under %v", Extension, paths)
	}
	logger.Debug("discovered configuration files", "count", len(files), "files", files)

	trees := make([]*config.Tree, 0, len(files))
	for _, path := range files {
		tree, err := l.loadFile(path)
		if err != nil {
			return nil, err
		}
		trees = append(trees, tree)
	}
	return trees, nil
}

func (l *Loader) loadFile(path string) (*config.Tree, error) {
	hclFile, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", path, diags)
	}

	body, ok := hclFile.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("parse %s: unexpected body type %T", path, hclFile.Body)
	}

	tree := config.NewTree()
	if err := walkBody(body, "", tree, path); err != nil {
		return nil, err
	}
	return tree, nil
}

// bodyItem orders attributes and blocks by their position in the source so
// the tree preserves declaration order.
type bodyItem struct {
	start int
	attr  *hclsyntax.Attribute
	block *hclsyntax.Block
}

func walkBody(body *hclsyntax.Body, prefix string, tree *config.Tree, file string) error {
	items := make([]bodyItem, 0, len(body.Attributes)+len(body.Blocks))
	for _, attr := range body.Attributes {
		items = append(items, bodyItem{start: attr.SrcRange.Start.Byte, attr: attr})
	}
	for _, block := range body.Blocks {
		items = append(items, bodyItem{start: block.TypeRange.Start.Byte, block: block})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].start < items[j].start })

	for _, item := range items {
		if item.attr != nil {
			if err := setAttribute(item.attr, prefix, tree, file); err != nil {
				return err
			}
			continue
		}
		path := joinPath(prefix, item.block.Type)
		for _, label := range item.block.Labels {
			path = joinPath(path, label)
		}
		if err := walkBody(item.block.Body, path, tree, file); err != nil {
			return err
		}
	}
	return nil
}

func setAttribute(attr *hclsyntax.Attribute, prefix string, tree *config.Tree, file string) error {
	value, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return fmt.Errorf("%s: evaluate %s: %w", file, joinPath(prefix, attr.Name), diags)
	}
	if err := tree.SetLeaf(joinPath(prefix, attr.Name), value, file); err != nil {
		return err
	}
	return nil
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
