package jsast

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// Verify checks that generated source is structurally valid JavaScript by
// re-parsing it. Used by tests and by the stub-emission guarantee that
// every compromise artifact is at least parseable.
func Verify(source string) error {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())
	tree, err := p.ParseCtx(context.Background(), nil, []byte(source))
	if err != nil {
		return fmt.Errorf("reparse generated source: %w", err)
	}
	if tree.RootNode().HasError() {
		return fmt.Errorf("generated source contains syntax errors")
	}
	return nil
}
