package llm

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// ExtractCode returns the contents of the first fenced code block in
// the model's markdown output. Models usually wrap generated code in a
// fence with prose around it; when saving to disk we want only the
// code. Input without a fence is returned unchanged.
func ExtractCode(markdown string) string {
	src := []byte(markdown)
	root := goldmark.New().Parser().Parse(gmtext.NewReader(src))

	var code strings.Builder
	found := false

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			code.Write(seg.Value(src))
		}
		found = true
		return ast.WalkStop, nil
	})

	if !found {
		return markdown
	}
	return code.String()
}
