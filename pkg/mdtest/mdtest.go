// Package mdtest extracts compiler test cases from Markdown documents.
// A case is a heading of the form "Case: NAME" followed by a `pascal`
// fence holding the source and a `vm` fence holding the expected
// instruction stream. Prose between the fences is ignored, so the
// documents double as readable documentation of the compiler's output.
package mdtest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	fenceSource   = "pascal"
	fenceExpected = "vm"
)

// Case is one source-to-instructions example extracted from a
// document.
type Case struct {
	Name     string
	Source   string
	Expected string
	Line     int
}

// ExtractCases parses a Markdown document and collects every case it
// defines, in document order.
func ExtractCases(document []byte) ([]Case, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(document))

	var cases []Case
	var current *Case

	flush := func() error {
		if current == nil {
			return nil
		}
		if current.Source == "" {
			return fmt.Errorf("case %q has no %s fence", current.Name, fenceSource)
		}
		if current.Expected == "" {
			return fmt.Errorf("case %q has no %s fence", current.Name, fenceExpected)
		}
		cases = append(cases, *current)
		current = nil
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			heading := headingText(n, document)
			if !strings.HasPrefix(heading, "Case: ") {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			current = &Case{
				Name: strings.TrimPrefix(heading, "Case: "),
				Line: lineNumber(n, document),
			}
		case *ast.FencedCodeBlock:
			language := string(n.Language(document))
			if language != fenceSource && language != fenceExpected {
				return ast.WalkContinue, nil
			}
			if current == nil {
				return ast.WalkStop, fmt.Errorf("line %d: %s fence outside a case", lineNumber(n, document), language)
			}
			content := fenceContent(n, document)
			if language == fenceSource {
				if current.Source != "" {
					return ast.WalkStop, fmt.Errorf("case %q has more than one %s fence", current.Name, fenceSource)
				}
				current.Source = content
			} else {
				if current.Expected != "" {
					return ast.WalkStop, fmt.Errorf("case %q has more than one %s fence", current.Name, fenceExpected)
				}
				current.Expected = content
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cases, nil
}

func headingText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceContent(fence *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < fence.Lines().Len(); i++ {
		seg := fence.Lines().At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func lineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	line := 1
	for i := 0; i < start && i < len(source); i++ {
		if source[i] == '\n' {
			line++
		}
	}
	return line
}
