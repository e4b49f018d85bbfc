package codegen

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nalgeon/be"

	"github.com/AlaaZreekie/minipascal-compiler/pkg/mdtest"
)

// The examples in docs/cases.md are compiled for real, so the document
// cannot drift from the compiler's actual output.
func TestDocumentedCases(t *testing.T) {
	document, err := os.ReadFile("../../docs/cases.md")
	be.Err(t, err, nil)

	cases, err := mdtest.ExtractCases(document)
	be.Err(t, err, nil)
	be.True(t, len(cases) > 0)

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			prog := compileOK(t, c.Source)
			if diff := cmp.Diff(c.Expected, prog.String()); diff != "" {
				t.Errorf("output mismatch (-doc +got):\n%s", diff)
			}
		})
	}
}
