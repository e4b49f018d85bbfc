package mdtest

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const sample = `# Examples

Some prose.

## Case: empty program

` + "```pascal" + `
program demo;
begin
end.
` + "```" + `

More prose between the fences.

` + "```vm" + `
    start
main_entry:
    stop
` + "```" + `

## Case: second

` + "```pascal" + `
program two;
begin
end.
` + "```" + `

` + "```vm" + `
    start
` + "```" + `
`

func TestExtractCases(t *testing.T) {
	cases, err := ExtractCases([]byte(sample))
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 2)

	be.Equal(t, cases[0].Name, "empty program")
	be.True(t, strings.HasPrefix(cases[0].Source, "program demo;"))
	be.True(t, strings.Contains(cases[0].Expected, "main_entry:"))

	be.Equal(t, cases[1].Name, "second")
	be.Equal(t, cases[1].Expected, "    start\n")
}

func TestIgnoresUnrelatedFences(t *testing.T) {
	doc := "## Case: x\n\n```pascal\nprogram p;\nbegin\nend.\n```\n\n```go\nfunc main() {}\n```\n\n```vm\n    start\n```\n"
	cases, err := ExtractCases([]byte(doc))
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 1)
}

func TestMissingExpectedFence(t *testing.T) {
	doc := "## Case: broken\n\n```pascal\nprogram p;\nbegin\nend.\n```\n"
	_, err := ExtractCases([]byte(doc))
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "broken"))
}

func TestFenceOutsideCase(t *testing.T) {
	doc := "# Doc\n\n```pascal\nprogram p;\nbegin\nend.\n```\n"
	_, err := ExtractCases([]byte(doc))
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "outside a case"))
}

func TestDuplicateSourceFence(t *testing.T) {
	doc := "## Case: dup\n\n```pascal\na\n```\n\n```pascal\nb\n```\n\n```vm\nc\n```\n"
	_, err := ExtractCases([]byte(doc))
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "more than one"))
}
