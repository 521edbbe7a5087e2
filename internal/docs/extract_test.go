package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	docs "google.golang.org/api/docs/v1"

	"github.com/teemow/driveingest/internal/docs/docstest"
)

func cell(elems ...*docs.StructuralElement) []*docs.StructuralElement {
	return elems
}

func TestReadStructuralElements(t *testing.T) {
	p := docstest.Paragraph

	tests := []struct {
		name     string
		elements []*docs.StructuralElement
		want     string
	}{
		{
			name:     "empty",
			elements: nil,
			want:     "",
		},
		{
			name:     "paragraph runs concatenated",
			elements: []*docs.StructuralElement{p("A", "B", "C")},
			want:     "ABC",
		},
		{
			name:     "paragraphs in order without separators",
			elements: []*docs.StructuralElement{p("Hello "), p("world\n")},
			want:     "Hello world\n",
		},
		{
			name: "table rows then cells",
			elements: []*docs.StructuralElement{docstest.Table(
				[][]*docs.StructuralElement{cell(p("1")), cell(p("2"))},
				[][]*docs.StructuralElement{cell(p("3")), cell(p("4"))},
			)},
			want: "1234",
		},
		{
			name: "table of contents reads like the body",
			elements: []*docs.StructuralElement{docstest.TableOfContents(
				p("Intro"), p("Usage"),
			)},
			want: "IntroUsage",
		},
		{
			name: "nested table inside table cell",
			elements: []*docs.StructuralElement{docstest.Table(
				[][]*docs.StructuralElement{
					cell(p("a"), docstest.Table(
						[][]*docs.StructuralElement{cell(p("b")), cell(p("c"))},
					)),
					cell(p("d")),
				},
			)},
			want: "abcd",
		},
		{
			name: "table inside table of contents",
			elements: []*docs.StructuralElement{docstest.TableOfContents(
				docstest.Table([][]*docs.StructuralElement{cell(p("x")), cell(p("y"))}),
			)},
			want: "xy",
		},
		{
			name:     "other kinds contribute nothing",
			elements: []*docs.StructuralElement{docstest.SectionBreak(), p("text"), nil, docstest.SectionBreak()},
			want:     "text",
		},
		{
			name: "paragraph elements without text runs are skipped",
			elements: []*docs.StructuralElement{{Paragraph: &docs.Paragraph{Elements: []*docs.ParagraphElement{
				{TextRun: &docs.TextRun{Content: "before"}},
				{InlineObjectElement: &docs.InlineObjectElement{InlineObjectId: "img"}},
				{HorizontalRule: &docs.HorizontalRule{}},
				{TextRun: &docs.TextRun{Content: "after"}},
			}}}},
			want: "beforeafter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadStructuralElements(tt.elements))
		})
	}
}

func TestReadStructuralElements_TOCMatchesBody(t *testing.T) {
	body := []*docs.StructuralElement{docstest.Paragraph("one"), docstest.Paragraph("two")}
	toc := []*docs.StructuralElement{docstest.TableOfContents(body...)}

	assert.Equal(t, ReadStructuralElements(body), ReadStructuralElements(toc))
}

func TestDocumentText_NoBody(t *testing.T) {
	assert.Equal(t, "", DocumentText(nil))
	assert.Equal(t, "", DocumentText(&docs.Document{DocumentId: "d1"}))
}
