package docs

import (
	"strings"

	docs "google.golang.org/api/docs/v1"
)

// ReadStructuralElements returns the text of elements in source order.
// Paragraphs contribute their text runs, tables and tables of contents are
// recursed into, and every other element kind contributes nothing.
func ReadStructuralElements(elements []*docs.StructuralElement) string {
	var text strings.Builder
	for _, element := range elements {
		readStructuralElement(&text, element)
	}
	return text.String()
}

// DocumentText returns the text of the document body, or "" if it has none.
func DocumentText(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	return ReadStructuralElements(doc.Body.Content)
}

func readStructuralElement(text *strings.Builder, element *docs.StructuralElement) {
	switch {
	case element == nil:
	case element.Paragraph != nil:
		readParagraph(text, element.Paragraph)
	case element.Table != nil:
		readTable(text, element.Table)
	case element.TableOfContents != nil:
		for _, child := range element.TableOfContents.Content {
			readStructuralElement(text, child)
		}
	}
}

func readParagraph(text *strings.Builder, para *docs.Paragraph) {
	for _, elem := range para.Elements {
		if elem != nil && elem.TextRun != nil {
			text.WriteString(elem.TextRun.Content)
		}
	}
}

// readTable reads rows top to bottom and cells left to right.
func readTable(text *strings.Builder, table *docs.Table) {
	for _, row := range table.TableRows {
		if row == nil {
			continue
		}
		for _, cell := range row.TableCells {
			if cell == nil {
				continue
			}
			for _, child := range cell.Content {
				readStructuralElement(text, child)
			}
		}
	}
}
