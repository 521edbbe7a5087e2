// Package docs fetches native Google Docs and flattens their structural
// content into plain text.
//
// Extraction walks the document body in source order: paragraph text runs are
// concatenated, tables are read row by row and cell by cell, and tables of
// contents are read like the body. No separators are inserted, so the text is
// exactly the concatenation of the document's text runs.
package docs
