package poem

import "strings"

// LineKind tells paragraphs from breaks.
type LineKind string

const (
	Paragraph LineKind = "paragraph"
	Break     LineKind = "break"
)

// Line is one rendered unit of the poem body.
type Line struct {
	Kind LineKind `json:"kind"`
	Text string   `json:"text,omitempty"`
}

// Document is the result of parsing poem markup.
type Document struct {
	Title    string `json:"title,omitempty"`
	HasTitle bool   `json:"has_title"`
	Lines    []Line `json:"lines"`
}

const (
	titleMarker = "# "
	hardBreak   = "  "
)

// Parse interprets the markup subset line by line:
//
//   - "# text" sets the title; a later heading overwrites an earlier one.
//   - A blank line becomes a Break only when the source line before it was
//     not blank, so runs of blank lines collapse and a leading blank line
//     is dropped.
//   - Anything else is a Paragraph, with one trailing pair of spaces
//     removed.
//
// A single trailing newline ends the last line rather than adding a blank
// one. Carriage returns before newlines are ignored.
func Parse(text string) Document {
	var doc Document

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return doc
	}

	prevBlank := true
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, titleMarker):
			doc.Title = strings.TrimPrefix(line, titleMarker)
			doc.HasTitle = true
			prevBlank = false
		case strings.TrimSpace(line) == "":
			if !prevBlank {
				doc.Lines = append(doc.Lines, Line{Kind: Break})
			}
			prevBlank = true
		default:
			doc.Lines = append(doc.Lines, Line{Kind: Paragraph, Text: strings.TrimSuffix(line, hardBreak)})
			prevBlank = false
		}
	}
	return doc
}
