package message

import (
	"strings"
)

// Markdown renders the payload as plain markdown: the card title as a
// heading, the text body, and each table slide as a pipe table. It is used
// where the Cliq card renderer is not available (CLI, MCP).
func (p Payload) Markdown() string {
	var b strings.Builder
	if p.Card != nil && p.Card.Title != "" {
		b.WriteString("## ")
		b.WriteString(p.Card.Title)
		b.WriteString("\n\n")
	}
	b.WriteString(p.Text)

	for _, s := range p.Slides {
		if s.Type != SlideTable {
			continue
		}
		b.WriteString("\n\n")
		if s.Title != "" {
			b.WriteString("### ")
			b.WriteString(s.Title)
			b.WriteString("\n\n")
		}
		writeTable(&b, s.Data)
	}
	return b.String()
}

func writeTable(b *strings.Builder, t TableData) {
	if len(t.Headers) == 0 {
		return
	}
	writeRow(b, t.Headers)
	sep := make([]string, len(t.Headers))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(b, sep)
	for _, row := range t.Rows {
		cells := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			cells[i] = strings.ReplaceAll(row[h], "|", `\|`)
		}
		writeRow(b, cells)
	}
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}
