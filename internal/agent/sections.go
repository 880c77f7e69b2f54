package agent

import (
	"strings"

	"github.com/samvad-hq/samvad-news-desk/internal/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// introHeading labels any text that comes before the first heading.
const introHeading = "Introduction"

// SplitSections cuts markdown into one section per heading. Section content is the
// raw markdown between a heading and the next one. It returns nil when the
// document has no headings.
func SplitSections(md string) []domain.Section {
	src := []byte(md)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	type mark struct {
		title     string
		lineStart int
		bodyStart int
	}
	var marks []mark
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		first := h.Lines().At(0)
		last := h.Lines().At(h.Lines().Len() - 1)
		bodyStart := lineEnd(src, last.Stop)
		if isSetextUnderline(src, bodyStart) {
			bodyStart = lineEnd(src, bodyStart)
		}
		marks = append(marks, mark{
			title:     inlineText(h, src),
			lineStart: lineStart(src, first.Start),
			bodyStart: bodyStart,
		})
	}
	if len(marks) == 0 {
		return nil
	}

	sections := make([]domain.Section, 0, len(marks)+1)
	if intro := strings.TrimSpace(md[:marks[0].lineStart]); intro != "" {
		sections = append(sections, domain.Section{Heading: introHeading, Content: intro})
	}
	for i, m := range marks {
		end := len(src)
		if i+1 < len(marks) {
			end = marks[i+1].lineStart
		}
		content := ""
		if m.bodyStart < end {
			content = strings.TrimSpace(md[m.bodyStart:end])
		}
		sections = append(sections, domain.Section{Heading: m.title, Content: content})
	}
	return sections
}

// inlineText flattens a heading's inline children to plain text.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.CodeSpan:
			for gc := t.FirstChild(); gc != nil; gc = gc.NextSibling() {
				if txt, ok := gc.(*ast.Text); ok {
					b.Write(txt.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// lineStart returns the offset of the first byte of the line containing pos.
func lineStart(src []byte, pos int) int {
	for pos > 0 && src[pos-1] != '\n' {
		pos--
	}
	return pos
}

// lineEnd returns the offset just past the newline ending the line containing pos.
func lineEnd(src []byte, pos int) int {
	for pos < len(src) && src[pos] != '\n' {
		pos++
	}
	if pos < len(src) {
		pos++
	}
	return pos
}

func isSetextUnderline(src []byte, pos int) bool {
	if pos >= len(src) {
		return false
	}
	line := strings.TrimSpace(string(src[pos:lineEnd(src, pos)]))
	return line != "" && (strings.Trim(line, "=") == "" || strings.Trim(line, "-") == "")
}
