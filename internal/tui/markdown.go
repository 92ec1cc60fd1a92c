package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func markdownParser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

var (
	mdHeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	mdCodeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	mdLinkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	mdQuoteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	quoteBar = mdQuoteStyle.Render("│ ")
)

// renderMarkdown renders assistant replies for the terminal, wrapped to
// width. Soft line breaks reflow; lists, code and quotes keep their shape.
func renderMarkdown(input string, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}

	source := []byte(input)
	doc := markdownParser().Parser().Parse(text.NewReader(source))

	r := &mdRenderer{source: source, width: width}
	ast.Walk(doc, r.walk)
	return strings.TrimRight(r.out.String(), "\n")
}

type mdList struct {
	ordered bool
	n       int
}

type mdRenderer struct {
	source []byte
	width  int

	out    strings.Builder
	inline strings.Builder

	prefix string
	bullet string
	lists  []mdList

	bold   int
	italic int
}

func (r *mdRenderer) styled(s string) string {
	if r.bold == 0 && r.italic == 0 {
		return s
	}
	style := lipgloss.NewStyle()
	if r.bold > 0 {
		style = style.Bold(true)
	}
	if r.italic > 0 {
		style = style.Italic(true)
	}
	return style.Render(s)
}

// flush wraps the pending inline text and writes it with the current
// prefix, or the pending bullet on the first line.
func (r *mdRenderer) flush() {
	content := r.inline.String()
	r.inline.Reset()
	if content == "" {
		return
	}

	indent := ansi.StringWidth(r.prefix)
	if r.bullet != "" {
		indent = ansi.StringWidth(r.bullet)
	}
	width := r.width - indent
	if width < 10 {
		width = 10
	}

	for i, line := range strings.Split(ansi.Wrap(content, width, " ,.;-"), "\n") {
		if i == 0 && r.bullet != "" {
			r.out.WriteString(r.bullet)
			r.bullet = ""
		} else {
			r.out.WriteString(r.prefix)
		}
		r.out.WriteString(line)
		r.out.WriteString("\n")
	}
}

func (r *mdRenderer) blankLine() {
	if len(r.lists) > 0 {
		return
	}
	if s := r.out.String(); s != "" && !strings.HasSuffix(s, "\n\n") {
		r.out.WriteString("\n")
	}
}

func (r *mdRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if !entering {
			r.flush()
			r.blankLine()
		}

	case *ast.Heading:
		if entering {
			r.inline.Reset()
		} else {
			heading := r.inline.String()
			r.inline.Reset()
			r.inline.WriteString(mdHeadingStyle.Render(ansi.Strip(heading)))
			r.flush()
			r.blankLine()
		}

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			r.codeBlock(node)
			r.blankLine()
		}
		return ast.WalkSkipChildren, nil

	case *ast.Blockquote:
		if entering {
			r.prefix += quoteBar
		} else {
			r.prefix = strings.TrimSuffix(r.prefix, quoteBar)
		}

	case *ast.List:
		if entering {
			r.lists = append(r.lists, mdList{ordered: n.IsOrdered(), n: n.Start})
		} else {
			r.lists = r.lists[:len(r.lists)-1]
			r.blankLine()
		}

	case *ast.ListItem:
		if entering {
			depth := len(r.lists) - 1
			l := &r.lists[depth]
			indent := strings.Repeat("  ", depth)
			if l.ordered {
				r.bullet = fmt.Sprintf("%s%d. ", indent, l.n)
				l.n++
			} else {
				r.bullet = indent + "• "
			}
			r.prefix += "  "
		} else {
			r.flush()
			r.prefix = strings.TrimSuffix(r.prefix, "  ")
		}

	case *ast.ThematicBreak:
		if entering {
			r.out.WriteString(helpStyle.Render(strings.Repeat("─", r.width)))
			r.out.WriteString("\n\n")
		}

	case *ast.Text:
		if entering {
			seg := n.Segment
			r.inline.WriteString(r.styled(string(seg.Value(r.source))))
			switch {
			case n.HardLineBreak():
				r.inline.WriteString("\n")
			case n.SoftLineBreak():
				r.inline.WriteString(" ")
			}
		}

	case *ast.String:
		if entering {
			r.inline.WriteString(r.styled(string(n.Value)))
		}

	case *ast.Emphasis:
		counter := &r.italic
		if n.Level >= 2 {
			counter = &r.bold
		}
		if entering {
			*counter++
		} else {
			*counter--
		}

	case *ast.CodeSpan:
		if entering {
			var b strings.Builder
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					b.Write(t.Segment.Value(r.source))
				}
			}
			r.inline.WriteString(mdCodeStyle.Render(b.String()))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if !entering {
			r.inline.WriteString(" " + mdLinkStyle.Render("("+string(n.Destination)+")"))
		}

	case *ast.AutoLink:
		if entering {
			r.inline.WriteString(mdLinkStyle.Render(string(n.URL(r.source))))
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (r *mdRenderer) codeBlock(node ast.Node) {
	r.flush()
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(r.source)), "\n")
		r.out.WriteString(r.prefix + "    " + mdCodeStyle.Render(line) + "\n")
	}
}
