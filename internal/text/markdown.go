// Package text turns source documents into plain text suitable for speech.
package text

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	gtext "github.com/yuin/goldmark/text"
)

// Options control how markdown is flattened.
type Options struct {
	// IncludeCode reads fenced and indented code blocks aloud.
	IncludeCode bool
	// ExpandLinks speaks "link to" before link text.
	ExpandLinks bool
}

var frontmatterBoundaries = regexp.MustCompile(`(?m)^---[ \t]*\r?$`)

// RemoveFrontmatter strips a leading YAML frontmatter block.
func RemoveFrontmatter(content []byte) []byte {
	if !bytes.HasPrefix(content, []byte("---")) {
		return content
	}
	bounds := frontmatterBoundaries.FindAllIndex(content, 2)
	if len(bounds) < 2 || bounds[0][0] != 0 {
		return content
	}
	return bytes.TrimLeft(content[bounds[1][1]:], "\r\n")
}

// Markdown converts markdown source into speakable text. Block elements
// are separated by blank lines and headings and list items are closed with
// a period so the synthesizer pauses after them.
func Markdown(source []byte, opts Options) (string, error) {
	source = RemoveFrontmatter(source)

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(gtext.NewReader(source))

	w := &writer{}
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering && opts.IncludeCode {
				w.block(codeLines(n, source))
			}
			return ast.WalkSkipChildren, nil

		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil

		case *ast.ThematicBreak:
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			if entering {
				w.inline(string(n.Segment.Value(source)))
				if n.SoftLineBreak() || n.HardLineBreak() {
					w.inline(" ")
				}
			}

		case *ast.String:
			if entering {
				w.inline(string(n.Value))
			}

		case *ast.AutoLink:
			if entering {
				w.inline(string(n.Label(source)))
			}
			return ast.WalkSkipChildren, nil

		case *ast.Link:
			if entering && opts.ExpandLinks {
				w.inline("link to ")
			}

		case *ast.Image:
			if entering {
				w.inline("image: ")
			}

		case *east.TableCell:
			if !entering {
				w.inline(", ")
			}

		case *east.TableRow, *east.TableHeader:
			if !entering {
				w.sentence()
			}

		case *ast.Heading, *ast.ListItem:
			// Entering a list item also closes its parent's text.
			w.sentence()

		case *ast.Paragraph, *ast.TextBlock:
			if entering {
				break
			}
			if _, ok := n.Parent().(*ast.ListItem); ok {
				w.inline(" ")
			} else {
				w.flush()
			}

		case *ast.Blockquote, *ast.List:
			if !entering {
				w.flush()
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk markdown AST: %w", err)
	}

	w.flush()
	return strings.Join(w.blocks, "\n\n"), nil
}

func codeLines(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

// writer accumulates inline text into blocks.
type writer struct {
	blocks []string
	cur    strings.Builder
}

func (w *writer) inline(s string) {
	w.cur.WriteString(s)
}

// sentence closes the current inline run with terminal punctuation.
func (w *writer) sentence() {
	s := strings.TrimRightFunc(collapse(w.cur.String()), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	w.cur.Reset()
	if s == "" {
		return
	}
	if r := []rune(s)[len([]rune(s))-1]; !unicode.IsPunct(r) {
		s += "."
	}
	w.blocks = append(w.blocks, s)
}

func (w *writer) block(s string) {
	w.flush()
	if s = strings.TrimSpace(s); s != "" {
		w.blocks = append(w.blocks, s)
	}
}

func (w *writer) flush() {
	s := collapse(w.cur.String())
	w.cur.Reset()
	if s != "" {
		w.blocks = append(w.blocks, s)
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
