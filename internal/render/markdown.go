package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"kiln/internal/domain/content"
)

// SummaryMarker ends the summary of a page.
const SummaryMarker = "<!-- more -->"

const internalPrefix = "@/"

// LinkResolver maps a content-relative file path to its permalink.
type LinkResolver interface {
	Lookup(relative string) (string, bool)
}

type MarkdownRenderer struct {
	md goldmark.Markdown
}

func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
			extension.Strikethrough,
			extension.Table,
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &MarkdownRenderer{md: md}
}

type MarkdownResult struct {
	HTML          string
	Summary       string
	Headings      []content.Heading
	InternalLinks []content.InternalLink
	ExternalLinks []string
}

// Render converts src to HTML. Links of the form @/path.md#anchor are
// rewritten to the permalink of the file they name; a link to a file the
// resolver does not know fails the render.
func (r *MarkdownRenderer) Render(src []byte, links LinkResolver) (MarkdownResult, error) {
	ctx := parser.NewContext()
	reader := text.NewReader(src)
	doc := r.md.Parser().Parse(reader, parser.WithContext(ctx))

	var res MarkdownResult
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			res.Headings = append(res.Headings, content.Heading{
				Level: node.Level,
				ID:    headingID(node),
				Text:  nodeText(node, src),
			})
		case *ast.Link:
			dest := string(node.Destination)
			switch {
			case strings.HasPrefix(dest, internalPrefix):
				link, permalink, err := resolve(dest, links)
				if err != nil {
					return ast.WalkStop, err
				}
				node.Destination = []byte(permalink)
				res.InternalLinks = append(res.InternalLinks, link)
			case isExternal(dest):
				res.ExternalLinks = append(res.ExternalLinks, dest)
			}
		case *ast.AutoLink:
			if node.AutoLinkType == ast.AutoLinkURL {
				if u := string(node.URL(src)); isExternal(u) {
					res.ExternalLinks = append(res.ExternalLinks, u)
				}
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return MarkdownResult{}, err
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return MarkdownResult{}, err
	}
	res.HTML = buf.String()
	if i := strings.Index(res.HTML, SummaryMarker); i >= 0 {
		res.Summary = res.HTML[:i]
	}
	return res, nil
}

func resolve(dest string, links LinkResolver) (content.InternalLink, string, error) {
	target, anchor, _ := strings.Cut(strings.TrimPrefix(dest, internalPrefix), "#")
	if links == nil {
		return content.InternalLink{}, "", fmt.Errorf("link %q: no resolver", dest)
	}
	permalink, ok := links.Lookup(target)
	if !ok {
		return content.InternalLink{}, "", fmt.Errorf("link %q points to a file that does not exist", dest)
	}
	if anchor != "" {
		permalink += "#" + anchor
	}
	return content.InternalLink{Target: target, Anchor: anchor}, permalink, nil
}

func isExternal(dest string) bool {
	lower := strings.ToLower(dest)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func headingID(h *ast.Heading) string {
	id, ok := h.AttributeString("id")
	if !ok {
		return ""
	}
	switch v := id.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

// nodeText concatenates the text of every descendant of n, so emphasis or
// code inside a heading is kept.
func nodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(src))
				if t.SoftLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				buf.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return buf.String()
}
